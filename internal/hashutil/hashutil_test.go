package hashutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigestReaderDeterministic(t *testing.T) {
	a, err := DigestReader(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	b, err := DigestReader(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	if a != b {
		t.Errorf("expected deterministic digest, got %s and %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d (%s)", len(a), a)
	}
}

func TestDigestReaderDiffersOnContent(t *testing.T) {
	a, _ := DigestReader(strings.NewReader("hello"))
	b, _ := DigestReader(strings.NewReader("world"))
	if a == b {
		t.Errorf("expected different digests for different content")
	}
}

func TestCheckStatuses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("original content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	digest, err := Digest(path)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	if status, err := Check(path, digest); err != nil || status != StatusValid {
		t.Errorf("expected valid, got %v (%v)", status, err)
	}

	if err := os.WriteFile(path, []byte("changed content!"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if status, err := Check(path, digest); err != nil || status != StatusModified {
		t.Errorf("expected modified, got %v (%v)", status, err)
	}

	missing := filepath.Join(dir, "gone.bin")
	if status, err := Check(missing, digest); err != nil || status != StatusMissing {
		t.Errorf("expected missing, got %v (%v)", status, err)
	}
}
