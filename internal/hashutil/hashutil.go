// Package hashutil computes the content-addressed integrity hash used to
// detect modified or missing media files. It streams the file through
// xxHash3-128 with a 1 MiB buffer, matching spec.md §6's "Content hash"
// interface, the same streaming-io-then-hash shape the teacher's
// fingerprint package uses for perceptual hashing.
package hashutil

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

const bufSize = 1 << 20 // 1 MiB

// Digest streams path through xxHash3-128 and returns its 32-character
// lowercase hex encoding.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashutil: open %s: %w", path, err)
	}
	defer f.Close()
	return DigestReader(f)
}

// DigestReader is the streaming core of Digest, split out for testability
// against in-memory readers.
func DigestReader(r io.Reader) (string, error) {
	h := xxh3.New()
	buf := make([]byte, bufSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hashutil: read: %w", err)
	}
	sum := h.Sum128()
	var b [16]byte
	// Hi then Lo keeps the encoding stable/deterministic regardless of the
	// underlying Uint128 representation.
	putUint64(b[0:8], sum.Hi)
	putUint64(b[8:16], sum.Lo)
	return hex.EncodeToString(b[:]), nil
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// Status classifies the integrity check result for a previously-indexed
// file against its recorded ContentHash.
type Status string

const (
	StatusMissing  Status = "missing"
	StatusValid    Status = "valid"
	StatusModified Status = "modified"
	StatusError    Status = "error"
)

// Check compares the file at path against expectedHash, reporting its
// current integrity status.
func Check(path, expectedHash string) (Status, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return StatusMissing, nil
		}
		return StatusError, err
	}
	actual, err := Digest(path)
	if err != nil {
		return StatusError, err
	}
	if actual != expectedHash {
		return StatusModified, nil
	}
	return StatusValid, nil
}
