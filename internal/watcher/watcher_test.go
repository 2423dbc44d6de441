package watcher

import (
	"testing"

	"github.com/google/uuid"
)

func TestDeduplicateKeepsLastEventPerPath(t *testing.T) {
	fid := uuid.New()
	events := []Event{
		{FolderID: fid, Path: "/lib/a.mp4", Kind: KindAdded},
		{FolderID: fid, Path: "/lib/b.mp4", Kind: KindModified},
		{FolderID: fid, Path: "/lib/a.mp4", Kind: KindRemoved},
	}

	out := Deduplicate(events)

	if len(out) > len(events) {
		t.Fatalf("deduplicate grew the event list: got %d from %d", len(out), len(events))
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 deduplicated events, got %d", len(out))
	}

	byPath := make(map[string]Kind)
	for _, e := range out {
		byPath[e.Path] = e.Kind
	}
	if byPath["/lib/a.mp4"] != KindRemoved {
		t.Errorf("expected last event for a.mp4 to be removed, got %s", byPath["/lib/a.mp4"])
	}
	if byPath["/lib/b.mp4"] != KindModified {
		t.Errorf("expected event for b.mp4 to be modified, got %s", byPath["/lib/b.mp4"])
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	out := Deduplicate(nil)
	if len(out) != 0 {
		t.Fatalf("expected empty output for empty input, got %d", len(out))
	}
}
