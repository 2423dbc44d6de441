package edl

import (
	"strings"
	"testing"
)

func sampleClips() []Clip {
	return []Clip{
		{SourceFilename: "interview_01.mov", ClipName: "Interview Take 1", FPS: 24, SourceIn: 0, SourceOut: 5},
		{SourceFilename: "broll_beach.mov", ClipName: "Beach broll", FPS: 24, SourceIn: 10, SourceOut: 13},
	}
}

func TestBuildHeader(t *testing.T) {
	out := Build(Options{Title: "My Timeline"}, sampleClips())
	if !strings.HasPrefix(out, "TITLE: My Timeline\n") {
		t.Errorf("missing title header:\n%s", out)
	}
	if !strings.Contains(out, "FCM: NON-DROP FRAME\n") {
		t.Errorf("expected non-drop FCM header:\n%s", out)
	}
}

func TestBuildDropFrameHeader(t *testing.T) {
	clips := []Clip{{SourceFilename: "a.mov", FPS: 29.97, DropFrame: true, SourceIn: 0, SourceOut: 2}}
	out := Build(Options{Title: "T"}, clips)
	if !strings.Contains(out, "FCM: DROP FRAME\n") {
		t.Errorf("expected drop frame FCM header:\n%s", out)
	}
}

func TestBuildEventNumbering(t *testing.T) {
	out := Build(Options{Title: "T"}, sampleClips())
	if !strings.Contains(out, "001  ") || !strings.Contains(out, "002  ") {
		t.Errorf("expected sequential 3-digit event numbers:\n%s", out)
	}
}

func TestBuildRecordTimecodeAccumulates(t *testing.T) {
	out := Build(Options{Title: "T"}, sampleClips())
	lines := strings.Split(out, "\n")
	var eventLines []string
	for _, l := range lines {
		if strings.HasPrefix(l, "001") || strings.HasPrefix(l, "002") {
			eventLines = append(eventLines, l)
		}
	}
	if len(eventLines) != 2 {
		t.Fatalf("expected 2 event lines, got %d: %v", len(eventLines), eventLines)
	}
	// First event record-in must start at 00:00:00:00.
	if !strings.Contains(eventLines[0], "00:00:00:00") {
		t.Errorf("first event should start at zero: %s", eventLines[0])
	}
	// Second event's record-in should be the first event's duration (5s @ 24fps).
	if !strings.Contains(eventLines[1], "00:00:05:00") {
		t.Errorf("second event record-in should accumulate to 5s: %s", eventLines[1])
	}
}

func TestBuildMaxEventsCap(t *testing.T) {
	var clips []Clip
	for i := 0; i < 1005; i++ {
		clips = append(clips, Clip{SourceFilename: "a.mov", FPS: 24, SourceIn: 0, SourceOut: 1})
	}
	out := Build(Options{Title: "T"}, clips)
	if strings.Contains(out, "1000  ") {
		t.Error("expected event cap at 999, found event 1000")
	}
	if !strings.Contains(out, "999  ") {
		t.Error("expected event 999 present")
	}
}

func TestReelFirst8OfFilenameSanitizes(t *testing.T) {
	clips := []Clip{{SourceFilename: "my-clip v2!!.mov", FPS: 24, SourceIn: 0, SourceOut: 1}}
	out := Build(Options{Title: "T", ReelPolicy: ReelFirst8OfFilename}, clips)
	if !strings.Contains(out, "MYCLIPV2") {
		t.Errorf("expected sanitized 8-char reel name, got:\n%s", out)
	}
}

func TestReelSequential(t *testing.T) {
	out := Build(Options{Title: "T", ReelPolicy: ReelSequential}, sampleClips())
	if !strings.Contains(out, "REEL0001") || !strings.Contains(out, "REEL0002") {
		t.Errorf("expected sequential reel names, got:\n%s", out)
	}
}

func TestReelFixed(t *testing.T) {
	out := Build(Options{Title: "T", ReelPolicy: ReelFixed, FixedReel: "MASTER01"}, sampleClips())
	if strings.Count(out, "MASTER01") != 2 {
		t.Errorf("expected fixed reel name on both events, got:\n%s", out)
	}
}

func TestCommentTruncatedTo120Chars(t *testing.T) {
	long := strings.Repeat("x", 200)
	clips := []Clip{{SourceFilename: "a.mov", FPS: 24, SourceIn: 0, SourceOut: 1, Comment: long}}
	out := Build(Options{Title: "T"}, clips)
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "* COMMENT:") {
			text := strings.TrimPrefix(line, "* COMMENT: ")
			if len(text) != 120 {
				t.Errorf("comment length = %d, want 120", len(text))
			}
		}
	}
}
