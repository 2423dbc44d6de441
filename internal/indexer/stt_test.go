package indexer

import "testing"

func TestTranscriptForRangeJoinsOverlappingWords(t *testing.T) {
	words := []Word{
		{Text: "hello", Start: 0, End: 1},
		{Text: "there", Start: 1, End: 2},
		{Text: "friend", Start: 5, End: 6},
	}
	got := TranscriptForRange(words, 0, 2)
	if got != "hello there" {
		t.Fatalf("got %q, want %q", got, "hello there")
	}
}

func TestTranscriptForRangeExcludesWordsOutsideRange(t *testing.T) {
	words := []Word{
		{Text: "early", Start: 0, End: 1},
		{Text: "mid", Start: 10, End: 11},
		{Text: "late", Start: 20, End: 21},
	}
	got := TranscriptForRange(words, 9, 15)
	if got != "mid" {
		t.Fatalf("got %q, want %q", got, "mid")
	}
}

func TestTranscriptForRangeNoOverlapIsEmpty(t *testing.T) {
	words := []Word{{Text: "hi", Start: 0, End: 1}}
	got := TranscriptForRange(words, 5, 6)
	if got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestTranscriptForRangeBoundaryIsExclusive(t *testing.T) {
	words := []Word{{Text: "word", Start: 1, End: 2}}
	// A clip ending exactly where the word starts should not include it.
	got := TranscriptForRange(words, 0, 1)
	if got != "" {
		t.Fatalf("got %q, want empty string for non-overlapping boundary", got)
	}
}
