package filter

import (
	"testing"

	"github.com/findit-app/findit/internal/models"
)

func sampleResults() []Result {
	return []Result{
		{ClipID: "a", Rating: 5, ShotType: "wide", Mood: "calm", ColorLabel: models.ColorGreen, Score: 0.9, CreatedAt: 300, Duration: 10},
		{ClipID: "b", Rating: 2, ShotType: "closeup", Mood: "tense", ColorLabel: models.ColorRed, Score: 0.8, CreatedAt: 100, Duration: 30},
		{ClipID: "c", Rating: 4, ShotType: "wide", Mood: "tense", ColorLabel: models.ColorNone, Score: 0.7, CreatedAt: 200, Duration: 5},
	}
}

func TestMinRatingFilter(t *testing.T) {
	p := Predicate{MinRating: 4}
	got := Apply(sampleResults(), p, SortRelevance, 0, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, r := range got {
		if r.Rating < 4 {
			t.Errorf("result %s has rating %d < 4", r.ClipID, r.Rating)
		}
	}
}

func TestShotTypeAndMoodAndCombined(t *testing.T) {
	p := Predicate{
		ShotType: map[string]bool{"wide": true},
		Mood:     map[string]bool{"tense": true},
	}
	got := Apply(sampleResults(), p, SortRelevance, 0, 10)
	if len(got) != 1 || got[0].ClipID != "c" {
		t.Fatalf("expected only clip c, got %+v", got)
	}
}

func TestSortByDuration(t *testing.T) {
	got := Apply(sampleResults(), Predicate{}, SortDuration, 0, 10)
	if got[0].ClipID != "b" || got[len(got)-1].ClipID != "c" {
		t.Errorf("expected b first (longest), c last, got %+v", got)
	}
}

func TestSortByRating(t *testing.T) {
	got := Apply(sampleResults(), Predicate{}, SortRating, 0, 10)
	if got[0].ClipID != "a" {
		t.Errorf("expected highest-rated first, got %+v", got)
	}
}

func TestRelevancePreservesOriginalOrder(t *testing.T) {
	got := Apply(sampleResults(), Predicate{}, SortRelevance, 0, 10)
	if got[0].ClipID != "a" || got[1].ClipID != "b" || got[2].ClipID != "c" {
		t.Errorf("relevance sort reordered results: %+v", got)
	}
}

func TestOffsetLimitSlicing(t *testing.T) {
	got := Apply(sampleResults(), Predicate{}, SortRelevance, 1, 1)
	if len(got) != 1 || got[0].ClipID != "b" {
		t.Errorf("expected [b], got %+v", got)
	}
}

func TestOffsetBeyondLengthReturnsEmpty(t *testing.T) {
	got := Apply(sampleResults(), Predicate{}, SortRelevance, 50, 10)
	if len(got) != 0 {
		t.Errorf("expected empty, got %+v", got)
	}
}

func TestTopNTruncation(t *testing.T) {
	counts := []FacetCount{{Value: "a", Count: 5}, {Value: "b", Count: 3}, {Value: "c", Count: 1}}
	got := TopN(counts, 2)
	if len(got) != 2 {
		t.Errorf("expected 2, got %d", len(got))
	}
}

func TestTopNZeroMeansUnlimited(t *testing.T) {
	counts := []FacetCount{{Value: "a", Count: 5}, {Value: "b", Count: 3}}
	got := TopN(counts, 0)
	if len(got) != 2 {
		t.Errorf("expected full distribution, got %d", len(got))
	}
}
