// Package filter implements the in-memory predicate filtering and sort
// described in spec.md §4.4. It runs over an already-fused search result
// set so fusion scores still exist when "relevance" sort is requested.
package filter

import (
	"sort"

	"github.com/findit-app/findit/internal/models"
)

// SortField selects the ordering applied after filtering.
type SortField string

const (
	SortRelevance SortField = "relevance"
	SortDate      SortField = "date"
	SortDuration  SortField = "duration"
	SortRating    SortField = "rating"
)

// Predicate is the optional, AND-combined filter set from spec.md §4.4.
type Predicate struct {
	MinRating  int
	ColorLabel map[models.ColorLabel]bool
	ShotType   map[string]bool
	Mood       map[string]bool
}

// Result is the minimal shape filter.Apply needs from a fused search hit;
// searchengine builds one from each of its own Results (toFilterResult).
type Result struct {
	ClipID     string
	Rating     int
	ColorLabel models.ColorLabel
	ShotType   string
	Mood       string
	Score      float64
	CreatedAt  int64 // unix seconds, for date sort
	Duration   float64
}

// Matches reports whether r satisfies every configured predicate clause.
func (p Predicate) Matches(r Result) bool {
	if r.Rating < p.MinRating {
		return false
	}
	if len(p.ColorLabel) > 0 && !p.ColorLabel[r.ColorLabel] {
		return false
	}
	if len(p.ShotType) > 0 && !p.ShotType[r.ShotType] {
		return false
	}
	if len(p.Mood) > 0 && !p.Mood[r.Mood] {
		return false
	}
	return true
}

// Apply filters results by predicate, sorts by field (stable, preserving
// relevance order as the tiebreak / the whole order when field is
// relevance), and slices [offset, offset+limit).
func Apply(results []Result, p Predicate, field SortField, offset, limit int) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if p.Matches(r) {
			filtered = append(filtered, r)
		}
	}

	switch field {
	case SortDate:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].CreatedAt > filtered[j].CreatedAt })
	case SortDuration:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Duration > filtered[j].Duration })
	case SortRating:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Rating > filtered[j].Rating })
	case SortRelevance, "":
		// Already ordered by fusion score; stable no-op.
	}

	if offset >= len(filtered) {
		return []Result{}
	}
	end := offset + limit
	if end > len(filtered) || limit <= 0 {
		end = len(filtered)
	}
	return filtered[offset:end]
}

// FacetCount is one (value, count) pair, mirroring globaldb.FacetCount so
// callers of this package don't need to import globaldb directly.
type FacetCount struct {
	Value string
	Count int
}

// TopN truncates a facet distribution already sorted by count descending
// to its N most frequent values, per spec.md §4.4 ("top-N (N=20) most
// frequent values of {shot_type, mood}, full distribution for {rating,
// color_label}"). Callers pass n=0 for "no truncation".
func TopN(counts []FacetCount, n int) []FacetCount {
	if n <= 0 || len(counts) <= n {
		return counts
	}
	return counts[:n]
}
