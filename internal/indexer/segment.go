package indexer

import "github.com/findit-app/findit/internal/models"

// FixedSegmentSeconds is the fallback segmentation interval used whenever a
// shot detector is unavailable or fails, per spec.md §4.1 layer 0.
const FixedSegmentSeconds = 10.0

const (
	minClipSeconds = 1.0
	maxClipSeconds = 30.0
)

// TimeRange is a [Start, End) slice of a Video, seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// ShotBoundaries is implemented by an optional shot detector; Detect returns
// ascending cut points strictly between 0 and duration, or an error if
// detection fails (in which case the caller falls back to fixed-interval
// segmentation, which spec.md §4.1 treats as a successful outcome, not a
// failure).
type ShotBoundaries interface {
	Detect(sourcePath string, duration float64) ([]float64, error)
}

// Segment produces the layer-0 clip boundaries for a Video, per spec.md
// §4.1 layer 0 and the media-type special cases.
func Segment(mediaType models.MediaType, duration float64, detector ShotBoundaries, sourcePath string) []TimeRange {
	switch mediaType {
	case models.MediaTypePhoto:
		return []TimeRange{{Start: 0, End: 0}}
	case models.MediaTypeAudio:
		return []TimeRange{{Start: 0, End: duration}}
	}

	if detector != nil {
		if cuts, err := detector.Detect(sourcePath, duration); err == nil {
			if ranges := fromCutPoints(cuts, duration); ranges != nil {
				return ranges
			}
		}
	}
	return fixedInterval(duration, FixedSegmentSeconds)
}

// fromCutPoints turns a sorted list of interior cut points into clip
// ranges, rejecting the detector's output entirely (falling back to nil,
// which the caller interprets as "use fixed-interval instead") if any
// resulting clip violates the [1.0s, 30.0s] bound spec.md §4.1 requires.
func fromCutPoints(cuts []float64, duration float64) []TimeRange {
	bounds := append([]float64{0}, cuts...)
	bounds = append(bounds, duration)

	ranges := make([]TimeRange, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		start, end := bounds[i], bounds[i+1]
		length := end - start
		if length < minClipSeconds || length > maxClipSeconds {
			return nil
		}
		ranges = append(ranges, TimeRange{Start: start, End: end})
	}
	return ranges
}

// fixedInterval splits [0, duration) into interval-second clips, truncating
// (never padding) the final segment to the actual duration.
func fixedInterval(duration, interval float64) []TimeRange {
	if duration <= 0 {
		return []TimeRange{{Start: 0, End: 0}}
	}

	var ranges []TimeRange
	for start := 0.0; start < duration; start += interval {
		end := start + interval
		if end > duration {
			end = duration
		}
		ranges = append(ranges, TimeRange{Start: start, End: end})
	}
	return ranges
}
