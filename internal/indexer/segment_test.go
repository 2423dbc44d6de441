package indexer

import (
	"errors"
	"testing"

	"github.com/findit-app/findit/internal/models"
)

type fakeDetector struct {
	cuts []float64
	err  error
}

func (f fakeDetector) Detect(sourcePath string, duration float64) ([]float64, error) {
	return f.cuts, f.err
}

func TestSegmentPhotoIsSingleZeroRange(t *testing.T) {
	ranges := Segment(models.MediaTypePhoto, 0, nil, "photo.jpg")
	if len(ranges) != 1 || ranges[0] != (TimeRange{Start: 0, End: 0}) {
		t.Fatalf("expected single zero range, got %v", ranges)
	}
}

func TestSegmentAudioIsSingleFullRange(t *testing.T) {
	ranges := Segment(models.MediaTypeAudio, 42.5, nil, "audio.wav")
	if len(ranges) != 1 || ranges[0] != (TimeRange{Start: 0, End: 42.5}) {
		t.Fatalf("expected single full-duration range, got %v", ranges)
	}
}

func TestSegmentVideoNoDetectorFallsBackToFixedInterval(t *testing.T) {
	ranges := Segment(models.MediaTypeVideo, 25, nil, "clip.mp4")
	want := []TimeRange{{0, 10}, {10, 20}, {20, 25}}
	if len(ranges) != len(want) {
		t.Fatalf("expected %d ranges, got %d: %v", len(want), len(ranges), ranges)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %v, want %v", i, ranges[i], want[i])
		}
	}
}

func TestSegmentVideoDetectorFailureFallsBack(t *testing.T) {
	ranges := Segment(models.MediaTypeVideo, 20, fakeDetector{err: errors.New("boom")}, "clip.mp4")
	if len(ranges) != 2 {
		t.Fatalf("expected fixed-interval fallback (2 ranges), got %v", ranges)
	}
}

func TestSegmentVideoDetectorValidCuts(t *testing.T) {
	ranges := Segment(models.MediaTypeVideo, 15, fakeDetector{cuts: []float64{5, 10}}, "clip.mp4")
	want := []TimeRange{{0, 5}, {5, 10}, {10, 15}}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %v, want %v", i, ranges[i], want[i])
		}
	}
}

func TestSegmentVideoDetectorClipTooShortFallsBack(t *testing.T) {
	ranges := Segment(models.MediaTypeVideo, 20, fakeDetector{cuts: []float64{0.5}}, "clip.mp4")
	if len(ranges) != 2 {
		t.Fatalf("expected fixed-interval fallback when a cut produces a sub-1s clip, got %v", ranges)
	}
}

func TestSegmentVideoDetectorClipTooLongFallsBack(t *testing.T) {
	ranges := Segment(models.MediaTypeVideo, 40, fakeDetector{cuts: []float64{35}}, "clip.mp4")
	if len(ranges) != 4 {
		t.Fatalf("expected fixed-interval fallback when a cut produces a >30s clip, got %v", ranges)
	}
}

func TestFixedIntervalZeroDuration(t *testing.T) {
	ranges := fixedInterval(0, FixedSegmentSeconds)
	if len(ranges) != 1 || ranges[0] != (TimeRange{Start: 0, End: 0}) {
		t.Fatalf("expected single zero range for zero duration, got %v", ranges)
	}
}

func TestFixedIntervalTruncatesFinalSegment(t *testing.T) {
	ranges := fixedInterval(22, 10)
	if len(ranges) != 3 {
		t.Fatalf("expected 3 ranges, got %v", ranges)
	}
	last := ranges[len(ranges)-1]
	if last.End != 22 {
		t.Errorf("final segment should truncate to 22, got %v", last)
	}
}
