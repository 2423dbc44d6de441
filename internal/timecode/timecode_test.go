package timecode

import (
	"math"
	"testing"
)

func TestNonDropRoundTrip(t *testing.T) {
	cases := []struct {
		fps float64
		sec float64
	}{
		{24, 123.45},
		{25, 3600.2},
		{30, 59.9},
		{23.976, 500.0},
	}
	for _, c := range cases {
		tc := FromSeconds(c.sec, c.fps, false)
		got := tc.TotalSeconds()
		tolerance := 1.0 / (2 * c.fps)
		if math.Abs(got-c.sec) > tolerance+1e-9 {
			t.Errorf("fps=%v sec=%v: round trip got %v, tolerance %v", c.fps, c.sec, got, tolerance)
		}
	}
}

func TestDropFrame600Seconds(t *testing.T) {
	tc := FromSeconds(600, 29.97, true)
	if got := tc.String(); got != "00:10:00;00" {
		t.Errorf("expected 00:10:00;00, got %s", got)
	}
}

func TestDropFrame60Seconds(t *testing.T) {
	tc := FromSeconds(60, 29.97, true)
	if got := tc.String(); got != "00:00:59;28" {
		t.Errorf("expected 00:00:59;28, got %s", got)
	}
}

func TestDropIgnoredForNonEligibleFPS(t *testing.T) {
	tc := FromSeconds(10, 24, true)
	if tc.Drop {
		t.Errorf("expected drop to be ignored for 24fps")
	}
	if got := tc.String(); got[8] != ':' {
		t.Errorf("expected ':' separator for non-drop, got %s", got)
	}
}

func TestParseSeparatorDeterminesDrop(t *testing.T) {
	tc, err := Parse("00:10:00;00", 29.97)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !tc.Drop {
		t.Errorf("expected drop=true from ';' separator")
	}

	tc2, err := Parse("00:10:00:00", 29.97)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if tc2.Drop {
		t.Errorf("expected drop=false from ':' separator")
	}
}

func TestParseInvalidFormat(t *testing.T) {
	if _, err := Parse("not-a-timecode", 30); err == nil {
		t.Error("expected error for malformed timecode")
	}
}
