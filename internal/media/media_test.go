package media

import "testing"

func TestDecoderForRoutesRAWExtensions(t *testing.T) {
	cases := map[string]Decoder{
		"/library/clip.r3d":   DecoderRED,
		"/library/CLIP.R3D":   DecoderRED,
		"/library/shot.braw":  DecoderBlackmagic,
		"/library/normal.mov": DecoderFFmpeg,
		"/library/archive.mp4": DecoderFFmpeg,
		"/library/noext":      DecoderFFmpeg,
	}
	for path, want := range cases {
		if got := decoderFor(path); got != want {
			t.Errorf("decoderFor(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestParseRational(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30000/1001", 29.97002997002997},
		{"24/1", 24},
		{"0/0", 0},
		{"", 0},
		{"bad", 0},
	}
	for _, c := range cases {
		got := parseRational(c.in)
		if diff := got - c.want; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("parseRational(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseFrameRatePrefersAvgFallsBackToR(t *testing.T) {
	if got := parseFrameRate("24/1", "30/1"); got != 24 {
		t.Errorf("expected avg_frame_rate to win, got %v", got)
	}
	if got := parseFrameRate("0/0", "30/1"); got != 30 {
		t.Errorf("expected fallback to r_frame_rate when avg is 0/0, got %v", got)
	}
	if got := parseFrameRate("0/0", "0/0"); got != 0 {
		t.Errorf("expected 0 when both are unset, got %v", got)
	}
}

func TestNewDefaultsFFprobeAndFFmpegPaths(t *testing.T) {
	s := New("", "", "", "")
	if s.ffprobePath != "ffprobe" {
		t.Errorf("expected default ffprobe path, got %q", s.ffprobePath)
	}
	if s.ffmpegPath != "ffmpeg" {
		t.Errorf("expected default ffmpeg path, got %q", s.ffmpegPath)
	}
}
