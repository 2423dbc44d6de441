// Package media implements the Media Service composite named in spec.md §2:
// probing, keyframe extraction, and audio-track extraction. Every call runs
// ffprobe or ffmpeg; RED and Blackmagic RAW files are tagged with their
// vendor decoder but are still read through ffprobe/ffmpeg.
package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const execTimeout = 2 * time.Minute

// Decoder names the decoder a file is routed to by its extension
// (decoderFor). ProbeResult.Decoder records that routing decision only:
// the vendor RAW tools are never invoked, so every result comes from
// ffprobe/ffmpeg.
type Decoder string

const (
	DecoderFFmpeg   Decoder = "ffmpeg"
	DecoderRED      Decoder = "redline"
	DecoderBlackmagic Decoder = "braw-toolkit"
)

// rawExtensions to specialized decoder routing; anything not listed here
// goes through FFmpeg, which covers the overwhelming majority of consumer
// and prosumer formats.
var rawExtensions = map[string]Decoder{
	".r3d":  DecoderRED,
	".braw": DecoderBlackmagic,
}

// Service wraps the external ffprobe/ffmpeg binaries used to extract
// everything the Layered Indexer needs from a media file. The vendor RAW
// tool paths are held but not run.
type Service struct {
	ffprobePath string
	ffmpegPath  string
	redPath     string
	brawPath    string
}

// New constructs a Service. Empty paths for the RAW tools are fine:
// Probe, ExtractKeyframe and ExtractAudio never use redPath or brawPath.
func New(ffprobePath, ffmpegPath, redPath, brawPath string) *Service {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Service{ffprobePath: ffprobePath, ffmpegPath: ffmpegPath, redPath: redPath, brawPath: brawPath}
}

// decoderFor picks the routing decision for a given source path's
// extension, per the component table's "routes per-format to best decoder".
func decoderFor(path string) Decoder {
	ext := strings.ToLower(filepath.Ext(path))
	if d, ok := rawExtensions[ext]; ok {
		return d
	}
	return DecoderFFmpeg
}

// ProbeResult is the subset of ffprobe's format/streams output the indexer
// and scanner need.
type ProbeResult struct {
	DurationSeconds float64
	Width           int
	Height          int
	VideoCodec      string
	AudioCodec      string
	HasVideo        bool
	HasAudio        bool
	FPS             float64
	Decoder         Decoder
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe (or, for RAW formats without a configured vendor tool,
// falls back to ffprobe anyway since most NLE RAW formats are at least
// readable by a recent FFmpeg build) and extracts duration/dimensions/
// codec/fps.
func (s *Service) Probe(path string) (*ProbeResult, error) {
	decoder := decoderFor(path)

	cmd := exec.Command(s.ffprobePath, "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", path)
	output, err := runWithTimeout(cmd, execTimeout)
	if err != nil {
		return nil, fmt.Errorf("media: probe %s: %w", path, err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("media: parse probe output for %s: %w", path, err)
	}

	result := &ProbeResult{Decoder: decoder}
	if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		result.DurationSeconds = d
	}
	for _, st := range parsed.Streams {
		switch st.CodecType {
		case "video":
			result.HasVideo = true
			result.VideoCodec = st.CodecName
			result.Width = st.Width
			result.Height = st.Height
			result.FPS = parseFrameRate(st.AvgFrameRate, st.RFrameRate)
		case "audio":
			result.HasAudio = true
			result.AudioCodec = st.CodecName
		}
	}
	return result, nil
}

// parseFrameRate parses ffprobe's "num/den" frame-rate strings, preferring
// avg_frame_rate and falling back to r_frame_rate when avg is unset ("0/0").
func parseFrameRate(avg, r string) float64 {
	if fps := parseRational(avg); fps > 0 {
		return fps
	}
	return parseRational(r)
}

func parseRational(s string) float64 {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// ExtractKeyframe grabs a single frame at the clip's midpoint and writes it
// as a JPEG to outPath, per spec.md §4.1 layer 1's "extract keyframes (1
// per clip, mid-point)".
func (s *Service) ExtractKeyframe(sourcePath string, startTime, endTime float64, outPath string) error {
	midpoint := startTime + (endTime-startTime)/2
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("media: create keyframe dir: %w", err)
	}

	cmd := exec.Command(s.ffmpegPath,
		"-ss", fmt.Sprintf("%.3f", midpoint),
		"-i", sourcePath,
		"-vframes", "1",
		"-q:v", "2",
		"-y",
		outPath,
	)
	if _, err := runWithTimeout(cmd, execTimeout); err != nil {
		return fmt.Errorf("media: extract keyframe from %s: %w", sourcePath, err)
	}
	return nil
}

// ExtractAudio extracts the audio track of a clip's time range to a 16kHz
// mono WAV, the format the speech-to-text layer consumes.
func (s *Service) ExtractAudio(sourcePath string, startTime, endTime float64, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("media: create audio dir: %w", err)
	}

	cmd := exec.Command(s.ffmpegPath,
		"-ss", fmt.Sprintf("%.3f", startTime),
		"-to", fmt.Sprintf("%.3f", endTime),
		"-i", sourcePath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-y",
		outPath,
	)
	if _, err := runWithTimeout(cmd, execTimeout); err != nil {
		return fmt.Errorf("media: extract audio from %s: %w", sourcePath, err)
	}
	return nil
}

// runWithTimeout starts cmd in its own process group and kills the whole
// group if it exceeds timeout, so a hung decoder never leaves an orphaned
// child process behind.
func runWithTimeout(cmd *exec.Cmd, timeout time.Duration) ([]byte, error) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return buf.Bytes(), fmt.Errorf("%w: %s", err, buf.String())
		}
		return buf.Bytes(), nil
	case <-time.After(timeout):
		pgid, err := syscall.Getpgid(cmd.Process.Pid)
		if err == nil {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			_ = cmd.Process.Kill()
		}
		<-done
		return buf.Bytes(), fmt.Errorf("timed out after %v", timeout)
	}
}
