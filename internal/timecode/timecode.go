// Package timecode implements SMPTE non-drop and drop-frame timecode
// arithmetic, per spec.md §6/§8.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timecode is a parsed SMPTE timecode at a given frame rate.
type Timecode struct {
	Hours, Minutes, Seconds, Frames int
	FPS                             float64
	Drop                            bool
}

// dropEligible reports whether fps supports drop-frame timecode at all;
// only 29.97 and 59.94 do.
func dropEligible(fps float64) bool {
	return roughly(fps, 29.97) || roughly(fps, 59.94)
}

func roughly(a, b float64) bool { return math.Abs(a-b) < 0.005 }

// framesDroppedPerMinute returns how many frame numbers are skipped at
// each non-tenth minute boundary. 59.94 is derived by analogy to 29.97
// (4 frames instead of 2) and is not independently verified — see
// spec.md §9 Open Question (c).
func framesDroppedPerMinute(fps float64) int {
	if roughly(fps, 59.94) {
		return 4
	}
	return 2
}

// nominalFrameRate rounds a real-world fps to its nearest integer cadence
// for frame-count math (29.97 -> 30, 59.94 -> 60, 23.976 -> 24, 24 -> 24).
func nominalFrameRate(fps float64) int {
	return int(math.Round(fps))
}

// FromSeconds builds a Timecode from a duration in seconds at fps. drop
// requests drop-frame labeling; it is silently ignored when the fps is not
// drop-eligible.
func FromSeconds(seconds float64, fps float64, drop bool) Timecode {
	drop = drop && dropEligible(fps)
	nominal := nominalFrameRate(fps)
	totalFrames := int(math.Round(seconds * fps))

	if !drop {
		return fromFrameCount(totalFrames, nominal, fps, false)
	}

	dropPerMin := framesDroppedPerMinute(fps)
	framesPerMinuteNominal := nominal * 60
	framesPerTenMinutesNominal := framesPerMinuteNominal*10 - dropPerMin*9

	tenMinBlocks := totalFrames / framesPerTenMinutesNominal
	remainder := totalFrames % framesPerTenMinutesNominal

	var minutesInBlock int
	if remainder < framesPerMinuteNominal {
		minutesInBlock = 0
	} else {
		minutesInBlock = 1 + (remainder-framesPerMinuteNominal)/(framesPerMinuteNominal-dropPerMin)
	}

	droppedSoFar := tenMinBlocks*dropPerMin*9 + dropFrameAdjust(minutesInBlock, dropPerMin)
	labelFrame := totalFrames + droppedSoFar

	return fromFrameCount(labelFrame, nominal, fps, true)
}

func dropFrameAdjust(minutesInBlock, dropPerMin int) int {
	if minutesInBlock <= 0 {
		return 0
	}
	return minutesInBlock * dropPerMin
}

func fromFrameCount(frameLabel, nominal int, fps float64, drop bool) Timecode {
	framesPerHour := nominal * 3600
	hours := frameLabel / framesPerHour
	rem := frameLabel % framesPerHour
	framesPerMinute := nominal * 60
	minutes := rem / framesPerMinute
	rem = rem % framesPerMinute
	seconds := rem / nominal
	frames := rem % nominal
	return Timecode{Hours: hours, Minutes: minutes, Seconds: seconds, Frames: frames, FPS: fps, Drop: drop}
}

// String renders the timecode in SMPTE notation, using ';' as the
// frame-number separator for drop-frame and ':' otherwise.
func (t Timecode) String() string {
	sep := ":"
	if t.Drop {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", t.Hours, t.Minutes, t.Seconds, sep, t.Frames)
}

// TotalSeconds converts the timecode back to a duration in seconds,
// accounting for dropped frame labels.
func (t Timecode) TotalSeconds() float64 {
	nominal := nominalFrameRate(t.FPS)
	labelFrame := t.Hours*nominal*3600 + t.Minutes*nominal*60 + t.Seconds*nominal + t.Frames

	if !t.Drop {
		return float64(labelFrame) / t.FPS
	}

	dropPerMin := framesDroppedPerMinute(t.FPS)
	totalMinutes := t.Hours*60 + t.Minutes
	tenMinBlocks := totalMinutes / 10
	minutesIntoBlock := totalMinutes % 10

	dropped := tenMinBlocks*dropPerMin*9 + dropFrameAdjust(minutesIntoBlock, dropPerMin)
	actualFrames := labelFrame - dropped
	return float64(actualFrames) / t.FPS
}

// Parse accepts either separator and sets Drop=true when ';' is used.
func Parse(s string, fps float64) (Timecode, error) {
	drop := strings.Contains(s, ";")
	norm := strings.NewReplacer(";", ":").Replace(s)
	parts := strings.Split(norm, ":")
	if len(parts) != 4 {
		return Timecode{}, fmt.Errorf("timecode: invalid format %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Timecode{}, fmt.Errorf("timecode: invalid field %q in %q", p, s)
		}
		vals[i] = v
	}
	return Timecode{Hours: vals[0], Minutes: vals[1], Seconds: vals[2], Frames: vals[3], FPS: fps, Drop: drop && dropEligible(fps)}, nil
}
