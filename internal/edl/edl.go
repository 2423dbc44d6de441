// Package edl generates CMX 3600 Edit Decision Lists: a pure text
// serializer over clip data the indexing core already produces, per
// spec.md §1 and §6, with no coupling to the search or indexing
// subsystems.
package edl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/findit-app/findit/internal/timecode"
)

// MaxEvents is the CMX 3600 event-number field width limit from spec.md §6.
const MaxEvents = 999

// ReelPolicy selects how a clip's source is named in the REEL column.
type ReelPolicy int

const (
	// ReelFirst8OfFilename sanitizes the source filename (minus extension)
	// to [A-Z0-9_] and takes the first 8 characters.
	ReelFirst8OfFilename ReelPolicy = iota
	// ReelSequential assigns REEL0001, REEL0002, ... in event order.
	ReelSequential
	// ReelFixed uses one fixed 8-character name for every event.
	ReelFixed
)

var reelSanitizer = regexp.MustCompile(`[^A-Z0-9_]`)

// Clip is one source clip contributing an event to the EDL.
type Clip struct {
	SourceFilename string
	ClipName       string
	FPS            float64
	DropFrame      bool
	SourceIn       float64 // seconds within the source
	SourceOut      float64
	Comment        string
}

// Options configures Build.
type Options struct {
	Title      string
	ReelPolicy ReelPolicy
	FixedReel  string // used only when ReelPolicy == ReelFixed
}

// Build renders clips as a CMX 3600 EDL document, per spec.md §6. Only the
// first MaxEvents clips are emitted; callers needing more must split into
// multiple EDLs.
func Build(opts Options, clips []Clip) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", opts.Title)

	fcm := "NON-DROP FRAME"
	if len(clips) > 0 && clips[0].DropFrame {
		fcm = "DROP FRAME"
	}
	fmt.Fprintf(&b, "FCM: %s\n", fcm)

	n := len(clips)
	if n > MaxEvents {
		n = MaxEvents
	}

	var recordIn float64
	for i := 0; i < n; i++ {
		c := clips[i]
		dur := c.SourceOut - c.SourceIn
		recordOut := recordIn + dur

		reel := reelName(opts, c, i+1)
		srcIn := timecode.FromSeconds(c.SourceIn, c.FPS, c.DropFrame).String()
		srcOut := timecode.FromSeconds(c.SourceOut, c.FPS, c.DropFrame).String()
		recIn := timecode.FromSeconds(recordIn, c.FPS, c.DropFrame).String()
		recOut := timecode.FromSeconds(recordOut, c.FPS, c.DropFrame).String()

		fmt.Fprintf(&b, "%03d  %-8s V     C        %s %s %s %s\n", i+1, reel, srcIn, srcOut, recIn, recOut)
		if c.ClipName != "" {
			fmt.Fprintf(&b, "* FROM CLIP NAME: %s\n", c.ClipName)
		}
		if c.SourceFilename != "" {
			fmt.Fprintf(&b, "* SOURCE FILE: %s\n", c.SourceFilename)
		}
		if c.Comment != "" {
			fmt.Fprintf(&b, "* COMMENT: %s\n", truncate(c.Comment, 120))
		}

		recordIn = recordOut
	}

	return b.String()
}

func reelName(opts Options, c Clip, eventNum int) string {
	switch opts.ReelPolicy {
	case ReelSequential:
		return fmt.Sprintf("REEL%04d", eventNum)
	case ReelFixed:
		return opts.FixedReel
	default:
		base := c.SourceFilename
		if idx := strings.LastIndex(base, "."); idx >= 0 {
			base = base[:idx]
		}
		sanitized := reelSanitizer.ReplaceAllString(strings.ToUpper(base), "")
		if len(sanitized) > 8 {
			sanitized = sanitized[:8]
		}
		return sanitized
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
