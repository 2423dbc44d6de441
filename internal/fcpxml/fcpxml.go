// Package fcpxml generates FCPXML 1.11 documents via encoding/xml struct
// marshaling — no string templating — grounded directly on
// andrewarrow-fcpxml-cutlass's fcp/types.go struct-per-element convention.
// It is a pure serializer over clip data the indexing core already
// produces, decoupled from the rest of the module (spec.md §1, §6).
package fcpxml

import (
	"encoding/xml"
	"fmt"
	"math"
)

// Document is the root <fcpxml> element.
type Document struct {
	XMLName   xml.Name  `xml:"fcpxml"`
	Version   string    `xml:"version,attr"`
	Resources Resources `xml:"resources"`
	Library   Library   `xml:"library"`
}

type Resources struct {
	Formats []Format `xml:"format"`
	Assets  []Asset  `xml:"asset"`
}

type Format struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr,omitempty"`
	FrameDuration string `xml:"frameDuration,attr,omitempty"`
	Width         string `xml:"width,attr,omitempty"`
	Height        string `xml:"height,attr,omitempty"`
}

type MediaRep struct {
	Kind string `xml:"kind,attr"`
	Src  string `xml:"src,attr"`
}

type Asset struct {
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr"`
	Start    string   `xml:"start,attr"`
	Duration string   `xml:"duration,attr"`
	Format   string   `xml:"format,attr"`
	HasVideo string   `xml:"hasVideo,attr,omitempty"`
	MediaRep MediaRep `xml:"media-rep"`
}

type Library struct {
	Events []Event `xml:"event"`
}

type Event struct {
	Name     string    `xml:"name,attr"`
	Projects []Project `xml:"project"`
}

type Project struct {
	Name      string     `xml:"name,attr"`
	Sequences []Sequence `xml:"sequence"`
}

type Sequence struct {
	Format   string `xml:"format,attr"`
	Duration string `xml:"duration,attr"`
	TCStart  string `xml:"tcStart,attr"`
	TCFormat string `xml:"tcFormat,attr"`
	Spine    Spine  `xml:"spine"`
}

type Spine struct {
	AssetClips []AssetClip `xml:"asset-clip,omitempty"`
}

type AssetClip struct {
	Ref      string `xml:"ref,attr"`
	Offset   string `xml:"offset,attr"`
	Name     string `xml:"name,attr"`
	Start    string `xml:"start,attr,omitempty"`
	Duration string `xml:"duration,attr"`
	Format   string `xml:"format,attr,omitempty"`
}

// SourceClip is one input clip to export: the originating asset's path and
// probed fps, plus the clip's own in/out points within that asset.
type SourceClip struct {
	AssetPath string
	Name      string
	FPS       float64 // 0 means unprobed; falls back to sequence format r1
	StartTime float64 // seconds within the asset
	EndTime   float64 // seconds within the asset
}

// Build assembles a Document from an ordered list of timeline clips,
// grouping clips that share an asset path under one <asset>/<format> pair
// and accumulating event-clip offsets in timeline order, per spec.md §6.
func Build(projectName string, clips []SourceClip) *Document {
	doc := &Document{Version: "1.11"}

	type assetInfo struct {
		id       string
		formatID string
		maxEnd   float64
	}
	byPath := make(map[string]*assetInfo)
	byID := make(map[string]*assetInfo)
	formatByFPS := make(map[float64]string)

	nextResourceID := 1
	allocID := func() string {
		id := fmt.Sprintf("r%d", nextResourceID)
		nextResourceID++
		return id
	}

	// r1 is reserved for the sequence's own fallback format, used by any
	// clip whose source asset could not be probed.
	sequenceFormatID := allocID()
	doc.Resources.Formats = append(doc.Resources.Formats, Format{ID: sequenceFormatID, Name: "FFVideoFormat"})

	for _, c := range clips {
		info, ok := byPath[c.AssetPath]
		if !ok {
			formatID := sequenceFormatID
			if c.FPS > 0 {
				fid, ok := formatByFPS[c.FPS]
				if !ok {
					fid = allocID()
					doc.Resources.Formats = append(doc.Resources.Formats, Format{
						ID:            fid,
						Name:          fmt.Sprintf("FFVideoFormat%gp", c.FPS),
						FrameDuration: frameDuration(c.FPS),
					})
					formatByFPS[c.FPS] = fid
				}
				formatID = fid
			}
			assetID := allocID()
			info = &assetInfo{id: assetID, formatID: formatID}
			byPath[c.AssetPath] = info
			byID[assetID] = info
			doc.Resources.Assets = append(doc.Resources.Assets, Asset{
				ID:       assetID,
				Name:     c.Name,
				Start:    "0s",
				Format:   formatID,
				HasVideo: "1",
				MediaRep: MediaRep{Kind: "original-media", Src: "file://" + escapeXMLAttr(c.AssetPath)},
			})
		}
		if c.EndTime > info.maxEnd {
			info.maxEnd = c.EndTime
		}
	}

	for i := range doc.Resources.Assets {
		info := byID[doc.Resources.Assets[i].ID]
		doc.Resources.Assets[i].Duration = rationalSeconds(info.maxEnd, assetFrameRate(doc, info.formatID))
	}

	// Spine offsets and durations are expressed in the sequence's own
	// format tick (the timeline's common unit), while each clip's Start
	// trim point is expressed in its source asset's native tick — matching
	// spec.md §8 scenario 6, where a 5s 24fps clip followed by a 3s 29.97
	// clip yields the second clip's offset as "12000/2400s" (5s at the
	// sequence's 2400 tick), not at the second source's own 30000 tick.
	sequenceFPS := assetFrameRate(doc, sequenceFormatID)

	var spine Spine
	var offset float64
	var totalDuration float64
	for _, c := range clips {
		info := byPath[c.AssetPath]
		sourceFPS := assetFrameRate(doc, info.formatID)
		dur := c.EndTime - c.StartTime
		spine.AssetClips = append(spine.AssetClips, AssetClip{
			Ref:      info.id,
			Offset:   rationalSeconds(offset, sequenceFPS),
			Name:     c.Name,
			Start:    rationalSeconds(c.StartTime, sourceFPS),
			Duration: rationalSeconds(dur, sequenceFPS),
		})
		offset += dur
		totalDuration = offset
	}

	doc.Library.Events = []Event{{
		Name: projectName,
		Projects: []Project{{
			Name: projectName,
			Sequences: []Sequence{{
				Format:   sequenceFormatID,
				Duration: rationalSeconds(totalDuration, 0),
				TCStart:  "0s",
				TCFormat: "NDF",
				Spine:    spine,
			}},
		}},
	}}

	return doc
}

func assetFrameRate(doc *Document, formatID string) float64 {
	for _, f := range doc.Resources.Formats {
		if f.ID == formatID && f.FrameDuration != "" {
			return fpsFromFrameDuration(f.FrameDuration)
		}
	}
	return 0
}

// frameDuration renders fps in Apple's rational convention per spec.md §6.
func frameDuration(fps float64) string {
	switch {
	case roughly(fps, 24):
		return "100/2400s"
	case roughly(fps, 29.97):
		return "1001/30000s"
	case roughly(fps, 23.976):
		return "1001/24000s"
	case roughly(fps, 59.94):
		return "1001/60000s"
	default:
		// Generic rational: fps as a 1-second-denominator fraction scaled
		// to whole numbers via a fixed 100-unit frame tick.
		return fmt.Sprintf("100/%ds", int(math.Round(fps*100)))
	}
}

func fpsFromFrameDuration(fd string) float64 {
	switch fd {
	case "100/2400s":
		return 24
	case "1001/30000s":
		return 29.97
	case "1001/24000s":
		return 23.976
	case "1001/60000s":
		return 59.94
	}
	return 0
}

func roughly(a, b float64) bool { return math.Abs(a-b) < 0.01 }

// rationalSeconds renders a second offset/duration as an Apple-rational
// string at the given fps's frame tick; fps=0 falls back to a plain
// "<n>/2400s" tick matching the 24fps-equivalent sequence default.
func rationalSeconds(seconds, fps float64) string {
	tick := 2400.0
	if fps > 0 {
		switch {
		case roughly(fps, 24):
			tick = 2400
		case roughly(fps, 29.97):
			tick = 30000
		case roughly(fps, 23.976):
			tick = 24000
		case roughly(fps, 59.94):
			tick = 60000
		default:
			tick = fps * 100
		}
	}
	num := int64(math.Round(seconds * tick))
	return fmt.Sprintf("%d/%ds", num, int64(tick))
}

// Marshal renders the document as indented XML with attribute values
// escaped per spec.md §6 ("Escape & < > \" ' in all attribute values" —
// handled by encoding/xml itself for every struct field).
func Marshal(doc *Document) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	header := []byte(xml.Header)
	return append(header, out...), nil
}

func escapeXMLAttr(s string) string {
	// encoding/xml escapes attribute values during Marshal; Src is built
	// here only to form a file:// URL, not raw XML, so no escaping needed
	// beyond what Marshal already applies to the whole attribute string.
	return s
}
