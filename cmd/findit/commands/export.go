package commands

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/findit-app/findit/internal/edl"
	"github.com/findit-app/findit/internal/fcpxml"
)

var (
	exportOutputFlag      string
	exportProjectNameFlag string
	exportTitleFlag       string
	exportReelPolicyFlag  string
	exportFixedReelFlag   string
)

var exportFCPXMLCmd = &cobra.Command{
	Use:   "export-fcpxml",
	Short: "Export a video's clips as an FCPXML 1.11 timeline",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := uuid.Parse(videoIDFlag)
		if err != nil {
			emitError("invalid --video-id: " + err.Error())
			return
		}
		ac, err := newAppContext()
		if err != nil {
			emitErr("open app context", err)
			return
		}
		defer ac.Close()

		fdb, err := ac.FolderDB(rootFlag)
		if err != nil {
			emitErr("open folder db", err)
			return
		}
		video, err := fdb.GetVideoByID(id)
		if err != nil {
			emitErr("get video", err)
			return
		}
		if video == nil {
			emitError("video not found: " + videoIDFlag)
			return
		}
		clips, err := fdb.ListClipsByVideo(id)
		if err != nil {
			emitErr("list clips", err)
			return
		}
		if len(clips) == 0 {
			emitError("video has no clips to export")
			return
		}

		assetPath := filepath.Join(rootFlag, video.Path)
		sourceClips := make([]fcpxml.SourceClip, len(clips))
		for i, c := range clips {
			sourceClips[i] = fcpxml.SourceClip{
				AssetPath: assetPath,
				Name:      video.Filename,
				FPS:       video.FPS,
				StartTime: c.StartTime,
				EndTime:   c.EndTime,
			}
		}

		projectName := exportProjectNameFlag
		if projectName == "" {
			projectName = video.Filename
		}
		doc := fcpxml.Build(projectName, sourceClips)
		out, err := fcpxml.Marshal(doc)
		if err != nil {
			emitErr("marshal fcpxml", err)
			return
		}

		output := exportOutputFlag
		if output == "" {
			output = projectName + ".fcpxml"
		}
		if err := os.WriteFile(output, out, 0o644); err != nil {
			emitErr("write fcpxml", err)
			return
		}
		emit(map[string]interface{}{"path": output, "clip_count": len(clips)})
	},
}

var exportEDLCmd = &cobra.Command{
	Use:   "export-edl",
	Short: "Export a video's clips as a CMX 3600 EDL",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := uuid.Parse(videoIDFlag)
		if err != nil {
			emitError("invalid --video-id: " + err.Error())
			return
		}

		var policy edl.ReelPolicy
		switch exportReelPolicyFlag {
		case "", "first8":
			policy = edl.ReelFirst8OfFilename
		case "sequential":
			policy = edl.ReelSequential
		case "fixed":
			policy = edl.ReelFixed
			if exportFixedReelFlag == "" {
				emitError("--fixed-reel is required when --reel-policy=fixed")
				return
			}
		default:
			emitError("invalid --reel-policy: " + exportReelPolicyFlag)
			return
		}

		ac, err := newAppContext()
		if err != nil {
			emitErr("open app context", err)
			return
		}
		defer ac.Close()

		fdb, err := ac.FolderDB(rootFlag)
		if err != nil {
			emitErr("open folder db", err)
			return
		}
		video, err := fdb.GetVideoByID(id)
		if err != nil {
			emitErr("get video", err)
			return
		}
		if video == nil {
			emitError("video not found: " + videoIDFlag)
			return
		}
		clips, err := fdb.ListClipsByVideo(id)
		if err != nil {
			emitErr("list clips", err)
			return
		}
		if len(clips) == 0 {
			emitError("video has no clips to export")
			return
		}

		dropFrame := roughlyDropEligible(video.FPS)
		edlClips := make([]edl.Clip, len(clips))
		for i, c := range clips {
			edlClips[i] = edl.Clip{
				SourceFilename: video.Filename,
				ClipName:       video.Filename,
				FPS:            video.FPS,
				DropFrame:      dropFrame,
				SourceIn:       c.StartTime,
				SourceOut:      c.EndTime,
				Comment:        c.Transcript,
			}
		}

		title := exportTitleFlag
		if title == "" {
			title = video.Filename
		}
		text := edl.Build(edl.Options{Title: title, ReelPolicy: policy, FixedReel: exportFixedReelFlag}, edlClips)

		output := exportOutputFlag
		if output == "" {
			output = title + ".edl"
		}
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			emitErr("write edl", err)
			return
		}
		emit(map[string]interface{}{"path": output, "clip_count": len(clips)})
	},
}

// roughlyDropEligible mirrors timecode's own eligibility rule (29.97/59.94
// only) so the EDL header's FCM line matches what timecode.FromSeconds
// will actually render for each event.
func roughlyDropEligible(fps float64) bool {
	const eps = 0.005
	return absf(fps-29.97) < eps || absf(fps-59.94) < eps
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func init() {
	addRootFlag(exportFCPXMLCmd)
	exportFCPXMLCmd.Flags().StringVar(&videoIDFlag, "video-id", "", "video id (required)")
	exportFCPXMLCmd.MarkFlagRequired("video-id")
	exportFCPXMLCmd.Flags().StringVar(&exportOutputFlag, "output", "", "output file path")
	exportFCPXMLCmd.Flags().StringVar(&exportProjectNameFlag, "project-name", "", "FCPXML project/event name")

	addRootFlag(exportEDLCmd)
	exportEDLCmd.Flags().StringVar(&videoIDFlag, "video-id", "", "video id (required)")
	exportEDLCmd.MarkFlagRequired("video-id")
	exportEDLCmd.Flags().StringVar(&exportOutputFlag, "output", "", "output file path")
	exportEDLCmd.Flags().StringVar(&exportTitleFlag, "title", "", "EDL TITLE header")
	exportEDLCmd.Flags().StringVar(&exportReelPolicyFlag, "reel-policy", "first8", "first8|sequential|fixed")
	exportEDLCmd.Flags().StringVar(&exportFixedReelFlag, "fixed-reel", "", "reel name when --reel-policy=fixed")
}
