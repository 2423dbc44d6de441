package commands

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/findit-app/findit/internal/folderdb"
	"github.com/findit-app/findit/internal/models"
)

var rootFlag string

func addRootFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rootFlag, "root", "", "registered folder root (required)")
	cmd.MarkFlagRequired("root")
}

// resolveFolder returns the watched_folders row matching rootFlag's exact
// path, registering it on first use so a brand-new root is usable
// immediately without a separate "add-folder" step.
func resolveFolder(fdb *folderdb.DB, root string) (*models.Folder, error) {
	folders, err := fdb.ListFolders()
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if f.Path == root {
			return f, nil
		}
	}
	f := &models.Folder{Path: root}
	if err := fdb.UpsertFolder(f); err != nil {
		return nil, err
	}
	return f, nil
}

var listFoldersCmd = &cobra.Command{
	Use:   "list-folders",
	Short: "List folders registered under a root's Folder DB",
	Run: func(cmd *cobra.Command, args []string) {
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
		folders, err := fdb.ListFolders()
		if err != nil {
			emitErr("list folders", err)
			return
		}
		emit(folders)
	},
}

var getLibrarySummaryCmd = &cobra.Command{
	Use:   "get-library-summary",
	Short: "Summarize a folder's indexing progress and facet distribution",
	Run: func(cmd *cobra.Command, args []string) {
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
		folder, err := resolveFolder(fdb, rootFlag)
		if err != nil {
			emitErr("resolve folder", err)
			return
		}
		stats, err := fdb.Stats(folder.ID)
		if err != nil {
			emitErr("compute stats", err)
			return
		}

		scope := []string{rootFlag}
		ratings, _ := ac.GlobalDB.Facet("rating", scope, 0)
		colors, _ := ac.GlobalDB.Facet("color_label", scope, 0)
		shotTypes, _ := ac.GlobalDB.Facet("shot_type", scope, 20)
		moods, _ := ac.GlobalDB.Facet("mood", scope, 20)

		emit(map[string]interface{}{
			"folder":     folder,
			"stats":      stats,
			"rating":     ratings,
			"colorLabel": colors,
			"shotType":   shotTypes,
			"mood":       moods,
		})
	},
}

var getStatsCmd = &cobra.Command{
	Use:   "get-stats",
	Short: "Raw video/clip counts for a folder",
	Run: func(cmd *cobra.Command, args []string) {
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
		folder, err := resolveFolder(fdb, rootFlag)
		if err != nil {
			emitErr("resolve folder", err)
			return
		}
		stats, err := fdb.Stats(folder.ID)
		if err != nil {
			emitErr("compute stats", err)
			return
		}
		emit(stats)
	},
}

var videoIDFlag string

var listVideosCmd = &cobra.Command{
	Use:   "list-videos",
	Short: "List every video registered under a folder root",
	Run: func(cmd *cobra.Command, args []string) {
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
		folder, err := resolveFolder(fdb, rootFlag)
		if err != nil {
			emitErr("resolve folder", err)
			return
		}
		videos, err := fdb.ListVideos(folder.ID)
		if err != nil {
			emitErr("list videos", err)
			return
		}
		emit(videos)
	},
}

var getVideoDetailCmd = &cobra.Command{
	Use:   "get-video-detail",
	Short: "Fetch a video and its clips by video id",
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
		emit(map[string]interface{}{"video": video, "clips": clips})
	},
}

func init() {
	addRootFlag(listFoldersCmd)
	addRootFlag(getLibrarySummaryCmd)
	addRootFlag(getStatsCmd)
	addRootFlag(listVideosCmd)

	addRootFlag(getVideoDetailCmd)
	getVideoDetailCmd.Flags().StringVar(&videoIDFlag, "video-id", "", "video id (required)")
	getVideoDetailCmd.MarkFlagRequired("video-id")
}
