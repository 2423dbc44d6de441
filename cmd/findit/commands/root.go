package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/findit-app/findit/internal/appctx"
	"github.com/findit-app/findit/internal/config"
)

var dataDirFlag string

var RootCmd = &cobra.Command{
	Use:   "findit",
	Short: "Local media-library indexing and hybrid search",
	Long: `findit indexes a folder of video, photo, and audio files into clips and
makes them searchable by lexical text, CLIP image similarity, and text
embedding similarity, fused into one ranked result set.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "override FINDIT_DATA_DIR")

	RootCmd.AddCommand(listFoldersCmd)
	RootCmd.AddCommand(getLibrarySummaryCmd)
	RootCmd.AddCommand(listVideosCmd)
	RootCmd.AddCommand(getVideoDetailCmd)
	RootCmd.AddCommand(getClipCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(browseAllClipsCmd)
	RootCmd.AddCommand(setRatingCmd)
	RootCmd.AddCommand(setColorLabelCmd)
	RootCmd.AddCommand(addTagsCmd)
	RootCmd.AddCommand(removeTagsCmd)
	RootCmd.AddCommand(getStatsCmd)
	RootCmd.AddCommand(exportFCPXMLCmd)
	RootCmd.AddCommand(exportEDLCmd)
	RootCmd.AddCommand(runWorkerCmd)
}

// newAppContext loads config (applying --data-dir if set) and wires an
// AppContext for the duration of one subcommand invocation.
func newAppContext() (*appctx.AppContext, error) {
	cfg := config.Load()
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	return appctx.New(cfg, "")
}
