package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/findit-app/findit/internal/filter"
	"github.com/findit-app/findit/internal/models"
	"github.com/findit-app/findit/internal/searchengine"
)

var (
	queryFlag      string
	modeFlag       string
	foldersFlag    []string
	sortFlag       string
	offsetFlag     int
	limitFlag      int
	minRatingFlag  int
	colorFilterFlag string
	shotTypeFlag   string
	moodFlag       string
	weightFTSFlag  float64
	weightClipFlag float64
	weightTextFlag float64
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Hybrid FTS + CLIP + text-embedding search over one or more folders",
	Run: func(cmd *cobra.Command, args []string) {
		mode := searchengine.Mode(modeFlag)
		switch mode {
		case searchengine.ModeFTS, searchengine.ModeVector, searchengine.ModeTextVector, searchengine.ModeAuto, "":
		default:
			emitError("invalid --mode: " + modeFlag)
			return
		}
		if mode == "" {
			mode = searchengine.ModeAuto
		}

		sortField := filter.SortField(sortFlag)
		switch sortField {
		case filter.SortRelevance, filter.SortDate, filter.SortDuration, filter.SortRating, "":
		default:
			emitError("invalid --sort: " + sortFlag)
			return
		}

		pred := filter.Predicate{MinRating: minRatingFlag}
		if colorFilterFlag != "" {
			pred.ColorLabel = map[models.ColorLabel]bool{models.ColorLabel(strings.ToLower(colorFilterFlag)): true}
		}
		if shotTypeFlag != "" {
			pred.ShotType = map[string]bool{shotTypeFlag: true}
		}
		if moodFlag != "" {
			pred.Mood = map[string]bool{moodFlag: true}
		}

		weights := searchengine.DefaultWeights
		if weightFTSFlag != 0 || weightClipFlag != 0 || weightTextFlag != 0 {
			weights = searchengine.Weights{FTS: weightFTSFlag, Clip: weightClipFlag, Text: weightTextFlag}
		}

		ac, err := newAppContext()
		if err != nil {
			emitErr("open app context", err)
			return
		}
		defer ac.Close()

		results, err := ac.Search.Search(cmd.Context(), queryFlag, mode, foldersFlag, pred, sortField, offsetFlag, limitFlag, weights)
		if err != nil {
			emitErr("search", err)
			return
		}
		emit(results)
	},
}

func init() {
	searchCmd.Flags().StringVar(&queryFlag, "query", "", "search text (required)")
	searchCmd.MarkFlagRequired("query")
	searchCmd.Flags().StringVar(&modeFlag, "mode", string(searchengine.ModeAuto), "auto|fts|vector|text-vector")
	searchCmd.Flags().StringSliceVar(&foldersFlag, "folder", nil, "restrict to these folder roots (repeatable)")
	searchCmd.Flags().StringVar(&sortFlag, "sort", string(filter.SortRelevance), "relevance|date|duration|rating")
	searchCmd.Flags().IntVar(&offsetFlag, "offset", 0, "pagination offset")
	searchCmd.Flags().IntVar(&limitFlag, "limit", 20, "page size")
	searchCmd.Flags().IntVar(&minRatingFlag, "min-rating", 0, "minimum rating")
	searchCmd.Flags().StringVar(&colorFilterFlag, "color", "", "filter by color label")
	searchCmd.Flags().StringVar(&shotTypeFlag, "shot-type", "", "filter by shot type")
	searchCmd.Flags().StringVar(&moodFlag, "mood", "", "filter by mood")
	searchCmd.Flags().Float64Var(&weightFTSFlag, "weight-fts", 0, "override the FTS fusion weight")
	searchCmd.Flags().Float64Var(&weightClipFlag, "weight-clip", 0, "override the CLIP fusion weight")
	searchCmd.Flags().Float64Var(&weightTextFlag, "weight-text", 0, "override the text-embedding fusion weight")
}
