package commands

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/findit-app/findit/internal/filter"
	"github.com/findit-app/findit/internal/models"
)

var clipIDFlag string

func parseClipID() (uuid.UUID, bool) {
	id, err := uuid.Parse(clipIDFlag)
	if err != nil {
		emitError("invalid --clip-id: " + err.Error())
		return uuid.Nil, false
	}
	return id, true
}

var getClipCmd = &cobra.Command{
	Use:   "get-clip",
	Short: "Fetch a single clip by id",
	Run: func(cmd *cobra.Command, args []string) {
		id, ok := parseClipID()
		if !ok {
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
		clip, err := fdb.GetClipByID(id)
		if err != nil {
			emitErr("get clip", err)
			return
		}
		if clip == nil {
			emitError("clip not found: " + clipIDFlag)
			return
		}
		emit(clip)
	},
}

var ratingFlag int

var setRatingCmd = &cobra.Command{
	Use:   "set-rating",
	Short: "Set a clip's 0..5 star rating",
	Run: func(cmd *cobra.Command, args []string) {
		if ratingFlag < 0 || ratingFlag > 5 {
			emitError("rating must be between 0 and 5")
			return
		}
		id, ok := parseClipID()
		if !ok {
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
		if err := fdb.SetRating(id, ratingFlag); err != nil {
			emitErr("set rating", err)
			return
		}
		emit(map[string]interface{}{"clip_id": clipIDFlag, "rating": ratingFlag})
	},
}

var validColorLabels = map[string]models.ColorLabel{
	"none": models.ColorNone, "red": models.ColorRed, "orange": models.ColorOrange,
	"yellow": models.ColorYellow, "green": models.ColorGreen, "blue": models.ColorBlue,
	"purple": models.ColorPurple, "gray": models.ColorGray,
}

var colorFlag string

var setColorLabelCmd = &cobra.Command{
	Use:   "set-color-label",
	Short: "Set a clip's Finder-style color label",
	Run: func(cmd *cobra.Command, args []string) {
		label, ok := validColorLabels[strings.ToLower(colorFlag)]
		if !ok {
			emitError("unknown color label: " + colorFlag)
			return
		}
		id, ok := parseClipID()
		if !ok {
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
		if err := fdb.SetColorLabel(id, label); err != nil {
			emitErr("set color label", err)
			return
		}
		emit(map[string]interface{}{"clip_id": clipIDFlag, "color_label": string(label)})
	},
}

var tagsFlag string

func splitTags() []string {
	var out []string
	for _, t := range strings.Split(tagsFlag, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

var addTagsCmd = &cobra.Command{
	Use:   "add-tags",
	Short: "Add comma-separated tags to a clip",
	Run: func(cmd *cobra.Command, args []string) {
		tags := splitTags()
		if len(tags) == 0 {
			emitError("no tags supplied")
			return
		}
		id, ok := parseClipID()
		if !ok {
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
		if err := fdb.AddTags(id, tags); err != nil {
			emitErr("add tags", err)
			return
		}
		emit(map[string]interface{}{"clip_id": clipIDFlag, "added": tags})
	},
}

var removeTagsCmd = &cobra.Command{
	Use:   "remove-tags",
	Short: "Remove comma-separated tags from a clip",
	Run: func(cmd *cobra.Command, args []string) {
		tags := splitTags()
		if len(tags) == 0 {
			emitError("no tags supplied")
			return
		}
		id, ok := parseClipID()
		if !ok {
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
		if err := fdb.RemoveTags(id, tags); err != nil {
			emitErr("remove tags", err)
			return
		}
		emit(map[string]interface{}{"clip_id": clipIDFlag, "removed": tags})
	},
}

var (
	browseMinRatingFlag int
	browseColorFlag     string
	browseShotTypeFlag  string
	browseMoodFlag      string
	browseSortFlag      string
	browseOffsetFlag    int
	browseLimitFlag     int
)

// browseAllClipsCmd lists every clip mirrored from a folder, filtered and
// sorted like search but without any text/vector relevance component —
// per spec.md §6, a plain browse/facet-filter entry point distinct from
// the ranked "search" tool.
var browseAllClipsCmd = &cobra.Command{
	Use:   "browse-all-clips",
	Short: "List and filter every clip in a folder without a search query",
	Run: func(cmd *cobra.Command, args []string) {
		ac, err := newAppContext()
		if err != nil {
			emitErr("open app context", err)
			return
		}
		defer ac.Close()

		pred := filter.Predicate{MinRating: browseMinRatingFlag}
		if browseColorFlag != "" {
			pred.ColorLabel = map[models.ColorLabel]bool{models.ColorLabel(strings.ToLower(browseColorFlag)): true}
		}
		if browseShotTypeFlag != "" {
			pred.ShotType = map[string]bool{browseShotTypeFlag: true}
		}
		if browseMoodFlag != "" {
			pred.Mood = map[string]bool{browseMoodFlag: true}
		}

		sortField := filter.SortField(browseSortFlag)
		if sortField == "" {
			sortField = filter.SortDate
		}

		rows, err := ac.GlobalDB.ListClips([]string{rootFlag})
		if err != nil {
			emitErr("list clips", err)
			return
		}

		filterable := make([]filter.Result, len(rows))
		for i, r := range rows {
			filterable[i] = filter.Result{
				ClipID:     r.SourceFolder + "\x00" + r.SourceClipID,
				Rating:     r.Rating,
				ColorLabel: models.ColorLabel(r.ColorLabel),
				ShotType:   r.ShotType,
				Mood:       r.Mood,
				CreatedAt:  r.UpdatedAt.Unix(),
				Duration:   r.EndTime - r.StartTime,
			}
		}
		byKey := make(map[string]interface{}, len(rows))
		for i, r := range rows {
			byKey[filterable[i].ClipID] = r
		}

		filtered := filter.Apply(filterable, pred, sortField, browseOffsetFlag, browseLimitFlag)
		out := make([]interface{}, len(filtered))
		for i, f := range filtered {
			out[i] = byKey[f.ClipID]
		}
		emit(out)
	},
}

func init() {
	addRootFlag(getClipCmd)
	getClipCmd.Flags().StringVar(&clipIDFlag, "clip-id", "", "clip id (required)")
	getClipCmd.MarkFlagRequired("clip-id")

	addRootFlag(setRatingCmd)
	setRatingCmd.Flags().StringVar(&clipIDFlag, "clip-id", "", "clip id (required)")
	setRatingCmd.Flags().IntVar(&ratingFlag, "rating", 0, "0..5 star rating")
	setRatingCmd.MarkFlagRequired("clip-id")

	addRootFlag(setColorLabelCmd)
	setColorLabelCmd.Flags().StringVar(&clipIDFlag, "clip-id", "", "clip id (required)")
	setColorLabelCmd.Flags().StringVar(&colorFlag, "color", "none", "none|red|orange|yellow|green|blue|purple|gray")
	setColorLabelCmd.MarkFlagRequired("clip-id")

	addRootFlag(addTagsCmd)
	addTagsCmd.Flags().StringVar(&clipIDFlag, "clip-id", "", "clip id (required)")
	addTagsCmd.Flags().StringVar(&tagsFlag, "tags", "", "comma-separated tags")
	addTagsCmd.MarkFlagRequired("clip-id")

	addRootFlag(removeTagsCmd)
	removeTagsCmd.Flags().StringVar(&clipIDFlag, "clip-id", "", "clip id (required)")
	removeTagsCmd.Flags().StringVar(&tagsFlag, "tags", "", "comma-separated tags")
	removeTagsCmd.MarkFlagRequired("clip-id")

	addRootFlag(browseAllClipsCmd)
	browseAllClipsCmd.Flags().IntVar(&browseMinRatingFlag, "min-rating", 0, "minimum rating")
	browseAllClipsCmd.Flags().StringVar(&browseColorFlag, "color", "", "filter by color label")
	browseAllClipsCmd.Flags().StringVar(&browseShotTypeFlag, "shot-type", "", "filter by shot type")
	browseAllClipsCmd.Flags().StringVar(&browseMoodFlag, "mood", "", "filter by mood")
	browseAllClipsCmd.Flags().StringVar(&browseSortFlag, "sort", string(filter.SortDate), "relevance|date|duration|rating")
	browseAllClipsCmd.Flags().IntVar(&browseOffsetFlag, "offset", 0, "pagination offset")
	browseAllClipsCmd.Flags().IntVar(&browseLimitFlag, "limit", 50, "page size")
}
