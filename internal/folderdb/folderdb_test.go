package folderdb

import (
	"os"
	"testing"

	"github.com/findit-app/findit/internal/models"
	"github.com/google/uuid"
)

func TestOpenCreatesIndexDir(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if info, err := os.Stat(IndexDir(root)); err != nil || !info.IsDir() {
		t.Fatalf("index dir %s not created: %v", IndexDir(root), err)
	}

	var version int
	if err := db.conn.QueryRow(`SELECT version FROM schema_meta`).Scan(&version); err != nil {
		t.Fatalf("schema_meta: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("version = %d, want %d", version, schemaVersion)
	}
}

func TestUpsertVideoRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	folder := &models.Folder{Path: "/media/clips"}
	if err := db.UpsertFolder(folder); err != nil {
		t.Fatalf("upsert folder: %v", err)
	}

	v := &models.Video{
		FolderID:    folder.ID,
		Path:        "raw/a.mov",
		Filename:    "a.mov",
		MediaType:   models.MediaTypeVideo,
		IndexStatus: models.StatusPending,
		IndexLayer:  models.LayerNone,
	}
	if err := db.UpsertVideo(v); err != nil {
		t.Fatalf("upsert video: %v", err)
	}

	got, err := db.GetVideoByPath(folder.ID, "raw/a.mov")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if got == nil {
		t.Fatal("expected video, got nil")
	}
	if got.IndexLayer != models.LayerNone {
		t.Errorf("index layer = %d, want LayerNone", got.IndexLayer)
	}
	if got.IndexStatus != models.StatusPending {
		t.Errorf("status = %s, want pending", got.IndexStatus)
	}

	if err := db.SetLayerComplete(got.ID, models.LayerMetadata, models.StatusMetadataDone); err != nil {
		t.Fatalf("set layer complete: %v", err)
	}
	got2, err := db.GetVideoByPath(folder.ID, "raw/a.mov")
	if err != nil {
		t.Fatalf("get video again: %v", err)
	}
	if got2.IndexLayer != models.LayerMetadata {
		t.Errorf("index layer = %d, want LayerMetadata", got2.IndexLayer)
	}
	if got2.IndexStatus != models.StatusMetadataDone {
		t.Errorf("status = %s, want metadata_done", got2.IndexStatus)
	}
}

func TestBackfillIndexLayerFromLegacyStatus(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	folderID := uuid.New()
	videoID := uuid.New()
	_, err = db.conn.Exec(`
		INSERT INTO watched_folders (id, path, is_bookmark, created_at, updated_at)
		VALUES (?, ?, 0, datetime('now'), datetime('now'))`, folderID.String(), "/media")
	if err != nil {
		t.Fatalf("insert folder: %v", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO videos (id, folder_id, path, filename, media_type, index_status, index_layer,
			created_at, updated_at)
		VALUES (?, ?, 'b.mov', 'b.mov', 'video', 'vectors_done', -1, datetime('now'), datetime('now'))`,
		videoID.String(), folderID.String())
	if err != nil {
		t.Fatalf("insert legacy video: %v", err)
	}

	if err := db.backfillIndexLayer(); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	got, err := db.GetVideoByPath(folderID, "b.mov")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if got.IndexLayer != models.LayerClipVector {
		t.Errorf("backfilled layer = %d, want LayerClipVector", got.IndexLayer)
	}
}

func TestDecodeTagListHandlesJSONAndWhitespace(t *testing.T) {
	if got := decodeTagList(`["a","b c","d"]`); len(got) != 3 || got[1] != "b c" {
		t.Errorf("json form: got %v", got)
	}
	if got := decodeTagList("a b  c"); len(got) != 3 {
		t.Errorf("whitespace form: got %v", got)
	}
	if got := decodeTagList(""); got != nil {
		t.Errorf("empty: got %v, want nil", got)
	}
}

func TestUpsertClipRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	folder := &models.Folder{Path: "/media"}
	if err := db.UpsertFolder(folder); err != nil {
		t.Fatalf("upsert folder: %v", err)
	}
	video := &models.Video{FolderID: folder.ID, Path: "a.mov", Filename: "a.mov", MediaType: models.MediaTypeVideo}
	if err := db.UpsertVideo(video); err != nil {
		t.Fatalf("upsert video: %v", err)
	}

	embedding := make([]float32, 8)
	for i := range embedding {
		embedding[i] = float32(i) * 0.5
	}
	clip := &models.Clip{
		VideoID:       video.ID,
		StartTime:     1.5,
		EndTime:       4.0,
		Description:   "a dog runs",
		Subjects:      []string{"dog"},
		Actions:       []string{"running"},
		Rating:        4,
		ColorLabel:    models.ColorGreen,
		ClipEmbedding: embedding,
	}
	if err := db.UpsertClip(clip); err != nil {
		t.Fatalf("upsert clip: %v", err)
	}

	clips, err := db.ListClipsByVideo(video.ID)
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(clips))
	}
	got := clips[0]
	if got.Rating != 4 || got.ColorLabel != models.ColorGreen {
		t.Errorf("labels not preserved: rating=%d color=%s", got.Rating, got.ColorLabel)
	}
	if len(got.Subjects) != 1 || got.Subjects[0] != "dog" {
		t.Errorf("subjects not preserved: %v", got.Subjects)
	}
	if len(got.ClipEmbedding) != len(embedding) {
		t.Fatalf("embedding length = %d, want %d", len(got.ClipEmbedding), len(embedding))
	}
	for i := range embedding {
		if got.ClipEmbedding[i] != embedding[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got.ClipEmbedding[i], embedding[i])
		}
	}
}

func TestUpsertClipDefaultsColorLabel(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	folder := &models.Folder{Path: "/media"}
	db.UpsertFolder(folder)
	video := &models.Video{FolderID: folder.ID, Path: "a.mov", Filename: "a.mov", MediaType: models.MediaTypeVideo}
	db.UpsertVideo(video)

	clip := &models.Clip{VideoID: video.ID, StartTime: 0, EndTime: 1}
	if err := db.UpsertClip(clip); err != nil {
		t.Fatalf("upsert clip: %v", err)
	}
	clips, err := db.ListClipsByVideo(video.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if clips[0].ColorLabel != models.ColorNone {
		t.Errorf("color label = %s, want none", clips[0].ColorLabel)
	}
}

func TestSetRatingColorLabelAndTags(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	folder := &models.Folder{Path: "/media"}
	db.UpsertFolder(folder)
	video := &models.Video{FolderID: folder.ID, Path: "a.mov", Filename: "a.mov", MediaType: models.MediaTypeVideo}
	db.UpsertVideo(video)
	clip := &models.Clip{VideoID: video.ID, StartTime: 0, EndTime: 1}
	if err := db.UpsertClip(clip); err != nil {
		t.Fatalf("upsert clip: %v", err)
	}

	if err := db.SetRating(clip.ID, 5); err != nil {
		t.Fatalf("set rating: %v", err)
	}
	if err := db.SetColorLabel(clip.ID, models.ColorRed); err != nil {
		t.Fatalf("set color label: %v", err)
	}
	if err := db.AddTags(clip.ID, []string{"favorite", "sunset"}); err != nil {
		t.Fatalf("add tags: %v", err)
	}

	got, err := db.GetClipByID(clip.ID)
	if err != nil {
		t.Fatalf("get clip: %v", err)
	}
	if got.Rating != 5 {
		t.Errorf("rating = %d, want 5", got.Rating)
	}
	if got.ColorLabel != models.ColorRed {
		t.Errorf("color = %s, want red", got.ColorLabel)
	}
	if len(got.UserTags) != 2 {
		t.Fatalf("expected 2 user tags, got %v", got.UserTags)
	}

	if err := db.RemoveTags(clip.ID, []string{"sunset"}); err != nil {
		t.Fatalf("remove tags: %v", err)
	}
	got2, err := db.GetClipByID(clip.ID)
	if err != nil {
		t.Fatalf("get clip again: %v", err)
	}
	if len(got2.UserTags) != 1 || got2.UserTags[0] != "favorite" {
		t.Errorf("tags after removal = %v, want [favorite]", got2.UserTags)
	}
}

func TestListFoldersAndVideos(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	folder := &models.Folder{Path: "/media/clips"}
	if err := db.UpsertFolder(folder); err != nil {
		t.Fatalf("upsert folder: %v", err)
	}
	v := &models.Video{FolderID: folder.ID, Path: "a.mov", Filename: "a.mov", MediaType: models.MediaTypeVideo, FPS: 29.97}
	if err := db.UpsertVideo(v); err != nil {
		t.Fatalf("upsert video: %v", err)
	}

	folders, err := db.ListFolders()
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 1 || folders[0].Path != "/media/clips" {
		t.Fatalf("expected one folder, got %+v", folders)
	}

	videos, err := db.ListVideos(folder.ID)
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(videos) != 1 || videos[0].FPS != 29.97 {
		t.Fatalf("expected fps to round-trip, got %+v", videos)
	}

	got, err := db.GetVideoByID(v.ID)
	if err != nil {
		t.Fatalf("get video by id: %v", err)
	}
	if got == nil || got.Path != "a.mov" {
		t.Fatalf("expected to resolve video by id, got %+v", got)
	}
}

func TestStats(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	folder := &models.Folder{Path: "/media"}
	db.UpsertFolder(folder)
	v1 := &models.Video{FolderID: folder.ID, Path: "a.mov", Filename: "a.mov", MediaType: models.MediaTypeVideo, IndexStatus: models.StatusCompleted}
	v2 := &models.Video{FolderID: folder.ID, Path: "b.mov", Filename: "b.mov", MediaType: models.MediaTypeVideo, IndexStatus: models.StatusFailed}
	db.UpsertVideo(v1)
	db.UpsertVideo(v2)
	db.UpsertClip(&models.Clip{VideoID: v1.ID, StartTime: 0, EndTime: 1})
	db.UpsertClip(&models.Clip{VideoID: v1.ID, StartTime: 1, EndTime: 2})

	stats, err := db.Stats(folder.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.VideoCount != 2 {
		t.Errorf("video count = %d, want 2", stats.VideoCount)
	}
	if stats.ClipCount != 2 {
		t.Errorf("clip count = %d, want 2", stats.ClipCount)
	}
	if stats.CompletedCount != 1 {
		t.Errorf("completed count = %d, want 1", stats.CompletedCount)
	}
	if stats.FailedCount != 1 {
		t.Errorf("failed count = %d, want 1", stats.FailedCount)
	}
}
