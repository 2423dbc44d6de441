package globaldb

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "global.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndGetClip(t *testing.T) {
	db := openTestDB(t)
	row := ClipRow{
		SourceFolder: "/media/a",
		SourceClipID: "clip-1",
		VideoID:      uuid.New(),
		VideoPath:    "raw/a.mov",
		StartTime:    0,
		EndTime:      5,
		Description:  "a dog running in a park",
		Subjects:     []string{"dog", "park"},
		Tags:         []string{"outdoor", "daytime"},
		ColorLabel:   "green",
		Rating:       3,
	}
	if err := db.Upsert(row); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetClip("/media/a", "clip-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected row, got nil")
	}
	if got.Description != row.Description {
		t.Errorf("description = %q, want %q", got.Description, row.Description)
	}
	if len(got.Subjects) != 2 {
		t.Errorf("subjects = %v", got.Subjects)
	}
}

func TestUpsertIsIdempotentAndUpdatesFTS(t *testing.T) {
	db := openTestDB(t)
	row := ClipRow{SourceFolder: "f", SourceClipID: "c1", VideoID: uuid.New(), Description: "a red car"}
	if err := db.Upsert(row); err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	row.Description = "a blue truck"
	if err := db.Upsert(row); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}

	hits, err := db.SearchFTS("blue", nil, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit for updated text, got %d", len(hits))
	}

	hits, err = db.SearchFTS("red", nil, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("stale FTS row still matches old text: %v", hits)
	}
}

func TestSearchFTSScopedToFolder(t *testing.T) {
	db := openTestDB(t)
	db.Upsert(ClipRow{SourceFolder: "f1", SourceClipID: "c1", VideoID: uuid.New(), Description: "sunset over the ocean"})
	db.Upsert(ClipRow{SourceFolder: "f2", SourceClipID: "c2", VideoID: uuid.New(), Description: "sunset over the mountains"})

	hits, err := db.SearchFTS("sunset", []string{"f1"}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].SourceFolder != "f1" {
		t.Errorf("expected 1 hit scoped to f1, got %+v", hits)
	}
}

func TestDeleteBySource(t *testing.T) {
	db := openTestDB(t)
	db.Upsert(ClipRow{SourceFolder: "f", SourceClipID: "c1", VideoID: uuid.New(), Description: "a cat sleeping"})
	if err := db.DeleteBySource("f", "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := db.GetClip("f", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
	hits, _ := db.SearchFTS("cat", nil, 10)
	if len(hits) != 0 {
		t.Errorf("expected fts row removed, got %v", hits)
	}
}

func TestFacetCounts(t *testing.T) {
	db := openTestDB(t)
	db.Upsert(ClipRow{SourceFolder: "f", SourceClipID: "c1", VideoID: uuid.New(), ShotType: "wide"})
	db.Upsert(ClipRow{SourceFolder: "f", SourceClipID: "c2", VideoID: uuid.New(), ShotType: "wide"})
	db.Upsert(ClipRow{SourceFolder: "f", SourceClipID: "c3", VideoID: uuid.New(), ShotType: "closeup"})

	facets, err := db.Facet("shot_type", nil, 20)
	if err != nil {
		t.Fatalf("facet: %v", err)
	}
	if len(facets) != 2 {
		t.Fatalf("expected 2 facet values, got %d: %+v", len(facets), facets)
	}
	if facets[0].Value != "wide" || facets[0].Count != 2 {
		t.Errorf("expected wide:2 first, got %+v", facets[0])
	}
}

func TestFacetRejectsUnknownColumn(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Facet("video_path", nil, 20); err == nil {
		t.Error("expected error for non-facet column")
	}
}

func TestGetClipByVectorKey(t *testing.T) {
	db := openTestDB(t)
	row := ClipRow{SourceFolder: "f", SourceClipID: "c1", VideoID: uuid.New(), Description: "a kite in the sky", VectorKey: 42}
	if err := db.Upsert(row); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetClipByVectorKey(42)
	if err != nil {
		t.Fatalf("get by vector key: %v", err)
	}
	if got == nil || got.SourceClipID != "c1" {
		t.Fatalf("expected to resolve clip c1, got %+v", got)
	}

	miss, err := db.GetClipByVectorKey(999)
	if err != nil {
		t.Fatalf("get by vector key (miss): %v", err)
	}
	if miss != nil {
		t.Errorf("expected nil for unknown vector key, got %+v", miss)
	}
}
