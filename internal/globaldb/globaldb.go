// Package globaldb is the process-wide aggregate query index: a mirror of
// every Folder DB's clip rows plus an FTS5 virtual table, rebuildable from
// the authoritative Folder DBs at any time. Generalizes the teacher's
// internal/db connect/migrate shape to a single local SQLite file rather
// than a shared Postgres server.
package globaldb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// DB is the shared, process-owned global index. Per spec.md §5, writes are
// serialized by the DB itself through a single connection.
type DB struct {
	conn *sql.DB
}

// Open creates (if needed) and migrates the Global DB at the given
// application-support path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("globaldb: mkdir: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("globaldb: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("globaldb: migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clips (
			source_folder TEXT NOT NULL,
			source_clip_id TEXT NOT NULL,
			video_id TEXT NOT NULL,
			video_path TEXT NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			scene TEXT NOT NULL DEFAULT '',
			subjects TEXT NOT NULL DEFAULT '',
			actions TEXT NOT NULL DEFAULT '',
			objects TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			user_tags TEXT NOT NULL DEFAULT '',
			transcript TEXT NOT NULL DEFAULT '',
			color_label TEXT NOT NULL DEFAULT 'none',
			shot_type TEXT NOT NULL DEFAULT '',
			mood TEXT NOT NULL DEFAULT '',
			rating INTEGER NOT NULL DEFAULT 0,
			embedding_model TEXT NOT NULL DEFAULT '',
			vector_key INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (source_folder, source_clip_id)
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS clips_fts USING fts5(
			description, scene, subjects, actions, objects, tags, user_tags,
			transcript, color_label, shot_type, mood,
			content='clips', content_rowid='rowid'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clips_folder ON clips(source_folder)`,
		`CREATE INDEX IF NOT EXISTS idx_clips_vector_key ON clips(vector_key)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s, err)
		}
	}
	return nil
}

// ClipRow is one row as mirrored into the Global DB. Tag-like fields are
// space-separated for FTS indexing here, regardless of how the source
// Folder DB stores them (spec.md §9 Open Question (a): the asymmetry is
// intentional and both forms must be tolerated on read elsewhere).
type ClipRow struct {
	SourceFolder  string
	SourceClipID  string
	VideoID       uuid.UUID
	VideoPath     string
	StartTime     float64
	EndTime       float64
	Description   string
	Scene         string
	Subjects      []string
	Actions       []string
	Objects       []string
	Tags          []string
	UserTags      []string
	Transcript    string
	ColorLabel    string
	ShotType      string
	Mood          string
	Rating        int
	EmbeddingModel string
	VectorKey     int64     // vectorindex.KeyFromUUID(clip.ID); 0 if the clip has no embedding yet
	UpdatedAt     time.Time // set by Upsert; used as the "date" sort proxy since clips carry no creation time of their own
}

// Upsert replaces a clip row and its FTS entry in one transaction, keeping
// indexed text aligned with metadata per spec.md §4.6's sync protocol.
func (db *DB) Upsert(row ClipRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	subjects := strings.Join(row.Subjects, " ")
	actions := strings.Join(row.Actions, " ")
	objects := strings.Join(row.Objects, " ")
	tags := strings.Join(row.Tags, " ")
	userTags := strings.Join(row.UserTags, " ")

	// clips_fts is an external-content table: FTS5 finds the tokens to drop
	// by reading the clips row, so the old FTS entry is deleted while that
	// row still holds the old text, before the upsert below overwrites it.
	var oldRowid int64
	err = tx.QueryRow(`SELECT rowid FROM clips WHERE source_folder = ? AND source_clip_id = ?`,
		row.SourceFolder, row.SourceClipID).Scan(&oldRowid)
	switch {
	case err == nil:
		if _, err := tx.Exec(`DELETE FROM clips_fts WHERE rowid = ?`, oldRowid); err != nil {
			return err
		}
	case err != sql.ErrNoRows:
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO clips (source_folder, source_clip_id, video_id, video_path, start_time,
			end_time, description, scene, subjects, actions, objects, tags, user_tags,
			transcript, color_label, shot_type, mood, rating, embedding_model, vector_key, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(source_folder, source_clip_id) DO UPDATE SET
			video_id=excluded.video_id, video_path=excluded.video_path,
			start_time=excluded.start_time, end_time=excluded.end_time,
			description=excluded.description, scene=excluded.scene, subjects=excluded.subjects,
			actions=excluded.actions, objects=excluded.objects, tags=excluded.tags,
			user_tags=excluded.user_tags, transcript=excluded.transcript,
			color_label=excluded.color_label, shot_type=excluded.shot_type, mood=excluded.mood,
			rating=excluded.rating, embedding_model=excluded.embedding_model,
			vector_key=excluded.vector_key, updated_at=excluded.updated_at`,
		row.SourceFolder, row.SourceClipID, row.VideoID.String(), row.VideoPath, row.StartTime,
		row.EndTime, row.Description, row.Scene, subjects, actions, objects, tags, userTags,
		row.Transcript, row.ColorLabel, row.ShotType, row.Mood, row.Rating, row.EmbeddingModel,
		row.VectorKey, time.Now())
	if err != nil {
		return fmt.Errorf("globaldb: upsert clip row: %w", err)
	}

	var rowid int64
	if err := tx.QueryRow(`SELECT rowid FROM clips WHERE source_folder = ? AND source_clip_id = ?`,
		row.SourceFolder, row.SourceClipID).Scan(&rowid); err != nil {
		return err
	}

	// Reinsert the FTS entry with the new text in the same transaction.
	_, err = tx.Exec(`
		INSERT INTO clips_fts (rowid, description, scene, subjects, actions, objects, tags,
			user_tags, transcript, color_label, shot_type, mood)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		rowid, row.Description, row.Scene, subjects, actions, objects, tags, userTags,
		row.Transcript, row.ColorLabel, row.ShotType, row.Mood)
	if err != nil {
		return fmt.Errorf("globaldb: upsert fts row: %w", err)
	}

	return tx.Commit()
}

// DeleteBySource removes every mirrored row for a (folder, clip) pair —
// used when rebuilding a folder's contribution from scratch.
func (db *DB) DeleteBySource(sourceFolder, sourceClipID string) error {
	var rowid int64
	err := db.conn.QueryRow(`SELECT rowid FROM clips WHERE source_folder = ? AND source_clip_id = ?`,
		sourceFolder, sourceClipID).Scan(&rowid)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM clips_fts WHERE rowid = ?`, rowid); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM clips WHERE rowid = ?`, rowid); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteByFolder removes every row mirrored from sourceFolder, used when a
// folder is unregistered.
func (db *DB) DeleteByFolder(sourceFolder string) error {
	_, err := db.conn.Exec(`DELETE FROM clips_fts WHERE rowid IN (SELECT rowid FROM clips WHERE source_folder = ?)`, sourceFolder)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`DELETE FROM clips WHERE source_folder = ?`, sourceFolder)
	return err
}

// FTSHit is one raw match from the FTS5 MATCH query, before fusion.
type FTSHit struct {
	SourceFolder string
	SourceClipID string
	Rank         float64 // lower is better (bm25-style)
}

// SearchFTS runs ftsQuery against clips_fts, optionally scoped to a set of
// source folders, returning up to limit hits ordered by rank ascending.
func (db *DB) SearchFTS(ftsQuery string, folderScope []string, limit int) ([]FTSHit, error) {
	args := []interface{}{ftsQuery}
	scopeClause := ""
	if len(folderScope) > 0 {
		placeholders := make([]string, len(folderScope))
		for i, f := range folderScope {
			placeholders[i] = "?"
			args = append(args, f)
		}
		scopeClause = " AND c.source_folder IN (" + strings.Join(placeholders, ",") + ")"
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT c.source_folder, c.source_clip_id, bm25(clips_fts) as rank
		FROM clips_fts
		JOIN clips c ON c.rowid = clips_fts.rowid
		WHERE clips_fts MATCH ? %s
		ORDER BY rank LIMIT ?`, scopeClause)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("globaldb: fts query: %w", err)
	}
	defer rows.Close()

	var out []FTSHit
	for rows.Next() {
		var h FTSHit
		if err := rows.Scan(&h.SourceFolder, &h.SourceClipID, &h.Rank); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetClip fetches one mirrored row by (source_folder, source_clip_id).
func (db *DB) GetClip(sourceFolder, sourceClipID string) (*ClipRow, error) {
	return db.queryOneClip(`
		SELECT source_folder, source_clip_id, video_id, video_path, start_time, end_time,
			description, scene, subjects, actions, objects, tags, user_tags, transcript,
			color_label, shot_type, mood, rating, embedding_model, vector_key, updated_at
		FROM clips WHERE source_folder = ? AND source_clip_id = ?`, sourceFolder, sourceClipID)
}

// GetClipByVectorKey resolves an ANN search hit's int64 key back to its
// mirrored clip row, per spec.md §4.2's fusion step 6 ("for each candidate
// clip appearing in any of the three result sets"). Collisions between
// distinct clip UUIDs sharing a low-8-byte key are not resolved; the first
// match wins, which is acceptable given the negligible collision odds
// vectorindex.KeyFromUUID's doc comment notes.
func (db *DB) GetClipByVectorKey(key int64) (*ClipRow, error) {
	return db.queryOneClip(`
		SELECT source_folder, source_clip_id, video_id, video_path, start_time, end_time,
			description, scene, subjects, actions, objects, tags, user_tags, transcript,
			color_label, shot_type, mood, rating, embedding_model, vector_key, updated_at
		FROM clips WHERE vector_key = ? LIMIT 1`, key)
}

// ListClips returns every mirrored clip, optionally scoped to a set of
// source folders, with no ranking applied — the browse-all-clips tool
// applies filter.Apply over this set itself, per spec.md §6.
func (db *DB) ListClips(folderScope []string) ([]ClipRow, error) {
	args := []interface{}{}
	where := ""
	if len(folderScope) > 0 {
		placeholders := make([]string, len(folderScope))
		for i, f := range folderScope {
			placeholders[i] = "?"
			args = append(args, f)
		}
		where = "WHERE source_folder IN (" + strings.Join(placeholders, ",") + ")"
	}
	query := fmt.Sprintf(`
		SELECT source_folder, source_clip_id, video_id, video_path, start_time, end_time,
			description, scene, subjects, actions, objects, tags, user_tags, transcript,
			color_label, shot_type, mood, rating, embedding_model, vector_key, updated_at
		FROM clips %s`, where)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClipRow
	for rows.Next() {
		var c ClipRow
		var videoID, subjects, actions, objects, tags, userTags string
		if err := rows.Scan(&c.SourceFolder, &c.SourceClipID, &videoID, &c.VideoPath, &c.StartTime,
			&c.EndTime, &c.Description, &c.Scene, &subjects, &actions, &objects, &tags, &userTags,
			&c.Transcript, &c.ColorLabel, &c.ShotType, &c.Mood, &c.Rating, &c.EmbeddingModel,
			&c.VectorKey, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.VideoID, _ = uuid.Parse(videoID)
		c.Subjects = splitSpace(subjects)
		c.Actions = splitSpace(actions)
		c.Objects = splitSpace(objects)
		c.Tags = splitSpace(tags)
		c.UserTags = splitSpace(userTags)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) queryOneClip(query string, args ...interface{}) (*ClipRow, error) {
	row := db.conn.QueryRow(query, args...)

	var c ClipRow
	var videoID, subjects, actions, objects, tags, userTags string
	err := row.Scan(&c.SourceFolder, &c.SourceClipID, &videoID, &c.VideoPath, &c.StartTime,
		&c.EndTime, &c.Description, &c.Scene, &subjects, &actions, &objects, &tags, &userTags,
		&c.Transcript, &c.ColorLabel, &c.ShotType, &c.Mood, &c.Rating, &c.EmbeddingModel, &c.VectorKey,
		&c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.VideoID, _ = uuid.Parse(videoID)
	c.Subjects = splitSpace(subjects)
	c.Actions = splitSpace(actions)
	c.Objects = splitSpace(objects)
	c.Tags = splitSpace(tags)
	c.UserTags = splitSpace(userTags)
	return &c, nil
}

func splitSpace(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// FacetCount is one (value, count) pair from a GROUP BY facet query.
type FacetCount struct {
	Value string
	Count int
}

// Facet returns the distribution of the given column (shot_type, mood,
// rating, or color_label), optionally scoped to a folder set, limited to
// the top N most frequent values (spec.md §4.4: N=20 for shot_type/mood,
// full distribution for rating/color_label — callers pass limit=0 for
// "no limit").
func (db *DB) Facet(column string, folderScope []string, limit int) ([]FacetCount, error) {
	if !isFacetColumn(column) {
		return nil, fmt.Errorf("globaldb: invalid facet column %q", column)
	}
	args := []interface{}{}
	where := ""
	if len(folderScope) > 0 {
		placeholders := make([]string, len(folderScope))
		for i, f := range folderScope {
			placeholders[i] = "?"
			args = append(args, f)
		}
		where = "WHERE source_folder IN (" + strings.Join(placeholders, ",") + ")"
	}
	limitClause := ""
	if limit > 0 {
		limitClause = fmt.Sprintf(" LIMIT %d", limit)
	}
	query := fmt.Sprintf(`SELECT %s, COUNT(*) c FROM clips %s GROUP BY %s ORDER BY c DESC%s`,
		column, where, column, limitClause)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FacetCount
	for rows.Next() {
		var fc FacetCount
		if err := rows.Scan(&fc.Value, &fc.Count); err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

func isFacetColumn(c string) bool {
	switch c {
	case "shot_type", "mood", "rating", "color_label":
		return true
	}
	return false
}
