// Package folderdb is the authoritative per-folder SQLite store living at
// <folder>/.clip-index/index.sqlite, generalizing the teacher's
// internal/db connect/migrate shape (db.go) from a single shared Postgres
// instance to one pure-Go SQLite file per registered folder.
package folderdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/findit-app/findit/internal/models"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const schemaVersion = 2

// DB wraps the per-folder SQLite handle. Its pool is capped at a single
// connection that serves both reads and writes; there is no separate
// reader pool.
type DB struct {
	conn *sql.DB
	dir  string
}

// IndexDir returns the `.clip-index` management directory for a folder root.
func IndexDir(folderRoot string) string {
	return filepath.Join(folderRoot, ".clip-index")
}

// Open creates (if needed) and migrates the Folder DB for folderRoot.
func Open(folderRoot string) (*DB, error) {
	dir := IndexDir(folderRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("folderdb: mkdir %s: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "thumbs"), 0o755); err != nil {
		return nil, fmt.Errorf("folderdb: mkdir thumbs: %w", err)
	}

	dsn := filepath.Join(dir, "index.sqlite")
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("folderdb: open %s: %w", dsn, err)
	}
	// SQLite only tolerates one writer; a single shared connection with a
	// lock-serialized busy-timeout gives us that without a pool of its own.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	db := &DB{conn: conn, dir: dir}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("folderdb: migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_meta (
		version INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}

	var version int
	row := db.conn.QueryRow(`SELECT version FROM schema_meta LIMIT 1`)
	if err := row.Scan(&version); err != nil {
		if err != sql.ErrNoRows {
			return err
		}
		version = 0
	}

	if version < 1 {
		if err := db.applyV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := db.applyV2(); err != nil {
			return err
		}
	}
	if version < schemaVersion {
		if _, err := db.conn.Exec(`DELETE FROM schema_meta`); err != nil {
			return err
		}
		if _, err := db.conn.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion); err != nil {
			return err
		}
	}

	return db.backfillIndexLayer()
}

// applyV2 adds the probed frame rate, backfilled to 0 (unprobed) for any
// video registered before this column existed — export-fcpxml/export-edl
// fall back to the sequence's default format for those, per spec.md §6.
func (db *DB) applyV2() error {
	_, err := db.conn.Exec(`ALTER TABLE videos ADD COLUMN fps REAL NOT NULL DEFAULT 0`)
	if err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return err
	}
	return nil
}

func (db *DB) applyV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS watched_folders (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			volume_uuid TEXT,
			is_bookmark INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			folder_id TEXT NOT NULL,
			path TEXT NOT NULL,
			filename TEXT NOT NULL,
			media_type TEXT NOT NULL,
			duration_seconds REAL NOT NULL DEFAULT 0,
			byte_size INTEGER NOT NULL DEFAULT 0,
			content_hash TEXT NOT NULL DEFAULT '',
			index_status TEXT NOT NULL DEFAULT 'pending',
			index_layer INTEGER NOT NULL DEFAULT -1,
			index_error TEXT NOT NULL DEFAULT '',
			srt_path TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(folder_id, path)
		)`,
		`CREATE TABLE IF NOT EXISTS clips (
			id TEXT PRIMARY KEY,
			video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			scene TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			subjects TEXT NOT NULL DEFAULT '[]',
			actions TEXT NOT NULL DEFAULT '[]',
			objects TEXT NOT NULL DEFAULT '[]',
			colors TEXT NOT NULL DEFAULT '[]',
			transcript TEXT NOT NULL DEFAULT '',
			shot_type TEXT NOT NULL DEFAULT '',
			mood TEXT NOT NULL DEFAULT '',
			lighting TEXT NOT NULL DEFAULT '',
			thumbnail_path TEXT NOT NULL DEFAULT '',
			clip_embedding BLOB,
			text_embedding BLOB,
			embedding_model TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS clip_labels (
			clip_id TEXT PRIMARY KEY REFERENCES clips(id) ON DELETE CASCADE,
			rating INTEGER NOT NULL DEFAULT 0,
			color_label TEXT NOT NULL DEFAULT 'none'
		)`,
		`CREATE TABLE IF NOT EXISTS user_tags (
			clip_id TEXT NOT NULL REFERENCES clips(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			PRIMARY KEY (clip_id, tag)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_status ON videos(index_status)`,
		`CREATE INDEX IF NOT EXISTS idx_clips_video ON clips(video_id)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s, err)
		}
	}
	return nil
}

// backfillIndexLayer derives index_layer for any legacy row that predates
// the column (index_layer = -1 sentinel) by inspecting index_status, per
// spec.md §4.6 ("index_layer is backfilled during migration by inspecting
// the prior textual status").
func (db *DB) backfillIndexLayer() error {
	rows, err := db.conn.Query(`SELECT id, index_status FROM videos WHERE index_layer < 0`)
	if err != nil {
		return err
	}
	type pending struct {
		id     string
		status string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.status); err != nil {
			rows.Close()
			return err
		}
		todo = append(todo, p)
	}
	rows.Close()

	for _, p := range todo {
		layer := layerFromStatus(models.IndexStatus(p.status))
		if _, err := db.conn.Exec(`UPDATE videos SET index_layer = ? WHERE id = ?`, int(layer), p.id); err != nil {
			return err
		}
	}
	return nil
}

func layerFromStatus(status models.IndexStatus) models.Layer {
	switch status {
	case models.StatusPending:
		return models.LayerNone
	case models.StatusMetadataDone:
		return models.LayerMetadata
	case models.StatusVectorsDone:
		return models.LayerClipVector
	case models.StatusSTTRunning, models.StatusSTTDone:
		return models.LayerSTT
	case models.StatusVisionRunning, models.StatusCompleted:
		return models.LayerTextDescription
	default:
		return models.LayerNone
	}
}

// UpsertFolder registers or updates a watched folder row.
func (db *DB) UpsertFolder(f *models.Folder) error {
	now := time.Now()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := db.conn.Exec(`
		INSERT INTO watched_folders (id, path, volume_uuid, is_bookmark, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path=excluded.path, volume_uuid=excluded.volume_uuid,
			is_bookmark=excluded.is_bookmark, updated_at=excluded.updated_at`,
		f.ID.String(), f.Path, f.VolumeUUID, boolToInt(f.IsBookmark), now, now)
	return err
}

// UpsertVideo inserts or updates a Video row keyed by (folder_id, path).
func (db *DB) UpsertVideo(v *models.Video) error {
	now := time.Now()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := db.conn.Exec(`
		INSERT INTO videos (id, folder_id, path, filename, media_type, duration_seconds, fps,
			byte_size, content_hash, index_status, index_layer, index_error, srt_path,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(folder_id, path) DO UPDATE SET
			filename=excluded.filename, media_type=excluded.media_type,
			duration_seconds=excluded.duration_seconds, fps=excluded.fps, byte_size=excluded.byte_size,
			content_hash=excluded.content_hash, index_status=excluded.index_status,
			index_layer=excluded.index_layer, index_error=excluded.index_error,
			srt_path=excluded.srt_path, updated_at=excluded.updated_at`,
		v.ID.String(), v.FolderID.String(), v.Path, v.Filename, string(v.MediaType),
		v.Duration, v.FPS, v.ByteSize, v.ContentHash, string(v.IndexStatus), int(v.IndexLayer),
		v.IndexError, v.SRTPath, now, now)
	return err
}

// GetVideoByPath looks up a Video by (folder_id, path).
func (db *DB) GetVideoByPath(folderID uuid.UUID, path string) (*models.Video, error) {
	row := db.conn.QueryRow(`
		SELECT id, folder_id, path, filename, media_type, duration_seconds, fps, byte_size,
			content_hash, index_status, index_layer, index_error, srt_path, created_at, updated_at
		FROM videos WHERE folder_id = ? AND path = ?`, folderID.String(), path)
	return scanVideo(row)
}

func scanVideo(row *sql.Row) (*models.Video, error) {
	var v models.Video
	var id, folderID string
	err := row.Scan(&id, &folderID, &v.Path, &v.Filename, &v.MediaType, &v.Duration, &v.FPS,
		&v.ByteSize, &v.ContentHash, &v.IndexStatus, &v.IndexLayer, &v.IndexError,
		&v.SRTPath, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.ID, _ = uuid.Parse(id)
	v.FolderID, _ = uuid.Parse(folderID)
	return &v, nil
}

// SetLayerComplete atomically advances (index_layer, index_status) after a
// layer finishes, per spec.md §4.1's resume contract.
func (db *DB) SetLayerComplete(videoID uuid.UUID, layer models.Layer, status models.IndexStatus) error {
	_, err := db.conn.Exec(`UPDATE videos SET index_layer = ?, index_status = ?, index_error = '', updated_at = ? WHERE id = ?`,
		int(layer), string(status), time.Now(), videoID.String())
	return err
}

// SetFailed records a failed layer attempt, preserving index_layer at its
// prior value so the next scheduling pass retries the same layer.
func (db *DB) SetFailed(videoID uuid.UUID, message string) error {
	_, err := db.conn.Exec(`UPDATE videos SET index_status = 'failed', index_error = ?, updated_at = ? WHERE id = ?`,
		message, time.Now(), videoID.String())
	return err
}

// MarkOrphaned transitions a video whose backing file vanished.
func (db *DB) MarkOrphaned(videoID uuid.UUID) error {
	_, err := db.conn.Exec(`UPDATE videos SET index_status = 'orphaned', updated_at = ? WHERE id = ?`, time.Now(), videoID.String())
	return err
}

// UpsertClip inserts or replaces a Clip row, serializing embeddings as
// BLOBs and tag-like lists as JSON arrays (the Folder DB's form; the
// Global DB stores the same lists as space-separated text — this
// asymmetry is intentional, see spec.md §9 Open Question (a)).
func (db *DB) UpsertClip(c *models.Clip) error {
	now := time.Now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	subjects, _ := json.Marshal(nonNil(c.Subjects))
	actions, _ := json.Marshal(nonNil(c.Actions))
	objects, _ := json.Marshal(nonNil(c.Objects))
	colors, _ := json.Marshal(nonNil(c.Colors))

	_, err := db.conn.Exec(`
		INSERT INTO clips (id, video_id, start_time, end_time, scene, description, subjects,
			actions, objects, colors, transcript, shot_type, mood, lighting, thumbnail_path,
			clip_embedding, text_embedding, embedding_model, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			start_time=excluded.start_time, end_time=excluded.end_time, scene=excluded.scene,
			description=excluded.description, subjects=excluded.subjects, actions=excluded.actions,
			objects=excluded.objects, colors=excluded.colors, transcript=excluded.transcript,
			shot_type=excluded.shot_type, mood=excluded.mood, lighting=excluded.lighting,
			thumbnail_path=excluded.thumbnail_path, clip_embedding=excluded.clip_embedding,
			text_embedding=excluded.text_embedding, embedding_model=excluded.embedding_model,
			updated_at=excluded.updated_at`,
		c.ID.String(), c.VideoID.String(), c.StartTime, c.EndTime, c.Scene, c.Description,
		string(subjects), string(actions), string(objects), string(colors), c.Transcript,
		c.ShotType, c.Mood, c.Lighting, c.ThumbnailPath,
		encodeEmbedding(c.ClipEmbedding), encodeEmbedding(c.TextEmbedding), c.EmbeddingModel,
		now, now)
	if err != nil {
		return err
	}

	if _, err := db.conn.Exec(`
		INSERT INTO clip_labels (clip_id, rating, color_label) VALUES (?, ?, ?)
		ON CONFLICT(clip_id) DO UPDATE SET rating=excluded.rating, color_label=excluded.color_label`,
		c.ID.String(), c.Rating, string(orDefaultColor(c.ColorLabel))); err != nil {
		return err
	}

	// Additive: VLM-derived tags (models.Clip.UserTags, set by
	// applyDescription) merge into whatever a prior AddTags/RemoveTags call
	// already recorded, rather than replacing the set.
	if len(c.UserTags) > 0 {
		if err := db.AddTags(c.ID, c.UserTags); err != nil {
			return err
		}
	}

	return nil
}

func orDefaultColor(c models.ColorLabel) models.ColorLabel {
	if c == "" {
		return models.ColorNone
	}
	return c
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

const clipSelectColumns = `
	c.id, c.video_id, c.start_time, c.end_time, c.scene, c.description, c.subjects,
	c.actions, c.objects, c.colors, c.transcript, c.shot_type, c.mood, c.lighting,
	c.thumbnail_path, c.clip_embedding, c.text_embedding, c.embedding_model,
	COALESCE(l.rating, 0), COALESCE(l.color_label, 'none'), c.created_at, c.updated_at,
	COALESCE((SELECT GROUP_CONCAT(tag, char(9)) FROM user_tags WHERE clip_id = c.id), '')`

const clipSelectFrom = `FROM clips c LEFT JOIN clip_labels l ON l.clip_id = c.id`

// ListClipsByVideo returns every clip belonging to videoID, ordered by
// start_time.
func (db *DB) ListClipsByVideo(videoID uuid.UUID) ([]*models.Clip, error) {
	rows, err := db.conn.Query(`SELECT `+clipSelectColumns+` `+clipSelectFrom+`
		WHERE c.video_id = ? ORDER BY c.start_time`, videoID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Clip
	for rows.Next() {
		c, err := scanClipRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetClipByID fetches a single clip by its id.
func (db *DB) GetClipByID(id uuid.UUID) (*models.Clip, error) {
	row := db.conn.QueryRow(`SELECT `+clipSelectColumns+` `+clipSelectFrom+`
		WHERE c.id = ?`, id.String())
	c, err := scanClipRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// SetRating updates a clip's 0..5 star rating.
func (db *DB) SetRating(clipID uuid.UUID, rating int) error {
	_, err := db.conn.Exec(`
		INSERT INTO clip_labels (clip_id, rating, color_label) VALUES (?, ?, 'none')
		ON CONFLICT(clip_id) DO UPDATE SET rating = excluded.rating`, clipID.String(), rating)
	return err
}

// SetColorLabel updates a clip's Finder-style color tag.
func (db *DB) SetColorLabel(clipID uuid.UUID, label models.ColorLabel) error {
	_, err := db.conn.Exec(`
		INSERT INTO clip_labels (clip_id, rating, color_label) VALUES (?, 0, ?)
		ON CONFLICT(clip_id) DO UPDATE SET color_label = excluded.color_label`, clipID.String(), string(label))
	return err
}

// AddTags merges tags into a clip's user_tags set, ignoring ones already present.
func (db *DB) AddTags(clipID uuid.UUID, tags []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO user_tags (clip_id, tag) VALUES (?, ?)`, clipID.String(), tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RemoveTags deletes tags from a clip's user_tags set.
func (db *DB) RemoveTags(clipID uuid.UUID, tags []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, tag := range tags {
		if _, err := tx.Exec(`DELETE FROM user_tags WHERE clip_id = ? AND tag = ?`, clipID.String(), tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListFolders returns every registered watched folder.
func (db *DB) ListFolders() ([]*models.Folder, error) {
	rows, err := db.conn.Query(`SELECT id, path, volume_uuid, is_bookmark, created_at, updated_at FROM watched_folders ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Folder
	for rows.Next() {
		var f models.Folder
		var id string
		var volUUID sql.NullString
		var isBookmark int
		if err := rows.Scan(&id, &f.Path, &volUUID, &isBookmark, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		f.ID, _ = uuid.Parse(id)
		if volUUID.Valid {
			f.VolumeUUID = &volUUID.String
		}
		f.IsBookmark = isBookmark != 0
		out = append(out, &f)
	}
	return out, rows.Err()
}

// ListVideos returns every video registered under folderID, ordered by path.
func (db *DB) ListVideos(folderID uuid.UUID) ([]*models.Video, error) {
	rows, err := db.conn.Query(`
		SELECT id, folder_id, path, filename, media_type, duration_seconds, fps, byte_size,
			content_hash, index_status, index_layer, index_error, srt_path, created_at, updated_at
		FROM videos WHERE folder_id = ? ORDER BY path`, folderID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Video
	for rows.Next() {
		v, err := scanVideoRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVideoByID fetches a single video by id.
func (db *DB) GetVideoByID(id uuid.UUID) (*models.Video, error) {
	row := db.conn.QueryRow(`
		SELECT id, folder_id, path, filename, media_type, duration_seconds, fps, byte_size,
			content_hash, index_status, index_layer, index_error, srt_path, created_at, updated_at
		FROM videos WHERE id = ?`, id.String())
	return scanVideo(row)
}

// Stats summarizes one folder's indexing progress, per spec.md §6's
// get-stats tool.
type Stats struct {
	VideoCount     int
	ClipCount      int
	CompletedCount int
	FailedCount    int
}

// Stats computes aggregate counts for folderID's videos and their clips.
func (db *DB) Stats(folderID uuid.UUID) (*Stats, error) {
	var s Stats
	row := db.conn.QueryRow(`
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE index_status = 'completed'),
			COUNT(*) FILTER (WHERE index_status = 'failed')
		FROM videos WHERE folder_id = ?`, folderID.String())
	if err := row.Scan(&s.VideoCount, &s.CompletedCount, &s.FailedCount); err != nil {
		return nil, err
	}
	row = db.conn.QueryRow(`
		SELECT COUNT(*) FROM clips c JOIN videos v ON v.id = c.video_id WHERE v.folder_id = ?`, folderID.String())
	if err := row.Scan(&s.ClipCount); err != nil {
		return nil, err
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClipRow(rows rowScanner) (*models.Clip, error) {
	var c models.Clip
	var id, videoID string
	var subjects, actions, objects, colors, userTags string
	var clipEmb, textEmb []byte
	err := rows.Scan(&id, &videoID, &c.StartTime, &c.EndTime, &c.Scene, &c.Description,
		&subjects, &actions, &objects, &colors, &c.Transcript, &c.ShotType, &c.Mood,
		&c.Lighting, &c.ThumbnailPath, &clipEmb, &textEmb, &c.EmbeddingModel,
		&c.Rating, &c.ColorLabel, &c.CreatedAt, &c.UpdatedAt, &userTags)
	if err != nil {
		return nil, err
	}
	c.ID, _ = uuid.Parse(id)
	c.VideoID, _ = uuid.Parse(videoID)
	c.Subjects = decodeTagList(subjects)
	c.Actions = decodeTagList(actions)
	c.Objects = decodeTagList(objects)
	c.Colors = decodeTagList(colors)
	c.ClipEmbedding = decodeEmbedding(clipEmb)
	c.TextEmbedding = decodeEmbedding(textEmb)
	if userTags != "" {
		c.UserTags = strings.Split(userTags, "\t")
	}
	return &c, nil
}

func scanVideoRows(rows *sql.Rows) (*models.Video, error) {
	var v models.Video
	var id, folderID string
	err := rows.Scan(&id, &folderID, &v.Path, &v.Filename, &v.MediaType, &v.Duration, &v.FPS,
		&v.ByteSize, &v.ContentHash, &v.IndexStatus, &v.IndexLayer, &v.IndexError,
		&v.SRTPath, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.ID, _ = uuid.Parse(id)
	v.FolderID, _ = uuid.Parse(folderID)
	return &v, nil
}

// decodeTagList tolerates both JSON-array and whitespace-separated forms
// on read, per spec.md §9 Open Question (a): callers must not assume which
// form a given row was written in.
func decodeTagList(raw string) []string {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	if raw == "" {
		return nil
	}
	return splitWhitespace(raw)
}

func splitWhitespace(s string) []string {
	var out []string
	field := ""
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if field != "" {
				out = append(out, field)
				field = ""
			}
			continue
		}
		field += string(r)
	}
	if field != "" {
		out = append(out, field)
	}
	return out
}

func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		bits := math.Float32bits(f)
		buf[i*4+0] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	n := len(buf) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
