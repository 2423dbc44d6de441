// Package models defines the persistent record types shared by the Folder
// DB and Global DB: folders, videos, and clips.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaType classifies a registered file by what the scanner probed it as.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypePhoto MediaType = "photo"
	MediaTypeAudio MediaType = "audio"
)

// IndexStatus tracks where a Video is in the layered indexing pipeline.
type IndexStatus string

const (
	StatusPending       IndexStatus = "pending"
	StatusMetadataDone  IndexStatus = "metadata_done"
	StatusVectorsDone   IndexStatus = "vectors_done"
	StatusSTTRunning    IndexStatus = "stt_running"
	StatusSTTDone       IndexStatus = "stt_done"
	StatusVisionRunning IndexStatus = "vision_running"
	StatusCompleted     IndexStatus = "completed"
	StatusFailed        IndexStatus = "failed"
	StatusOrphaned      IndexStatus = "orphaned"
)

// Layer is one of the four ordered indexing stages.
type Layer int

// LayerNone marks a freshly-discovered Video that has not completed any
// layer yet (index_layer's sentinel value prior to metadata).
const LayerNone Layer = -1

const (
	LayerMetadata Layer = iota
	LayerClipVector
	LayerSTT
	LayerTextDescription
)

// ColorLabel is the Finder-style color tag applied to a clip.
type ColorLabel string

const (
	ColorNone   ColorLabel = "none"
	ColorRed    ColorLabel = "red"
	ColorOrange ColorLabel = "orange"
	ColorYellow ColorLabel = "yellow"
	ColorGreen  ColorLabel = "green"
	ColorBlue   ColorLabel = "blue"
	ColorPurple ColorLabel = "purple"
	ColorGray   ColorLabel = "gray"
)

// EmbeddingDimensions is the fixed vector width for every 768-d provider;
// CLIP-image, CLIP-text, EmbeddingGemma, and Gemini text embeddings are all
// treated as a single compatibility class at this dimension.
const EmbeddingDimensions = 768

// Folder is a registered root directory. Identity is the normalized
// absolute path (no trailing slash); VolumeUUID is set when the folder
// lives on removable media so it can be reconciled after a remount.
type Folder struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Path       string     `json:"path" db:"path"`
	VolumeUUID *string    `json:"volume_uuid,omitempty" db:"volume_uuid"`
	IsBookmark bool       `json:"is_bookmark" db:"is_bookmark"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Video is a media-file record. Identity is (FolderID, Path).
type Video struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	FolderID    uuid.UUID   `json:"folder_id" db:"folder_id"`
	Path        string      `json:"path" db:"path"`
	Filename    string      `json:"filename" db:"filename"`
	MediaType   MediaType   `json:"media_type" db:"media_type"`
	Duration    float64     `json:"duration_seconds" db:"duration_seconds"`
	FPS         float64     `json:"fps,omitempty" db:"fps"`
	ByteSize    int64       `json:"byte_size" db:"byte_size"`
	ContentHash string      `json:"content_hash" db:"content_hash"`
	IndexStatus IndexStatus `json:"index_status" db:"index_status"`
	IndexLayer  Layer       `json:"index_layer" db:"index_layer"`
	IndexError  string      `json:"index_error,omitempty" db:"index_error"`
	SRTPath     string      `json:"srt_path,omitempty" db:"srt_path"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Clip is a temporal slice of a Video, [StartTime, EndTime) seconds.
type Clip struct {
	ID          uuid.UUID `json:"id" db:"id"`
	VideoID     uuid.UUID `json:"video_id" db:"video_id"`
	StartTime   float64   `json:"start_time" db:"start_time"`
	EndTime     float64   `json:"end_time" db:"end_time"`

	Scene       string   `json:"scene,omitempty" db:"scene"`
	Description string   `json:"description,omitempty" db:"description"`
	Subjects    []string `json:"subjects,omitempty" db:"-"`
	Actions     []string `json:"actions,omitempty" db:"-"`
	Objects     []string `json:"objects,omitempty" db:"-"`
	Colors      []string `json:"colors,omitempty" db:"-"`
	Transcript  string   `json:"transcript,omitempty" db:"transcript"`
	ShotType    string   `json:"shot_type,omitempty" db:"shot_type"`
	Mood        string   `json:"mood,omitempty" db:"mood"`
	Lighting    string   `json:"lighting,omitempty" db:"lighting"`

	Rating     int        `json:"rating" db:"rating"`
	ColorLabel ColorLabel `json:"color_label" db:"color_label"`
	UserTags   []string   `json:"user_tags,omitempty" db:"-"`

	ThumbnailPath string `json:"thumbnail_path,omitempty" db:"thumbnail_path"`

	ClipEmbedding  []float32 `json:"-" db:"-"`
	TextEmbedding  []float32 `json:"-" db:"-"`
	EmbeddingModel string    `json:"embedding_model,omitempty" db:"embedding_model"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Length returns the clip's length in seconds.
func (c Clip) Length() float64 { return c.EndTime - c.StartTime }

// AppliesToLayer reports whether the given media type runs the given
// layer at all, per the layer-applicability matrix in spec.md §4.1.
func AppliesToLayer(mt MediaType, l Layer) bool {
	switch l {
	case LayerMetadata:
		return true
	case LayerClipVector:
		return mt != MediaTypeAudio
	case LayerSTT:
		return mt != MediaTypePhoto
	case LayerTextDescription:
		return mt != MediaTypeAudio
	}
	return false
}
