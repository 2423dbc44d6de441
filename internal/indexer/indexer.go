// Package indexer implements the Layered Indexer, the system's heart per
// spec.md §4.1: a per-file, per-layer pipeline that turns a registered
// media file into a full clip record set, advancing through four ordered
// layers and resuming from the highest completed one after a crash.
package indexer

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/time/rate"

	"github.com/findit-app/findit/internal/embedding"
	"github.com/findit-app/findit/internal/ferrors"
	"github.com/findit-app/findit/internal/folderdb"
	"github.com/findit-app/findit/internal/globaldb"
	"github.com/findit-app/findit/internal/media"
	"github.com/findit-app/findit/internal/models"
	"github.com/findit-app/findit/internal/network"
	"github.com/findit-app/findit/internal/vectorindex"
	"github.com/google/uuid"
)

// layer3Backoff matches spec.md §4.1's failure semantics exactly:
// "exponential backoff with jitter (initial 1s, cap 60s, max 6 attempts)".
var layer3Backoff = network.BackoffPolicy{Initial: network.DefaultBackoff.Initial, Max: network.DefaultBackoff.Max, MaxAttempts: network.DefaultBackoff.MaxAttempts}

// Indexer holds every collaborator a layer needs: the per-folder
// authoritative store, the process-wide aggregate mirror, both vector
// indices, the embedding provider selectors, the Media Service, the VLM
// gateway, and the resilience/rate-limiting envelope for layer 3.
type Indexer struct {
	FolderDB   *folderdb.DB
	GlobalDB   *globaldb.DB
	ClipIndex  *vectorindex.Index
	TextIndex  *vectorindex.Index

	ImageEmbedders embedding.Selector[embedding.ImageEmbedder]
	TextEmbedders  embedding.Selector[embedding.TextEmbedder]

	Media       *media.Service
	Transcriber Transcriber
	VLM         *VLMGateway

	Network *network.Observer
	Limiter *rate.Limiter

	Detector ShotBoundaries // optional; nil means always fall back to fixed-interval

	SourceFolder string // key under which this folder's clips are mirrored in the Global DB
}

// New constructs an Indexer. Limiter may be nil, in which case layer 3
// calls proceed unthrottled (useful for tests and single-file CLI runs).
func New(folderDB *folderdb.DB, globalDB *globaldb.DB, clipIndex, textIndex *vectorindex.Index, sourceFolder string) *Indexer {
	return &Indexer{
		FolderDB:     folderDB,
		GlobalDB:     globalDB,
		ClipIndex:    clipIndex,
		TextIndex:    textIndex,
		Network:      network.New(),
		SourceFolder: sourceFolder,
	}
}

// clipVectorKey derives the vector index key for a clip, per spec.md §4.5
// ("HNSW over int64 keys").
func clipVectorKey(id uuid.UUID) int64 {
	return vectorindex.KeyFromUUID(id)
}

// ProcessVideo advances video through every applicable, non-skipped layer
// in order, starting from its currently-recorded index_layer, per spec.md
// §4.1's resume logic. sourcePath is the absolute path to the backing file.
func (ix *Indexer) ProcessVideo(ctx context.Context, video *models.Video, sourcePath string, skip SkipSet) error {
	for {
		layer, ok := NextLayer(video.MediaType, video.IndexLayer, skip)
		if !ok {
			return nil
		}

		var err error
		switch layer {
		case models.LayerMetadata:
			err = ix.runMetadata(ctx, video, sourcePath)
		case models.LayerClipVector:
			err = ix.runClipVector(ctx, video, sourcePath)
		case models.LayerSTT:
			err = ix.runSTT(ctx, video, sourcePath)
		case models.LayerTextDescription:
			err = ix.runTextDescription(ctx, video)
		}

		if err != nil {
			if kind := ferrors.Classify(err); kind == ferrors.KindValidation {
				log.Printf("indexer: layer %v unavailable for %s, skipping: %v", layer, sourcePath, err)
				video.IndexLayer = layer
				if setErr := ix.FolderDB.SetLayerComplete(video.ID, layer, completionStatus(layer)); setErr != nil {
					return setErr
				}
				continue
			}
			if setErr := ix.FolderDB.SetFailed(video.ID, err.Error()); setErr != nil {
				return setErr
			}
			return fmt.Errorf("indexer: layer %v failed for %s: %w", layer, sourcePath, err)
		}

		video.IndexLayer = layer
		video.IndexStatus = completionStatus(layer)
		if err := ix.FolderDB.SetLayerComplete(video.ID, layer, video.IndexStatus); err != nil {
			return err
		}
	}
}

// runMetadata is layer 0: probe + segment. A decoder probe failure falls
// back to fixed-interval segmentation and counts as success, per spec.md
// §4.1's explicit "decoder failures in layer 0 ... this counts as success".
func (ix *Indexer) runMetadata(ctx context.Context, video *models.Video, sourcePath string) error {
	duration := video.Duration
	if video.MediaType == models.MediaTypeVideo || video.MediaType == models.MediaTypeAudio {
		if probe, err := ix.Media.Probe(sourcePath); err == nil {
			duration = probe.DurationSeconds
			video.Duration = duration
			video.FPS = probe.FPS
		}
	}

	ranges := Segment(video.MediaType, duration, ix.Detector, sourcePath)
	for _, r := range ranges {
		clip := &models.Clip{VideoID: video.ID, StartTime: r.Start, EndTime: r.End, ColorLabel: models.ColorNone}
		if err := ix.FolderDB.UpsertClip(clip); err != nil {
			return fmt.Errorf("indexer: persist clip: %w", err)
		}
	}
	return nil
}

// runClipVector is layer 1: one keyframe per clip, embedded via CLIP and
// L2-normalized. A missing CLIP model is reported as a Validation error so
// ProcessVideo treats it as "skip, don't fail" per spec.md §4.1.
func (ix *Indexer) runClipVector(ctx context.Context, video *models.Video, sourcePath string) error {
	if video.MediaType == models.MediaTypeAudio {
		return nil
	}
	embedder, ok := ix.ImageEmbedders.Pick()
	if !ok {
		return ferrors.Validation("no CLIP image encoder available")
	}

	clips, err := ix.FolderDB.ListClipsByVideo(video.ID)
	if err != nil {
		return fmt.Errorf("indexer: list clips: %w", err)
	}

	for _, clip := range clips {
		var keyframePath string
		if video.MediaType == models.MediaTypePhoto {
			keyframePath = sourcePath
		} else {
			keyframePath = fmt.Sprintf("%s.keyframe.%.3f.jpg", sourcePath, clip.StartTime)
			if err := ix.Media.ExtractKeyframe(sourcePath, clip.StartTime, clip.EndTime, keyframePath); err != nil {
				return fmt.Errorf("indexer: extract keyframe: %w", err)
			}
		}

		jpegBytes, err := os.ReadFile(keyframePath)
		if err != nil {
			return fmt.Errorf("indexer: read keyframe: %w", err)
		}
		vec, err := embedder.EmbedImage(ctx, jpegBytes)
		if err != nil {
			return fmt.Errorf("indexer: embed keyframe: %w", err)
		}
		embedding.Normalize(vec)

		clip.ClipEmbedding = vec
		clip.EmbeddingModel = embedder.Name()
		if err := ix.FolderDB.UpsertClip(clip); err != nil {
			return fmt.Errorf("indexer: persist clip embedding: %w", err)
		}
		if ix.ClipIndex != nil {
			if err := ix.ClipIndex.Add(clipVectorKey(clip.ID), vec); err != nil {
				return fmt.Errorf("indexer: add clip vector: %w", err)
			}
		}
		ix.syncClip(clip, video)
	}
	return nil
}

// runSTT is layer 2: extract audio, transcribe, and slice the transcript
// per clip by intersecting word timestamps with clip ranges.
func (ix *Indexer) runSTT(ctx context.Context, video *models.Video, sourcePath string) error {
	if video.MediaType == models.MediaTypePhoto || ix.Transcriber == nil {
		return nil
	}

	audioPath := sourcePath + ".audio.wav"
	if err := ix.Media.ExtractAudio(sourcePath, 0, video.Duration, audioPath); err != nil {
		return ferrors.Wrap(ferrors.KindTransient, "extract audio for stt", err)
	}

	words, err := ix.Transcriber.Transcribe(audioPath)
	if err != nil {
		return ferrors.Wrap(ferrors.KindTransient, "speech-to-text failed", err)
	}

	clips, err := ix.FolderDB.ListClipsByVideo(video.ID)
	if err != nil {
		return fmt.Errorf("indexer: list clips: %w", err)
	}
	for _, clip := range clips {
		clip.Transcript = TranscriptForRange(words, clip.StartTime, clip.EndTime)
		if err := ix.FolderDB.UpsertClip(clip); err != nil {
			return fmt.Errorf("indexer: persist transcript: %w", err)
		}
		ix.syncClip(clip, video)
	}
	return nil
}

// runTextDescription is layer 3: per-clip VLM call + text embedding,
// retried with backoff+jitter on transient failure, rate-limited globally.
func (ix *Indexer) runTextDescription(ctx context.Context, video *models.Video) error {
	if video.MediaType == models.MediaTypeAudio || ix.VLM == nil {
		return nil
	}

	clips, err := ix.FolderDB.ListClipsByVideo(video.ID)
	if err != nil {
		return fmt.Errorf("indexer: list clips: %w", err)
	}

	textEmbedder, hasTextEmbedder := ix.TextEmbedders.Pick()

	for _, clip := range clips {
		if ix.Network != nil {
			if err := ix.Network.WaitForConnection(ctx, layer3Backoff.Max); err != nil {
				return ferrors.Wrap(ferrors.KindTransient, "waiting for network", err)
			}
		}

		var result *DescriptionResult
		retryErr := network.RetryWithBackoff(ctx, layer3Backoff, isTransientVLMError, func() error {
			if ix.Limiter != nil {
				if err := ix.Limiter.Wait(ctx); err != nil {
					return err
				}
			}
			var callErr error
			result, callErr = ix.VLM.Describe(ctx, nil, clip.Transcript, clip.UserTags)
			return callErr
		})
		if retryErr != nil {
			return retryErr
		}

		applyDescription(clip, result)

		if hasTextEmbedder && clip.Description != "" {
			vec, err := textEmbedder.EmbedText(ctx, clip.Description)
			if err == nil {
				embedding.Normalize(vec)
				clip.TextEmbedding = vec
				if clip.EmbeddingModel == "" {
					clip.EmbeddingModel = textEmbedder.Name()
				}
				if ix.TextIndex != nil {
					if err := ix.TextIndex.Add(clipVectorKey(clip.ID), vec); err != nil {
						return fmt.Errorf("indexer: add text vector: %w", err)
					}
				}
			}
		}

		if err := ix.FolderDB.UpsertClip(clip); err != nil {
			return fmt.Errorf("indexer: persist description: %w", err)
		}
		ix.syncClip(clip, video)
	}
	return nil
}

func applyDescription(clip *models.Clip, result *DescriptionResult) {
	if result == nil {
		return
	}
	clip.Description = result.Description
	clip.Scene = result.Scene
	clip.Subjects = result.Subjects
	clip.Actions = result.Actions
	clip.Objects = result.Objects
	clip.Mood = result.Mood
	clip.ShotType = result.ShotType
	clip.Lighting = result.Lighting
	clip.Colors = result.Colors
	clip.UserTags = append(clip.UserTags, result.Tags...)
}

func isTransientVLMError(err error) bool {
	return ferrors.Classify(err) == ferrors.KindTransient
}

// syncClip mirrors a clip into the Global DB, per spec.md §4.6's sync
// protocol: "incremental, triggered after each layer transition for a
// clip". Sync failures are logged, not propagated — the Global DB is a
// rebuildable cache (spec.md §3), so a missed mirror write is never fatal
// to the authoritative Folder DB write that already succeeded.
func (ix *Indexer) syncClip(clip *models.Clip, video *models.Video) {
	if ix.GlobalDB == nil {
		return
	}
	row := globaldb.ClipRow{
		SourceFolder:   ix.SourceFolder,
		SourceClipID:   clip.ID.String(),
		VideoID:        video.ID,
		VideoPath:      video.Path,
		StartTime:      clip.StartTime,
		EndTime:        clip.EndTime,
		Description:    clip.Description,
		Scene:          clip.Scene,
		Subjects:       clip.Subjects,
		Actions:        clip.Actions,
		Objects:        clip.Objects,
		Tags:           clip.UserTags,
		UserTags:       clip.UserTags,
		Transcript:     clip.Transcript,
		ColorLabel:     string(orDefault(clip.ColorLabel)),
		ShotType:       clip.ShotType,
		Mood:           clip.Mood,
		Rating:         clip.Rating,
		EmbeddingModel: clip.EmbeddingModel,
		VectorKey:      clipVectorKey(clip.ID),
	}
	if err := ix.GlobalDB.Upsert(row); err != nil {
		log.Printf("indexer: global db sync failed for clip %s: %v", clip.ID, err)
	}
}

func orDefault(c models.ColorLabel) models.ColorLabel {
	if c == "" {
		return models.ColorNone
	}
	return c
}
