package commands

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/findit-app/findit/internal/config"
	"github.com/findit-app/findit/internal/indexer"
	"github.com/findit-app/findit/internal/models"
	"github.com/findit-app/findit/internal/scanner"
	"github.com/findit-app/findit/internal/watcher"
)

var (
	workerRescanCronFlag string
)

// runWorkerCmd is the long-running complement to the one-shot query/mutation
// tools above: it drives the layered indexer to completion for a folder,
// per spec.md §4.1's asynq-backed pipeline, instead of running layers
// inline on a CLI caller's stack. Not one of the query/mutation tools
// themselves — an operational entry point a supervisor (launchd, systemd,
// a container) keeps running.
var runWorkerCmd = &cobra.Command{
	Use:   "run-worker",
	Short: "Watch a folder and drive its videos through the layered indexer",
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

		ix, err := ac.Indexer(rootFlag)
		if err != nil {
			emitErr("build indexer", err)
			return
		}

		cfg := config.Load()
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		queue := indexer.NewQueue(cfg.RedisAddr, cfg.IndexWorkers)
		defer queue.Stop()

		queue.RegisterHandler(indexer.TaskLayerMetadata, videoTaskHandler(fdb, ix))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		enqueueAll := func() {
			if err := scanAndEnqueue(fdb, queue, folder.ID, rootFlag); err != nil {
				log.Printf("run-worker: scan: %v", err)
			}
		}
		enqueueAll()

		w, err := watcher.New(time.Duration(cfg.CoalesceWindowMS)*time.Millisecond, func(events []watcher.Event) {
			handleWatchEvents(fdb, queue, folder.ID, rootFlag, events, enqueueAll)
		})
		if err != nil {
			emitErr("start watcher", err)
			return
		}
		if err := w.AddRoot(rootFlag, folder.ID); err != nil {
			emitErr("watch root", err)
			return
		}
		w.Start()
		defer w.Stop()

		// Periodic full reconciliation catches drift a live fsnotify stream
		// can miss (sleep/wake, a network volume that silently remounted).
		c := cron.New()
		if workerRescanCronFlag != "" {
			if _, err := c.AddFunc(workerRescanCronFlag, enqueueAll); err != nil {
				emitErr("parse --rescan-cron", err)
				return
			}
			c.Start()
			defer c.Stop()
		}

		log.Printf("run-worker: watching %s (rescan=%q)", rootFlag, workerRescanCronFlag)
		if err := queue.Start(ctx); err != nil {
			emitErr("worker stopped", err)
			return
		}
		emit(map[string]interface{}{"folder": rootFlag, "stopped": true})
	},
}

// scanAndEnqueue walks root, registers any video the Folder DB hasn't seen
// yet, and enqueues every non-completed video for indexing.
func scanAndEnqueue(fdb interface {
	GetVideoByPath(folderID uuid.UUID, path string) (*models.Video, error)
	UpsertVideo(v *models.Video) error
}, queue *indexer.Queue, folderID uuid.UUID, root string) error {
	entries, err := scanner.Walk(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		rel := e.Path
		if len(root) < len(e.Path) {
			rel = e.Path[len(root):]
		}
		video, err := fdb.GetVideoByPath(folderID, rel)
		if err != nil {
			log.Printf("run-worker: lookup %s: %v", rel, err)
			continue
		}
		if video == nil {
			video = &models.Video{
				FolderID:  folderID,
				Path:      rel,
				Filename:  e.Path,
				MediaType: e.MediaType,
				ByteSize:  e.ByteSize,
			}
		}
		if video.IndexStatus == models.StatusCompleted {
			continue
		}
		if err := fdb.UpsertVideo(video); err != nil {
			log.Printf("run-worker: upsert %s: %v", rel, err)
			continue
		}
		if _, err := queue.EnqueueLayer(indexer.TaskLayerMetadata, indexer.VideoPayload{
			FolderRoot: root, VideoID: video.ID.String(),
		}); err != nil {
			log.Printf("run-worker: enqueue %s: %v", rel, err)
		}
	}
	return nil
}

// handleWatchEvents reacts to a coalesced watcher batch: rescan_needed
// triggers a full scanAndEnqueue, added/modified events enqueue just that
// one video, and removed marks it orphaned.
func handleWatchEvents(fdb interface {
	GetVideoByPath(folderID uuid.UUID, path string) (*models.Video, error)
	UpsertVideo(v *models.Video) error
	MarkOrphaned(videoID uuid.UUID) error
}, queue *indexer.Queue, folderID uuid.UUID, root string, events []watcher.Event, rescan func()) {
	for _, ev := range events {
		if ev.Kind == watcher.KindRescanNeeded {
			rescan()
			continue
		}
		rel := ev.Path
		if len(root) < len(ev.Path) {
			rel = ev.Path[len(root):]
		}
		video, err := fdb.GetVideoByPath(folderID, rel)
		if err != nil || video == nil {
			if ev.Kind == watcher.KindAdded {
				mt, ok := scanner.Classify(ev.Path)
				if !ok {
					continue
				}
				video = &models.Video{FolderID: folderID, Path: rel, Filename: rel, MediaType: mt}
				if err := fdb.UpsertVideo(video); err != nil {
					log.Printf("run-worker: register %s: %v", rel, err)
					continue
				}
			} else {
				continue
			}
		}
		switch ev.Kind {
		case watcher.KindRemoved:
			if err := fdb.MarkOrphaned(video.ID); err != nil {
				log.Printf("run-worker: mark orphaned %s: %v", rel, err)
			}
		case watcher.KindAdded, watcher.KindModified:
			if _, err := queue.EnqueueLayer(indexer.TaskLayerMetadata, indexer.VideoPayload{
				FolderRoot: root, VideoID: video.ID.String(),
			}); err != nil {
				log.Printf("run-worker: enqueue %s: %v", rel, err)
			}
		}
	}
}

// videoTaskHandler adapts a VideoPayload task to Indexer.ProcessVideo,
// resolving the source path relative to the folder root the worker was
// started against.
func videoTaskHandler(fdb interface {
	GetVideoByID(id uuid.UUID) (*models.Video, error)
}, ix interface {
	ProcessVideo(ctx context.Context, video *models.Video, sourcePath string, skip indexer.SkipSet) error
}) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload indexer.VideoPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return err
		}
		id, err := uuid.Parse(payload.VideoID)
		if err != nil {
			return err
		}
		video, err := fdb.GetVideoByID(id)
		if err != nil {
			return err
		}
		if video == nil {
			return nil
		}
		sourcePath := filepath.Join(payload.FolderRoot, video.Path)
		return ix.ProcessVideo(ctx, video, sourcePath, nil)
	}
}

func init() {
	addRootFlag(runWorkerCmd)
	runWorkerCmd.Flags().StringVar(&workerRescanCronFlag, "rescan-cron", "@hourly", "cron schedule for full-folder reconciliation scans, empty to disable")
}
