package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/hibiken/asynq"
)

// Task type names for the four ordered layers, generalizing the teacher's
// jobs.Queue task-type constants (jobs/queue.go) from per-library
// scan/scrape jobs to per-file, per-layer indexing jobs.
const (
	TaskLayerMetadata       = "index:metadata"
	TaskLayerClipVector     = "index:clipvector"
	TaskLayerSTT            = "index:stt"
	TaskLayerTextDescription = "index:textdescription"
)

// VideoPayload identifies a single (folder, video) pair to index.
type VideoPayload struct {
	FolderRoot string `json:"folder_root"`
	VideoID    string `json:"video_id"`
}

// Queue wraps asynq's client/server/inspector triple, mirroring the
// teacher's jobs.Queue shape (jobs/queue.go) but parameterized over the
// indexer's four layer task types instead of library-scan task types.
type Queue struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	inspector *asynq.Inspector
}

// DefaultConcurrency is the bounded worker-pool size spec.md §4.1 names:
// "the indexer runs per-file tasks on a bounded worker pool (default =
// min(cores, 4))".
func DefaultConcurrency() int {
	if n := runtime.NumCPU(); n < 4 {
		return n
	}
	return 4
}

// NewQueue builds a Queue against the given Redis address, with the bounded
// concurrency spec.md §4.1 requires.
func NewQueue(redisAddr string, concurrency int) *Queue {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})
	return &Queue{
		client:    client,
		server:    server,
		mux:       asynq.NewServeMux(),
		inspector: asynq.NewInspector(redisOpt),
	}
}

func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

// EnqueueLayer enqueues a layer task with a deterministic ID
// (taskType:folderRoot:videoID) so resubmitting the same video+layer while
// it's already queued is a silent no-op, matching the teacher's
// EnqueueUnique idiom.
func (q *Queue) EnqueueLayer(taskType string, payload VideoPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("indexer: marshal payload: %w", err)
	}
	taskID := fmt.Sprintf("%s:%s:%s", taskType, payload.FolderRoot, payload.VideoID)
	task := asynq.NewTask(taskType, data, asynq.TaskID(taskID))

	info, err := q.client.Enqueue(task)
	if err == nil {
		return info.ID, nil
	}
	if !isTaskConflict(err) {
		return "", fmt.Errorf("indexer: enqueue %s: %w", taskType, err)
	}
	log.Printf("indexer: task %s already queued, skipping", taskID)
	return taskID, nil
}

// RegisterHandler wires a layer task type to its handler.
func (q *Queue) RegisterHandler(taskType string, handler asynq.HandlerFunc) {
	q.mux.HandleFunc(taskType, handler)
}

// Start runs the asynq worker server until ctx is canceled.
func (q *Queue) Start(ctx context.Context) error {
	log.Println("indexer: worker pool starting")
	go func() {
		<-ctx.Done()
		q.server.Shutdown()
	}()
	return q.server.Run(q.mux)
}

// Stop releases the client and inspector connections.
func (q *Queue) Stop() {
	q.client.Close()
	q.inspector.Close()
}
