// Package watcher observes registered folders for filesystem changes and
// emits a coalesced, deduplicated event stream, generalizing the teacher's
// fsnotify-based per-path debounce watcher (internal/watcher/watcher.go)
// into spec.md §4.7's latency-coalesced batch model.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/findit-app/findit/internal/scanner"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Kind is the classified event kind surfaced to callers.
type Kind string

const (
	KindAdded        Kind = "added"
	KindRemoved      Kind = "removed"
	KindModified     Kind = "modified"
	KindRescanNeeded Kind = "rescan_needed"
)

// Event is one coalesced, classified filesystem change.
type Event struct {
	FolderID uuid.UUID
	Path     string
	Kind     Kind
}

// OnEvents is invoked once per coalesced batch flush.
type OnEvents func(events []Event)

// Watcher observes one or more registered folder roots and flushes a
// deduplicated batch of classified events on a fixed latency window.
type Watcher struct {
	fw       *fsnotify.Watcher
	callback OnEvents
	window   time.Duration

	mu      sync.Mutex
	roots   map[string]uuid.UUID // watched directory -> owning folder ID
	pending map[string]rawEvent  // path -> last-seen raw event this batch
	timer   *time.Timer

	stop chan struct{}
	done chan struct{}
}

type rawEvent struct {
	folderID uuid.UUID
	op       fsnotify.Op
}

// New creates a Watcher with the given coalesce window (spec default 1.5s).
func New(window time.Duration, cb OnEvents) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if window <= 0 {
		window = 1500 * time.Millisecond
	}
	return &Watcher{
		fw:       fw,
		callback: cb,
		window:   window,
		roots:    make(map[string]uuid.UUID),
		pending:  make(map[string]rawEvent),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// AddRoot recursively registers root (and every subdirectory) under the
// given folder ID.
func (w *Watcher) AddRoot(root string, folderID uuid.UUID) error {
	w.mu.Lock()
	w.roots[root] = folderID
	w.mu.Unlock()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name() == ".clip-index" {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// Start begins the event loop in the background.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop halts the watcher and releases its fsnotify handle.
func (w *Watcher) Stop() {
	close(w.stop)
	w.fw.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.record(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		case <-w.stop:
			return
		}
	}
}

// record filters hidden/temp/non-media/`.clip-index` paths, then stashes
// the raw event for the current coalesce window, scheduling a flush.
func (w *Watcher) record(ev fsnotify.Event) {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part") {
		return
	}
	if strings.Contains(ev.Name, string(filepath.Separator)+".clip-index"+string(filepath.Separator)) {
		return
	}

	info, statErr := os.Stat(ev.Name)
	if statErr == nil && info.IsDir() {
		// Directory events are dropped, but a newly-created directory
		// still needs to be watched so files added under it are seen.
		if ev.Has(fsnotify.Create) {
			if folderID := w.resolveRoot(ev.Name); folderID != uuid.Nil {
				w.fw.Add(ev.Name)
			}
		}
		return
	}

	if !scanner.IsMediaExtension(filepath.Ext(ev.Name)) {
		return
	}

	folderID := w.resolveRoot(ev.Name)
	if folderID == uuid.Nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Last kind wins within a batch: overwrite any previously pending op.
	w.pending[ev.Name] = rawEvent{folderID: folderID, op: ev.Op}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.window, w.flush)
	}
}

// handleError surfaces a kernel overflow (fsnotify delivers overflow and
// root-removal conditions on the Errors channel) as a single
// rescan_needed event per currently-watched root.
func (w *Watcher) handleError(err error) {
	log.Printf("[watcher] error: %v, issuing rescan_needed for all roots", err)
	w.mu.Lock()
	roots := make(map[string]uuid.UUID, len(w.roots))
	for k, v := range w.roots {
		roots[k] = v
	}
	w.mu.Unlock()

	var events []Event
	for root, folderID := range roots {
		events = append(events, Event{FolderID: folderID, Path: root, Kind: KindRescanNeeded})
	}
	if len(events) > 0 {
		w.callback(events)
	}
}

// flush classifies every path pending in the current batch against its
// live filesystem existence, then delivers the deduplicated batch.
func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]rawEvent)
	w.timer = nil
	w.mu.Unlock()

	events := make([]Event, 0, len(batch))
	for path, raw := range batch {
		events = append(events, Event{FolderID: raw.folderID, Path: path, Kind: classify(path, raw.op)})
	}
	if len(events) > 0 {
		w.callback(events)
	}
}

// classify implements spec.md §4.7's classification rule: existence at
// delivery time, not at raw-event time, decides added/modified/removed.
func classify(path string, op fsnotify.Op) Kind {
	_, err := os.Stat(path)
	exists := err == nil

	if !exists {
		return KindRemoved
	}

	switch {
	case op.Has(fsnotify.Create), op.Has(fsnotify.Rename):
		return KindAdded
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return KindModified
	default:
		return KindModified
	}
}

func (w *Watcher) resolveRoot(path string) uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir := filepath.Dir(path)
	for dir != "/" && dir != "." {
		if id, ok := w.roots[dir]; ok {
			return id
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return uuid.Nil
}

// Deduplicate retains only the last event per path, preserving the order
// of first appearance. Exposed standalone so it can be exercised directly
// against spec.md §8's watcher-dedup invariant without spinning up a real
// fsnotify watcher.
func Deduplicate(events []Event) []Event {
	lastIdx := make(map[string]int, len(events))
	order := make([]string, 0, len(events))
	for i, ev := range events {
		if _, seen := lastIdx[ev.Path]; !seen {
			order = append(order, ev.Path)
		}
		lastIdx[ev.Path] = i
	}
	out := make([]Event, 0, len(order))
	for _, p := range order {
		out = append(out, events[lastIdx[p]])
	}
	return out
}
