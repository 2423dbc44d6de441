// Package appctx threads every process-wide collaborator — config, the
// Global DB, both vector indices, the embedding provider selectors, the
// subscription summary, and a pooled set of per-folder Folder DB handles —
// through an explicit *AppContext, replacing the package-level globals
// design note §9 flags (see DESIGN.md).
package appctx

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/findit-app/findit/internal/config"
	"github.com/findit-app/findit/internal/embedding"
	"github.com/findit-app/findit/internal/folderdb"
	"github.com/findit-app/findit/internal/globaldb"
	"github.com/findit-app/findit/internal/indexer"
	"github.com/findit-app/findit/internal/media"
	"github.com/findit-app/findit/internal/network"
	"github.com/findit-app/findit/internal/searchengine"
	"github.com/findit-app/findit/internal/subscription"
	"github.com/findit-app/findit/internal/vectorindex"
)

// openFolderDBPoolSize bounds how many Folder DB connections stay open at
// once; the CLI touches one folder per invocation in practice, but a
// long-running process (watcher, batch reindex) may visit several.
const openFolderDBPoolSize = 8

// AppContext holds everything an operation needs, passed by pointer
// instead of resolved from package-level state.
type AppContext struct {
	Config *config.Config

	GlobalDB  *globaldb.DB
	ClipIndex *vectorindex.Index
	TextIndex *vectorindex.Index

	ImageEmbedders    embedding.Selector[embedding.ImageEmbedder]
	TextEmbedders     embedding.Selector[embedding.TextEmbedder]
	ClipTextEmbedders embedding.Selector[embedding.TextEmbedder]
	EmbeddingCache    *embedding.Cache

	Media      *media.Service
	Subscription *subscription.Manager
	Network    *network.Observer
	VLMLimiter *rate.Limiter

	Search *searchengine.Engine

	mu        sync.Mutex
	folderDBs *lru.Cache[string, *folderdb.DB]

	clipIndexPath string
	textIndexPath string
}

// New wires every collaborator from cfg. Embedding model availability is
// not probed here — each provider's IsAvailable() degrades lazily, per
// spec.md §4.1's "CLIP model missing: skip, do not mark failed".
func New(cfg *config.Config, bearerToken string) (*AppContext, error) {
	globalDBPath := filepath.Join(cfg.DataDir, "global.sqlite")
	gdb, err := globaldb.Open(globalDBPath)
	if err != nil {
		return nil, fmt.Errorf("appctx: open global db: %w", err)
	}

	ac := &AppContext{
		Config:       cfg,
		GlobalDB:     gdb,
		Media:        media.New(cfg.FFprobePath, cfg.FFmpegPath, cfg.RedPath, cfg.BrawPath),
		Subscription: subscription.New(bearerToken),
		Network:      network.New(),
	}

	clipPath := filepath.Join(cfg.DataDir, "clip.index")
	if idx, err := openOrCreateIndex(clipPath); err != nil {
		log.Printf("appctx: clip vector index unavailable: %v", err)
	} else {
		ac.ClipIndex = idx
		ac.clipIndexPath = clipPath
	}

	textPath := filepath.Join(cfg.DataDir, "text.index")
	if idx, err := openOrCreateIndex(textPath); err != nil {
		log.Printf("appctx: text vector index unavailable: %v", err)
	} else {
		ac.TextIndex = idx
		ac.textIndexPath = textPath
	}

	clip := embedding.NewClipProvider(cfg.ClipImageModelPath, cfg.ClipTextModelPath, cfg.ClipTokenizerPath)
	gemma := embedding.NewGemmaProvider(cfg.GemmaModelPath, cfg.GemmaTokenizerPath)
	gemini := embedding.NewGeminiProvider(cfg.GeminiAPIKey)

	ac.ImageEmbedders = embedding.NewSelector[embedding.ImageEmbedder](clip)
	ac.ClipTextEmbedders = embedding.NewSelector[embedding.TextEmbedder](clip)
	ac.TextEmbedders = embedding.NewSelector[embedding.TextEmbedder](gemma, gemini)
	ac.EmbeddingCache = embedding.NewCache(cfg.EmbeddingCacheSize)

	if cfg.VLMRateLimitRPS > 0 {
		ac.VLMLimiter = rate.NewLimiter(rate.Limit(cfg.VLMRateLimitRPS), 1)
	}

	ac.Search = searchengine.New(ac.GlobalDB, ac.ClipIndex, ac.TextIndex, ac.ClipTextEmbedders, ac.TextEmbedders, ac.EmbeddingCache)

	pool, err := lru.NewWithEvict(openFolderDBPoolSize, func(_ string, db *folderdb.DB) {
		if err := db.Close(); err != nil {
			log.Printf("appctx: close evicted folder db: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("appctx: build folder db pool: %w", err)
	}
	ac.folderDBs = pool

	return ac, nil
}

// openOrCreateIndex opens an existing persisted vector index RW, or
// returns a fresh in-memory one if the file doesn't exist yet — Save is
// the caller's responsibility once writes happen.
func openOrCreateIndex(path string) (*vectorindex.Index, error) {
	idx, err := vectorindex.Load(path, vectorindex.DefaultDimensions)
	if err == nil {
		return idx, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return vectorindex.New(vectorindex.DefaultDimensions), nil
	}
	return nil, err
}

// FolderDB returns a pooled, opened Folder DB handle for folderRoot,
// opening (and evicting the least-recently-used handle, if the pool is
// full) as needed.
func (ac *AppContext) FolderDB(folderRoot string) (*folderdb.DB, error) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if db, ok := ac.folderDBs.Get(folderRoot); ok {
		return db, nil
	}
	db, err := folderdb.Open(folderRoot)
	if err != nil {
		return nil, fmt.Errorf("appctx: open folder db for %s: %w", folderRoot, err)
	}
	ac.folderDBs.Add(folderRoot, db)
	return db, nil
}

// Indexer builds an Indexer wired to this AppContext's collaborators for a
// single folder's run.
func (ac *AppContext) Indexer(folderRoot string) (*indexer.Indexer, error) {
	fdb, err := ac.FolderDB(folderRoot)
	if err != nil {
		return nil, err
	}
	ix := indexer.New(fdb, ac.GlobalDB, ac.ClipIndex, ac.TextIndex, folderRoot)
	ix.ImageEmbedders = ac.ImageEmbedders
	ix.TextEmbedders = ac.TextEmbedders
	ix.Media = ac.Media
	ix.Transcriber = indexer.NewWhisperCLI(ac.Config.WhisperPath)
	ix.VLM = indexer.NewVLMGateway(ac.Config.OpenRouterKey, ac.Config.OpenRouterURL, "")
	ix.Limiter = ac.VLMLimiter
	ix.Network = ac.Network
	return ix, nil
}

// Close flushes both vector indices to disk, then releases every open
// handle: the Global DB, the indices' write locks, and every pooled
// Folder DB connection. Every embedding an Indexer added via
// ClipIndex.Add/TextIndex.Add (internal/indexer/indexer.go) lives only in
// the in-memory HNSW graph until this Save runs, per spec.md §3's
// "persisted file + lazy mmap view" contract.
func (ac *AppContext) Close() error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	for _, root := range ac.folderDBs.Keys() {
		ac.folderDBs.Remove(root) // triggers the evict callback's Close
	}
	if ac.ClipIndex != nil {
		if err := ac.ClipIndex.Save(ac.clipIndexPath); err != nil {
			log.Printf("appctx: save clip index: %v", err)
		}
		if err := ac.ClipIndex.Close(); err != nil {
			log.Printf("appctx: close clip index: %v", err)
		}
	}
	if ac.TextIndex != nil {
		if err := ac.TextIndex.Save(ac.textIndexPath); err != nil {
			log.Printf("appctx: save text index: %v", err)
		}
		if err := ac.TextIndex.Close(); err != nil {
			log.Printf("appctx: close text index: %v", err)
		}
	}
	return ac.GlobalDB.Close()
}
