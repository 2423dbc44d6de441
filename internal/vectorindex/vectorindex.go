// Package vectorindex wraps github.com/coder/hnsw with the persistence
// envelope, RW/RO lifecycle, and single-writer file lock spec.md §4.5 and
// §6 require: one HNSW graph per (library, kind), gated from concurrent
// writers across processes by github.com/gofrs/flock.
package vectorindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/coder/hnsw"
	"github.com/gofrs/flock"

	"github.com/findit-app/findit/internal/ferrors"
	"github.com/google/uuid"
)

// KeyFromUUID derives the int64 graph key for a clip UUID: the low 8 bytes,
// taken directly rather than through an extra hash pass since UUIDs are
// already uniformly random. Shared by the indexer (writing vectors) and the
// Global DB (storing the same key alongside each mirrored clip row so a
// search hit's key can be joined back to its clip).
func KeyFromUUID(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[8:16]))
}

// Kind distinguishes the two per-library indices spec.md §4.5 requires.
type Kind string

const (
	KindClip Kind = "clip"
	KindText Kind = "text"
)

// DefaultDimensions is the fixed vector width for every supported provider.
const DefaultDimensions = 768

// DefaultM is the HNSW connectivity default from spec.md §4.5.
const DefaultM = 16

const envelopeMagic = "FCVI"
const envelopeVersion = 1

// Match is one search hit: a key and its cosine similarity, clamped to
// [0,1] per spec.md §4.5 ("floating-point cosine on near-identical unit
// vectors can yield slight overshoots").
type Match struct {
	Key       int64
	Similarity float32
}

// Index is a single persisted HNSW graph, opened either RW (indexer,
// single-writer) or RO (query engine view). A view reads the whole file
// into memory; nothing is memory-mapped.
type Index struct {
	mu       sync.Mutex
	graph    *hnsw.Graph[int64]
	dims     int
	readOnly bool
	path     string
	lock     *flock.Flock
}

// New constructs an empty, writable, in-memory index of the given
// dimension, not yet backed by a file. Callers that want on-disk
// persistence call Save/Load/View with a path.
func New(dims int) *Index {
	g := hnsw.NewGraph[int64]()
	g.M = DefaultM
	g.Distance = hnsw.CosineDistance
	return &Index{graph: g, dims: dims}
}

// Add inserts or replaces a single vector under key. Returns ErrReadOnly
// if the index was opened as a view.
func (idx *Index) Add(key int64, vec []float32) error {
	if idx.readOnly {
		return ferrors.ErrReadOnly
	}
	if len(vec) != idx.dims {
		return ferrors.Validation(fmt.Sprintf("vector has %d dims, want %d", len(vec), idx.dims))
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.graph.Add(hnsw.Node[int64]{Key: key, Value: hnsw.Vector(vec)})
	return nil
}

// AddBatch inserts many vectors in one call, avoiding per-vector lock churn.
func (idx *Index) AddBatch(keys []int64, vecs [][]float32) error {
	if idx.readOnly {
		return ferrors.ErrReadOnly
	}
	if len(keys) != len(vecs) {
		return ferrors.Validation("keys and vectors length mismatch")
	}
	nodes := make([]hnsw.Node[int64], len(keys))
	for i, k := range keys {
		if len(vecs[i]) != idx.dims {
			return ferrors.Validation(fmt.Sprintf("vector %d has %d dims, want %d", i, len(vecs[i]), idx.dims))
		}
		nodes[i] = hnsw.Node[int64]{Key: k, Value: hnsw.Vector(vecs[i])}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.graph.Add(nodes...)
	return nil
}

// Remove deletes a key from the index, if present.
func (idx *Index) Remove(key int64) error {
	if idx.readOnly {
		return ferrors.ErrReadOnly
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.graph.Delete(key)
	return nil
}

// Search returns the k nearest neighbors to query, cosine similarity
// clamped to [0,1].
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	if len(query) != idx.dims {
		return nil, ferrors.Validation(fmt.Sprintf("query has %d dims, want %d", len(query), idx.dims))
	}
	idx.mu.Lock()
	hits := idx.graph.Search(hnsw.Vector(query), k)
	idx.mu.Unlock()

	out := make([]Match, len(hits))
	for i, h := range hits {
		sim := 1 - cosineDistance(query, h.Value)
		out[i] = Match{Key: h.Key, Similarity: clamp01(sim)}
	}
	return out, nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func cosineDistance(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}

// Len reports the number of vectors currently in the index.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.graph.Len()
}

// Clear empties the in-memory graph, keeping dimension/config.
func (idx *Index) Clear() error {
	if idx.readOnly {
		return ferrors.ErrReadOnly
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	g := hnsw.NewGraph[int64]()
	g.M = DefaultM
	g.Distance = hnsw.CosineDistance
	idx.graph = g
	return nil
}

// Save persists the index to path under an exclusive single-writer file
// lock: the one a Load'd index already holds for path, or otherwise one
// acquired for the duration of the write.
func (idx *Index) Save(path string) error {
	if idx.readOnly {
		return ferrors.ErrReadOnly
	}
	lockPath := path + ".lock"
	if idx.lock == nil || idx.lock.Path() != lockPath || !idx.lock.Locked() {
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("vectorindex: acquire write lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("vectorindex: %s is held by another writer", path)
		}
		defer lock.Unlock()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vectorindex: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(envelopeMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(envelopeVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(idx.dims)); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.graph.Export(w); err != nil {
		return fmt.Errorf("vectorindex: export graph: %w", err)
	}
	idx.path = path
	return w.Flush()
}

// Load opens path for read-write use (the indexer side). It takes an
// advisory exclusive lock that is released on Close, preventing a second
// RW opener in another process.
func Load(path string, dims int) (*Index, error) {
	idx, lock, err := openEnvelope(path, dims)
	if err != nil {
		return nil, err
	}
	if !lock.Locked() {
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("vectorindex: acquire write lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("vectorindex: %s is held by another writer", path)
		}
	}
	idx.lock = lock
	idx.path = path
	return idx, nil
}

// View opens path read-only (the query-engine side); any mutating call
// returns ErrReadOnly. No lock is taken since concurrent readers are safe.
func View(path string, dims int) (*Index, error) {
	idx, _, err := openEnvelope(path, dims)
	if err != nil {
		return nil, err
	}
	idx.readOnly = true
	idx.path = path
	return idx, nil
}

func openEnvelope(path string, dims int) (*Index, *flock.Flock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("vectorindex: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(envelopeMagic))
	if _, err := f.Read(magic); err != nil {
		return nil, nil, fmt.Errorf("vectorindex: read magic: %w", err)
	}
	if string(magic) != envelopeMagic {
		return nil, nil, fmt.Errorf("vectorindex: %s is not a vector index file", path)
	}
	var version, fileDims uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &fileDims); err != nil {
		return nil, nil, err
	}
	if int(fileDims) != dims {
		return nil, nil, fmt.Errorf("vectorindex: %s has %d dims, want %d", path, fileDims, dims)
	}

	g := hnsw.NewGraph[int64]()
	g.M = DefaultM
	g.Distance = hnsw.CosineDistance
	if err := g.Import(r); err != nil {
		return nil, nil, fmt.Errorf("vectorindex: import graph: %w", err)
	}

	return &Index{graph: g, dims: dims}, flock.New(path + ".lock"), nil
}

// Close releases the write lock, if any, held by a Load'd index.
func (idx *Index) Close() error {
	if idx.lock != nil {
		return idx.lock.Unlock()
	}
	return nil
}
