// Package embedding models the Dynamic `any EmbeddingProvider` design note
// (spec.md §9) as a Go sum type: a Provider interface with three concrete
// implementations (ClipProvider, GemmaProvider, GeminiProvider), selected
// by trying providers in a configured order and skipping any whose
// IsAvailable() reports false.
package embedding

import (
	"context"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/findit-app/findit/internal/models"
)

// Kind distinguishes what a provider embeds.
type Kind int

const (
	KindImage Kind = iota
	KindText
)

// Provider is the sum-type interface every embedding backend implements.
type Provider interface {
	// Name identifies the provider for the embedding_model tag persisted
	// alongside every clip embedding (spec.md §3's model-compatibility
	// invariant).
	Name() string
	// IsAvailable reports whether this provider is currently usable (model
	// file present, API key configured, network reachable, etc).
	IsAvailable() bool
}

// ImageEmbedder is implemented by providers that can embed a keyframe.
type ImageEmbedder interface {
	Provider
	EmbedImage(ctx context.Context, jpegBytes []byte) ([]float32, error)
}

// TextEmbedder is implemented by providers that can embed text.
type TextEmbedder interface {
	Provider
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Selector tries a configured ordered list of providers and returns the
// first one whose IsAvailable() is true, per spec.md §9's "selection is a
// sequence of providers tried in order."
type Selector[T Provider] struct {
	candidates []T
}

// NewSelector builds a Selector over the given providers, in priority order.
func NewSelector[T Provider](candidates ...T) Selector[T] {
	return Selector[T]{candidates: candidates}
}

// Pick returns the first available provider, or the zero value and false
// if none are available.
func (s Selector[T]) Pick() (T, bool) {
	for _, c := range s.candidates {
		if c.IsAvailable() {
			return c, true
		}
	}
	var zero T
	return zero, false
}

// Cache is an LRU of text -> embedding, keyed by lowercased+trimmed query
// text per spec.md §4.2 ("embed the query text (cached LRU, key =
// lowercased+trimmed)").
type Cache struct {
	lru *lru.Cache[string, []float32]
}

// NewCache builds an embedding cache with the given entry capacity.
func NewCache(size int) *Cache {
	c, _ := lru.New[string, []float32](size)
	return &Cache{lru: c}
}

func (c *Cache) Get(key string) ([]float32, bool) {
	return c.lru.Get(normalizeCacheKey(key))
}

func (c *Cache) Put(key string, vec []float32) {
	c.lru.Add(normalizeCacheKey(key), vec)
}

func normalizeCacheKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize L2-normalizes v in place, matching spec.md §4.1 layer 1's
// "encode each via CLIP image encoder; L2-normalize" step.
func Normalize(v []float32) {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// ModelCompatible reports whether an embedding's recorded model belongs to
// the single 768-d compatibility class spec.md §3 defines (all providers
// emit the same width; model name only distinguishes provenance, not
// compatibility).
func ModelCompatible(embeddingModel string, dims int) bool {
	return embeddingModel != "" && dims == models.EmbeddingDimensions
}
