// Package searchengine implements the Hybrid Search Engine from spec.md
// §4.2: a three-way fusion of lexical FTS, CLIP image-similarity, and text
// embedding-similarity, with cross-language query expansion and
// folder-scoped, filtered, paginated output.
package searchengine

import (
	"context"
	"log"
	"strings"

	"github.com/findit-app/findit/internal/embedding"
	"github.com/findit-app/findit/internal/filter"
	"github.com/findit-app/findit/internal/globaldb"
	"github.com/findit-app/findit/internal/models"
	"github.com/findit-app/findit/internal/query"
	"github.com/findit-app/findit/internal/vectorindex"
)

// Mode selects which of the three fusion sources run, per spec.md §4.2.
type Mode string

const (
	ModeFTS        Mode = "fts"
	ModeVector     Mode = "vector"
	ModeTextVector Mode = "text-vector"
	ModeAuto       Mode = "auto"
)

// Weights are the per-source fusion multipliers applied to
// final_score = w_fts·norm(fts_rank) + w_clip·clip_sim + w_text·text_sim.
type Weights struct {
	FTS  float64
	Clip float64
	Text float64
}

// DefaultWeights is spec.md §4.2's default fusion weighting (0.4, 0.3, 0.3).
var DefaultWeights = Weights{FTS: 0.4, Clip: 0.3, Text: 0.3}

// crossLanguageDiscount is applied to the second, translated FTS pass
// before fusion, per spec.md §4.2's cross-language expansion rule.
const crossLanguageDiscount = 0.8

// fanoutMultiplier controls how many candidates each ANN/FTS stage
// retrieves relative to the caller's limit, per spec.md §4.2 ("limit*2").
const fanoutMultiplier = 2

// Result is one fused, filterable search hit, enriched with the full
// mirrored clip row for display.
type Result struct {
	Row        globaldb.ClipRow
	FTSScore   float64
	ClipScore  float64
	TextScore  float64
	FusedScore float64
}

// Engine ties the Global DB (FTS + mirrored clip rows), both vector
// indices, and the embedding provider selectors together into the single
// `hybrid_search` operation spec.md §4.2 names.
type Engine struct {
	GlobalDB  *globaldb.DB
	ClipIndex *vectorindex.Index // image (CLIP) vector index
	TextIndex *vectorindex.Index // text-embedding vector index

	// ClipTextEmbedders encodes the query via a CLIP text encoder to query
	// ClipIndex, per spec.md §4.2 step 4. TextEmbedders encodes the query
	// via the general text-embedding provider to query TextIndex, per step 3.
	// Both are TextEmbedder selectors; they are kept distinct because the
	// two vector indices are built from different encoder families and are
	// not directly comparable.
	ClipTextEmbedders embedding.Selector[embedding.TextEmbedder]
	TextEmbedders     embedding.Selector[embedding.TextEmbedder]

	Cache      *embedding.Cache
	Translator query.Translator
}

// New constructs an Engine. Cache and Translator may be nil.
func New(globalDB *globaldb.DB, clipIndex, textIndex *vectorindex.Index, clipTextEmbedders, textEmbedders embedding.Selector[embedding.TextEmbedder], cache *embedding.Cache) *Engine {
	return &Engine{
		GlobalDB:          globalDB,
		ClipIndex:         clipIndex,
		TextIndex:         textIndex,
		ClipTextEmbedders: clipTextEmbedders,
		TextEmbedders:     textEmbedders,
		Cache:             cache,
	}
}

// candidateKey uniquely identifies a mirrored clip row for dedup purposes.
func candidateKey(row globaldb.ClipRow) string {
	return row.SourceFolder + "\x00" + row.SourceClipID
}

// Search runs `hybrid_search(query, mode, folder_scope?, limit, filter?)`
// per spec.md §4.2: fuses up to three candidate sources, deduplicates by
// clip keeping the max per-source score, applies filter.Apply for the
// final predicate/sort/paginate step.
func (e *Engine) Search(ctx context.Context, rawQuery string, mode Mode, folderScope []string, pred filter.Predicate, sortField filter.SortField, offset, limit int, weights Weights) ([]Result, error) {
	if mode == "" {
		mode = ModeAuto
	}
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	w := effectiveWeights(mode, weights)

	exp := query.Expand(rawQuery, e.Translator)
	candidates := map[string]*Result{}

	if w.FTS > 0 {
		e.runFTSStage(exp, folderScope, offset+limit, candidates)
	}
	if w.Clip > 0 {
		e.runClipVectorStage(ctx, exp, folderScope, offset+limit, candidates)
	}
	if w.Text > 0 {
		e.runTextVectorStage(ctx, exp, folderScope, offset+limit, candidates)
	}

	results := make([]Result, 0, len(candidates))
	filterable := make([]filter.Result, 0, len(candidates))
	for _, c := range candidates {
		c.FusedScore = w.FTS*c.FTSScore + w.Clip*c.ClipScore + w.Text*c.TextScore
		results = append(results, *c)
		filterable = append(filterable, toFilterResult(*c))
	}

	// Stable-sort both slices by fused score descending before handing off
	// to filter.Apply, whose SortRelevance case is a documented no-op that
	// trusts the caller's incoming order.
	sortByScoreDesc(results, filterable)

	applied := filter.Apply(filterable, pred, sortField, offset, limit)
	out := make([]Result, 0, len(applied))
	byKey := make(map[string]Result, len(results))
	for _, r := range results {
		byKey[candidateKey(r.Row)] = r
	}
	for _, a := range applied {
		if full, ok := byKey[a.ClipID]; ok {
			out = append(out, full)
		}
	}
	return out, nil
}

// effectiveWeights zeroes out every source the requested mode excludes,
// per spec.md §4.2 ("when mode forces a single source, the other weights
// are 0").
func effectiveWeights(mode Mode, w Weights) Weights {
	switch mode {
	case ModeFTS:
		return Weights{FTS: w.FTS}
	case ModeVector:
		return Weights{Clip: w.Clip}
	case ModeTextVector:
		return Weights{Text: w.Text}
	default:
		return w
	}
}

// runFTSStage runs the primary FTS pass plus, when the query is CJK with a
// translation available (or vice versa), a second discounted pass, per
// spec.md §4.2's cross-language expansion rule. FTS failures degrade
// silently to zero FTS contribution rather than failing the whole search.
func (e *Engine) runFTSStage(exp query.Expansion, folderScope []string, fetch int, candidates map[string]*Result) {
	primary := buildFTSQuery(exp.Positive, exp.Quoted, exp.Negative)
	if primary != "" {
		e.fetchFTS(primary, folderScope, fetch*fanoutMultiplier, 1.0, candidates)
	}
	if exp.HasTranslation {
		translated := buildFTSQuery(strings.Fields(exp.TranslatedFTS), exp.Quoted, exp.Negative)
		if translated != "" && translated != primary {
			e.fetchFTS(translated, folderScope, fetch*fanoutMultiplier, crossLanguageDiscount, candidates)
		}
	}
}

func (e *Engine) fetchFTS(ftsQuery string, folderScope []string, limit int, discount float64, candidates map[string]*Result) {
	hits, err := e.GlobalDB.SearchFTS(ftsQuery, folderScope, limit)
	if err != nil {
		log.Printf("searchengine: fts query %q failed, degrading to 0 fts results: %v", ftsQuery, err)
		return
	}
	for _, h := range hits {
		row, err := e.GlobalDB.GetClip(h.SourceFolder, h.SourceClipID)
		if err != nil || row == nil {
			continue
		}
		norm := clamp01(1.0 / (1.0 + h.Rank) * discount)
		c := candidateFor(candidates, *row)
		if norm > c.FTSScore {
			c.FTSScore = norm
		}
	}
}

// runClipVectorStage embeds the query via a CLIP text encoder and searches
// the image vector index, per spec.md §4.2 step 4. A missing encoder or an
// embed failure degrades silently to no CLIP contribution.
func (e *Engine) runClipVectorStage(ctx context.Context, exp query.Expansion, folderScope []string, fetch int, candidates map[string]*Result) {
	if e.ClipIndex == nil {
		return
	}
	embedder, ok := e.ClipTextEmbedders.Pick()
	if !ok {
		return
	}
	vec, err := e.embedCached(ctx, embedder, "clip:", exp.EmbeddingText)
	if err != nil {
		log.Printf("searchengine: clip query embedding failed, degrading: %v", err)
		return
	}
	matches, err := e.ClipIndex.Search(vec, fetch*fanoutMultiplier)
	if err != nil {
		log.Printf("searchengine: clip vector search failed, degrading: %v", err)
		return
	}
	e.applyVectorMatches(matches, folderScope, candidates, func(c *Result, sim float64) {
		if sim > c.ClipScore {
			c.ClipScore = sim
		}
	})
}

// runTextVectorStage embeds the query via the general text-embedding
// provider and searches the text vector index, per spec.md §4.2 step 3.
func (e *Engine) runTextVectorStage(ctx context.Context, exp query.Expansion, folderScope []string, fetch int, candidates map[string]*Result) {
	if e.TextIndex == nil || len(exp.Positive) == 0 {
		return
	}
	embedder, ok := e.TextEmbedders.Pick()
	if !ok {
		return
	}
	vec, err := e.embedCached(ctx, embedder, "text:", exp.EmbeddingText)
	if err != nil {
		log.Printf("searchengine: text query embedding failed, degrading: %v", err)
		return
	}
	matches, err := e.TextIndex.Search(vec, fetch*fanoutMultiplier)
	if err != nil {
		log.Printf("searchengine: text vector search failed, degrading: %v", err)
		return
	}
	e.applyVectorMatches(matches, folderScope, candidates, func(c *Result, sim float64) {
		if sim > c.TextScore {
			c.TextScore = sim
		}
	})
}

func (e *Engine) applyVectorMatches(matches []vectorindex.Match, folderScope []string, candidates map[string]*Result, apply func(*Result, float64)) {
	scope := scopeSet(folderScope)
	for _, m := range matches {
		row, err := e.GlobalDB.GetClipByVectorKey(m.Key)
		if err != nil || row == nil {
			continue
		}
		if len(scope) > 0 && !scope[row.SourceFolder] {
			continue
		}
		c := candidateFor(candidates, *row)
		apply(c, float64(m.Similarity))
	}
}

// embedCached embeds text through embedder, going through e.Cache first
// when configured, per spec.md §4.2's "embed the query text (cached LRU,
// key = lowercased+trimmed)". The cache key is keyPrefix+text, so CLIP and
// text-model vectors for the same query are cached apart; only text itself
// is sent to the embedder.
func (e *Engine) embedCached(ctx context.Context, embedder embedding.TextEmbedder, keyPrefix, text string) ([]float32, error) {
	cacheKey := keyPrefix + text
	if e.Cache != nil {
		if vec, ok := e.Cache.Get(cacheKey); ok {
			return vec, nil
		}
	}
	vec, err := embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	embedding.Normalize(vec)
	if e.Cache != nil {
		e.Cache.Put(cacheKey, vec)
	}
	return vec, nil
}

func candidateFor(candidates map[string]*Result, row globaldb.ClipRow) *Result {
	key := candidateKey(row)
	c, ok := candidates[key]
	if !ok {
		c = &Result{Row: row}
		candidates[key] = c
	}
	return c
}

func scopeSet(folderScope []string) map[string]bool {
	if len(folderScope) == 0 {
		return nil
	}
	set := make(map[string]bool, len(folderScope))
	for _, f := range folderScope {
		set[f] = true
	}
	return set
}

func toFilterResult(r Result) filter.Result {
	return filter.Result{
		ClipID:     candidateKey(r.Row),
		Rating:     r.Row.Rating,
		ColorLabel: models.ColorLabel(r.Row.ColorLabel),
		ShotType:   r.Row.ShotType,
		Mood:       r.Row.Mood,
		Score:      r.FusedScore,
		CreatedAt:  r.Row.UpdatedAt.Unix(),
		Duration:   r.Row.EndTime - r.Row.StartTime,
	}
}

func sortByScoreDesc(results []Result, filterable []filter.Result) {
	// Simple insertion sort: candidate sets are bounded by limit*fanout and
	// stay small (a handful of hundreds at most), so this avoids pulling in
	// sort.Slice's reflection-based comparator for two parallel slices.
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && filterable[j-1].Score < filterable[j].Score {
			results[j-1], results[j] = results[j], results[j-1]
			filterable[j-1], filterable[j] = filterable[j], filterable[j-1]
			j--
		}
	}
}

// buildFTSQuery assembles an FTS5 MATCH expression from parsed query
// terms, per spec.md §4.3/§4.2: positive terms and quoted phrases AND
// together (FTS5's default for space-separated terms), negative terms
// become NOT clauses. Every token is quoted as an FTS5 string literal so
// punctuation in a filename-derived tag can never produce a MATCH syntax
// error.
func buildFTSQuery(positive, quoted, negative []string) string {
	var parts []string
	for _, t := range positive {
		if t == "" {
			continue
		}
		parts = append(parts, quoteFTSToken(t))
	}
	for _, q := range quoted {
		if q == "" {
			continue
		}
		parts = append(parts, quoteFTSToken(q))
	}
	out := strings.Join(parts, " ")
	for _, n := range negative {
		if n == "" {
			continue
		}
		out += " NOT " + quoteFTSToken(n)
	}
	return strings.TrimSpace(out)
}

func quoteFTSToken(t string) string {
	return `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
