package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/bookrag/internal/chunk"
	"github.com/dgallion1/bookrag/internal/embedding"
	"github.com/dgallion1/bookrag/internal/hierarchy"
	"github.com/dgallion1/bookrag/internal/vecindex"
)

// Strategy selects how the hybrid engine traverses the per-level indices.
type Strategy string

const (
	StrategyTopDown  Strategy = "top_down"
	StrategyBottomUp Strategy = "bottom_up"
	StrategyHybrid   Strategy = "hybrid"
)

const (
	topDownLevels  = 3 // coarsest levels searched top-down
	bottomUpLevels = 2 // finest levels searched bottom-up
	maxChildChunks = 3
)

// scoredChunk is an intermediate (chunk, similarity) candidate.
type scoredChunk struct {
	chunk chunk.Chunk
	score float32
}

// searcher is a ranked search over some slice of the hierarchy. The hybrid
// strategy composes two searchers rather than special-casing.
type searcher interface {
	search(queryVec []float32, k int, threshold float32) ([]scoredChunk, error)
}

// HybridEngine runs level-aware fusion strategies over the per-level
// indices and enriches hits with their full ancestor chain.
type HybridEngine struct {
	set      *vecindex.Set
	maps     chunk.HierarchyMaps
	embedder embedding.Embedder
	log      *slog.Logger
}

// NewHybridEngine wires a hybrid engine over a built index set.
func NewHybridEngine(set *vecindex.Set, maps chunk.HierarchyMaps, embedder embedding.Embedder, log *slog.Logger) *HybridEngine {
	return &HybridEngine{set: set, maps: maps, embedder: embedder, log: log}
}

// Retrieve dispatches to the selected strategy and enriches each candidate.
func (h *HybridEngine) Retrieve(ctx context.Context, query string, k int, threshold float32, strategy Strategy) ([]Result, error) {
	if !h.set.Ready() {
		return nil, vecindex.ErrIndexNotReady
	}
	qv, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vecindex.Normalize(qv)

	var candidates []scoredChunk
	switch strategy {
	case StrategyTopDown:
		candidates, err = (&topDownSearcher{h.set}).search(qv, k, threshold)
	case StrategyBottomUp:
		candidates, err = (&bottomUpSearcher{h.set}).search(qv, k, threshold)
	default:
		candidates, err = h.hybrid(qv, k, threshold)
	}
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, h.enrich(cand))
	}
	return results, nil
}

// hybrid composes top-down and bottom-up, each for k/2, then merges by
// descending score with first-occurrence dedup, keeping up to 2k before the
// final truncation to k.
func (h *HybridEngine) hybrid(qv []float32, k int, threshold float32) ([]scoredChunk, error) {
	top, err := (&topDownSearcher{h.set}).search(qv, k/2, threshold)
	if err != nil {
		return nil, err
	}
	bottom, err := (&bottomUpSearcher{h.set}).search(qv, k/2, threshold)
	if err != nil {
		return nil, err
	}
	return mergeByScore(top, bottom, k), nil
}

// enrich walks the ancestor chain for a candidate. The walk terminates by
// construction (no cycles in parent_map) and is capped at the level count
// defensively.
func (h *HybridEngine) enrich(cand scoredChunk) Result {
	var parents []chunk.Chunk
	depth := 0
	cur := h.maps.Parent[cand.chunk.ID]
	for cur != "" && depth < hierarchy.MaxLevel {
		parent, ok := h.set.ByID(cur)
		if !ok {
			break
		}
		parents = append(parents, parent)
		cur = h.maps.Parent[cur]
		depth++
	}

	var children []chunk.Chunk
	for _, childID := range h.maps.Children[cand.chunk.ID] {
		if child, ok := h.set.ByID(childID); ok {
			children = append(children, child)
		}
		if len(children) >= maxChildChunks {
			break
		}
	}

	return Result{
		ChunkID:      cand.chunk.ID,
		Text:         cand.chunk.Text,
		Similarity:   cand.score,
		Meta:         cand.chunk.Meta,
		ChildCount:   h.maps.ChildCount(cand.chunk.ID),
		ParentChunks: parents,
		ChildChunks:  children,
		Depth:        depth,
	}
}

// topDownSearcher searches the coarsest levels.
type topDownSearcher struct {
	set *vecindex.Set
}

func (s *topDownSearcher) search(qv []float32, k int, threshold float32) ([]scoredChunk, error) {
	levels := s.set.Levels()
	if len(levels) > topDownLevels {
		levels = levels[:topDownLevels]
	}
	return searchLevels(s.set, levels, qv, k, 2*k, threshold)
}

// bottomUpSearcher searches the finest levels.
type bottomUpSearcher struct {
	set *vecindex.Set
}

func (s *bottomUpSearcher) search(qv []float32, k int, threshold float32) ([]scoredChunk, error) {
	levels := s.set.Levels()
	n := len(levels)
	take := bottomUpLevels
	if take > n {
		take = n
	}
	fine := make([]int, 0, take)
	for i := n - 1; i >= n-take; i-- {
		fine = append(fine, levels[i])
	}
	return searchLevels(s.set, fine, qv, k, 3*k, threshold)
}

// searchLevels collects threshold-clearing hits from each level index and
// returns the best k overall.
func searchLevels(set *vecindex.Set, levels []int, qv []float32, k, perLevel int, threshold float32) ([]scoredChunk, error) {
	var out []scoredChunk
	for _, level := range levels {
		topN := perLevel
		if size := set.LevelSize(level); topN > size {
			topN = size
		}
		hits, err := set.SearchLevel(level, qv, topN)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			if hit.Pos < 0 || hit.Score < threshold {
				continue
			}
			if c, ok := set.LevelChunk(level, hit.Pos); ok {
				out = append(out, scoredChunk{chunk: c, score: hit.Score})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// mergeByScore fuses two candidate lists by descending score, deduplicating
// by chunk id (first occurrence, i.e. the higher score, wins).
func mergeByScore(a, b []scoredChunk, k int) []scoredChunk {
	merged := append(append([]scoredChunk{}, a...), b...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].score > merged[j].score })

	seen := make(map[string]bool)
	var unique []scoredChunk
	for _, cand := range merged {
		if seen[cand.chunk.ID] {
			continue
		}
		seen[cand.chunk.ID] = true
		unique = append(unique, cand)
		if len(unique) >= 2*k {
			break
		}
	}
	if len(unique) > k {
		unique = unique[:k]
	}
	return unique
}
