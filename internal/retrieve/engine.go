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

const (
	parentPreviewLen = 150
	childParentLen   = 200
	maxChildResults  = 2
	overFetchFactor  = 3
)

// Engine is the adaptive retriever: flat-index search with hierarchy-aware
// enrichment. Safe for concurrent use; it only reads the immutable index
// set and maps.
type Engine struct {
	set      *vecindex.Set
	maps     chunk.HierarchyMaps
	embedder embedding.Embedder
	log      *slog.Logger
}

// NewEngine wires a retrieval engine over a built index set.
func NewEngine(set *vecindex.Set, maps chunk.HierarchyMaps, embedder embedding.Embedder, log *slog.Logger) *Engine {
	return &Engine{set: set, maps: maps, embedder: embedder, log: log}
}

// Retrieve answers a query with the flat-search strategy: over-fetch,
// threshold filter, dedup keeping the highest-scoring occurrence, truncate
// to K, then enrich. Child enrichment can grow the list beyond K by design;
// callers truncate again if they need a hard cap. An empty result list is a
// valid outcome, distinct from an error.
func (e *Engine) Retrieve(ctx context.Context, query string, p Params) ([]Result, error) {
	qv, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vecindex.Normalize(qv)

	hits, err := e.set.SearchFlat(qv, overFetchFactor*p.K)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, p.K)
	seen := make(map[string]bool)

	for _, hit := range hits {
		if hit.Pos < 0 || hit.Score < p.Threshold {
			continue
		}
		c, ok := e.set.FlatChunk(hit.Pos)
		if !ok || seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		r := Result{
			ChunkID:    c.ID,
			Text:       c.Text,
			Similarity: hit.Score,
			Meta:       c.Meta,
			ChildCount: e.maps.ChildCount(c.ID),
		}
		if p.IncludeParent {
			r.ParentText = e.ancestorPreview(c.ID)
		}
		results = append(results, r)
		if len(results) >= p.K {
			break
		}
	}

	if p.IncludeChildren {
		results = e.appendRelevantChildren(ctx, results, qv, p.Threshold, seen)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results, nil
}

// ancestorPreview walks up to the nearest ancestor present in the chunk set
// and returns its truncated text. The walk is acyclic by construction but
// capped defensively at the level count.
func (e *Engine) ancestorPreview(id string) string {
	cur := e.maps.Parent[id]
	for steps := 0; cur != "" && steps < hierarchy.MaxLevel; steps++ {
		if parent, ok := e.set.ByID(cur); ok {
			return truncate(parent.Text, parentPreviewLen)
		}
		cur = e.maps.Parent[cur]
	}
	return ""
}

// appendRelevantChildren re-scores the children of every primary hit
// against the query vector in a single embedding batch and appends up to
// two children per hit that clear 0.8× the threshold. A failed batch skips
// enrichment without aborting the primary results.
func (e *Engine) appendRelevantChildren(ctx context.Context, results []Result, qv []float32, threshold float32, seen map[string]bool) []Result {
	type candidate struct {
		parentIdx int
		chunk     chunk.Chunk
	}
	var candidates []candidate
	var texts []string

	for i, r := range results {
		for _, childID := range e.maps.Children[r.ChunkID] {
			child, ok := e.set.ByID(childID)
			if !ok || seen[child.ID] {
				continue
			}
			candidates = append(candidates, candidate{parentIdx: i, chunk: child})
			texts = append(texts, child.Text)
		}
	}
	if len(candidates) == 0 {
		return results
	}

	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		e.log.Warn("child re-scoring failed, skipping enrichment", "error", err)
		return results
	}

	childThreshold := threshold * 0.8
	type scored struct {
		chunk chunk.Chunk
		score float32
	}
	perParent := make(map[int][]scored)
	for i, cand := range candidates {
		score := vecindex.Dot(vecindex.Normalize(vectors[i]), qv)
		if score < childThreshold {
			continue
		}
		perParent[cand.parentIdx] = append(perParent[cand.parentIdx], scored{chunk: cand.chunk, score: score})
	}

	primary := len(results)
	for parentIdx := 0; parentIdx < primary; parentIdx++ {
		kids := perParent[parentIdx]
		sort.SliceStable(kids, func(i, j int) bool { return kids[i].score > kids[j].score })
		if len(kids) > maxChildResults {
			kids = kids[:maxChildResults]
		}
		parentText := truncate(results[parentIdx].Text, childParentLen)
		for _, kid := range kids {
			if seen[kid.chunk.ID] {
				continue
			}
			seen[kid.chunk.ID] = true
			results = append(results, Result{
				ChunkID:    kid.chunk.ID,
				Text:       kid.chunk.Text,
				Similarity: kid.score,
				Meta:       kid.chunk.Meta,
				ParentText: parentText,
				ChildCount: 0,
			})
		}
	}
	return results
}
