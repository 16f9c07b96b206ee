package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/dgallion1/bookrag/internal/chunk"
	"github.com/dgallion1/bookrag/internal/vecindex"
)

// threeLevelChunks spans levels 1, 2 and 4 so the coarse and fine strategies
// cover different slices of the hierarchy.
func threeLevelChunks() []chunk.Chunk {
	return []chunk.Chunk{
		{ID: "book_0", Text: "the book of the odysseus voyage", Meta: chunk.Meta{Type: chunk.TypeBookOverview, Level: 1}},
		{ID: "section_1", Text: "penelope waits", Meta: chunk.Meta{Type: chunk.TypeSectionDetail, Level: 2, ParentID: "book_0"}},
		{ID: "para_2", Text: "odysseus sails home", Meta: chunk.Meta{Type: chunk.TypeParagraph, Level: 4, ParentID: "section_1"}},
	}
}

func buildHybridEngine(t *testing.T) *HybridEngine {
	t.Helper()
	chunks := threeLevelChunks()
	maps := chunk.BuildMaps(chunks)
	emb := odysseyEmbedder()
	set, err := vecindex.Build(context.Background(), chunks, emb, discardLogger())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return NewHybridEngine(set, maps, emb, discardLogger())
}

func TestHybrid_TopDownReachesCoarseLevels(t *testing.T) {
	engine := buildHybridEngine(t)

	// Only the level-1 chunk mentions "book".
	results, err := engine.Retrieve(context.Background(), "book", 3, 0.1, StrategyTopDown)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != "book_0" {
		t.Fatalf("expected only book_0 from the coarse levels, got %v", ids(results))
	}
}

func TestHybrid_BottomUpSkipsCoarsestLevel(t *testing.T) {
	engine := buildHybridEngine(t)

	// Bottom-up searches the two finest levels (2 and 4), so the level-1
	// chunk is unreachable even though it matches the query.
	results, err := engine.Retrieve(context.Background(), "book", 3, 0.1, StrategyBottomUp)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, r := range results {
		if r.ChunkID == "book_0" {
			t.Errorf("bottom-up must not return the coarsest level, got %v", ids(results))
		}
	}
}

func TestHybrid_MergeIsSubsetOfUnionWithoutDuplicates(t *testing.T) {
	engine := buildHybridEngine(t)
	ctx := context.Background()
	const query, threshold = "odysseus", float32(0.1)

	top, err := engine.Retrieve(ctx, query, 2, threshold, StrategyTopDown)
	if err != nil {
		t.Fatalf("top-down: %v", err)
	}
	bottom, err := engine.Retrieve(ctx, query, 2, threshold, StrategyBottomUp)
	if err != nil {
		t.Fatalf("bottom-up: %v", err)
	}
	hybrid, err := engine.Retrieve(ctx, query, 4, threshold, StrategyHybrid)
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	if len(hybrid) == 0 {
		t.Fatal("expected hybrid results")
	}

	union := make(map[string]bool)
	for _, r := range top {
		union[r.ChunkID] = true
	}
	for _, r := range bottom {
		union[r.ChunkID] = true
	}

	seen := make(map[string]bool)
	for i, r := range hybrid {
		if !union[r.ChunkID] {
			t.Errorf("hybrid result %s not in top-down ∪ bottom-up", r.ChunkID)
		}
		if seen[r.ChunkID] {
			t.Errorf("duplicate chunk id %s in hybrid results", r.ChunkID)
		}
		seen[r.ChunkID] = true
		if i > 0 && hybrid[i].Similarity > hybrid[i-1].Similarity {
			t.Errorf("hybrid results not ordered by descending similarity: %v", ids(hybrid))
		}
	}
}

func TestHybrid_EnrichmentWalksFullAncestorChain(t *testing.T) {
	engine := buildHybridEngine(t)

	results, err := engine.Retrieve(context.Background(), "odysseus sails", 1, 0.1, StrategyBottomUp)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != "para_2" {
		t.Fatalf("expected para_2, got %v", ids(results))
	}

	r := results[0]
	if r.Depth != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth)
	}
	if len(r.ParentChunks) != 2 {
		t.Fatalf("expected 2 ancestors, got %d", len(r.ParentChunks))
	}
	if r.ParentChunks[0].ID != "section_1" || r.ParentChunks[1].ID != "book_0" {
		t.Errorf("ancestors out of order: %s, %s", r.ParentChunks[0].ID, r.ParentChunks[1].ID)
	}
}

func TestHybrid_EnrichmentAttachesChildren(t *testing.T) {
	engine := buildHybridEngine(t)

	results, err := engine.Retrieve(context.Background(), "book", 1, 0.1, StrategyTopDown)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.ChildCount != 1 {
		t.Errorf("expected child_count 1, got %d", r.ChildCount)
	}
	if len(r.ChildChunks) != 1 || r.ChildChunks[0].ID != "section_1" {
		t.Errorf("expected section_1 as child chunk, got %v", r.ChildChunks)
	}
}

func TestHybrid_BeforeBuildIsStateError(t *testing.T) {
	engine := NewHybridEngine(nil, chunk.HierarchyMaps{}, odysseyEmbedder(), discardLogger())
	_, err := engine.Retrieve(context.Background(), "penelope", 1, 0.1, StrategyHybrid)
	if !errors.Is(err, vecindex.ErrIndexNotReady) {
		t.Errorf("expected ErrIndexNotReady, got %v", err)
	}
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ChunkID
	}
	return out
}
