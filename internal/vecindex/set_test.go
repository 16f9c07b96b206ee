package vecindex

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/bookrag/internal/chunk"
)

// stubEmbedder maps each vocabulary axis to one vector component: the count
// of axis words appearing in the text. Deterministic and direction-meaningful
// after normalization.
type stubEmbedder struct {
	axes [][]string
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := map[string]int{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		tokens[strings.Trim(w, ".,!?;:\"'")]++
	}
	vec := make([]float32, len(e.axes))
	for i, words := range e.axes {
		for _, w := range words {
			vec[i] += float32(tokens[w])
		}
	}
	return vec, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func testEmbedder() *stubEmbedder {
	return &stubEmbedder{axes: [][]string{
		{"sails", "home"},
		{"waits", "penelope"},
		{"odysseus"},
		{"book"},
	}}
}

func testChunks() []chunk.Chunk {
	return []chunk.Chunk{
		{ID: "book_0", Text: "BOOK I Odysseus sails home Penelope waits", Meta: chunk.Meta{Type: chunk.TypeBookOverview, Level: 1}},
		{ID: "para_1", Text: "Odysseus sails home", Meta: chunk.Meta{Type: chunk.TypeParagraph, Level: 4, ParentID: "book_0"}},
		{ID: "para_2", Text: "Penelope waits", Meta: chunk.Meta{Type: chunk.TypeParagraph, Level: 4, ParentID: "book_0"}},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild_PerLevelAndFlatIndices(t *testing.T) {
	set, err := Build(context.Background(), testChunks(), testEmbedder(), discardLogger())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !set.Ready() {
		t.Fatal("set not ready after build")
	}
	if got := set.Levels(); !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("expected levels [1 4], got %v", got)
	}
	if set.LevelSize(1) != 1 || set.LevelSize(4) != 2 {
		t.Errorf("level sizes wrong: %d at 1, %d at 4", set.LevelSize(1), set.LevelSize(4))
	}
	if set.Dim() != 4 {
		t.Errorf("expected dimension 4, got %d", set.Dim())
	}
}

func TestBuild_FlatSearchFindsBestChunk(t *testing.T) {
	emb := testEmbedder()
	set, err := Build(context.Background(), testChunks(), emb, discardLogger())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	qv, _ := emb.Embed(context.Background(), "who waits for odysseus")
	Normalize(qv)

	hits, err := set.SearchFlat(qv, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits")
	}
	best, ok := set.FlatChunk(hits[0].Pos)
	if !ok {
		t.Fatal("could not resolve best hit")
	}
	if best.ID != "para_2" {
		t.Errorf("expected para_2 best for a waiting query, got %s (score %f)", best.ID, hits[0].Score)
	}
}

func TestSearch_BeforeBuildIsStateError(t *testing.T) {
	var set *Set
	if _, err := set.SearchFlat([]float32{1}, 1); err != ErrIndexNotReady {
		t.Errorf("expected ErrIndexNotReady, got %v", err)
	}
	if _, err := set.SearchLevel(1, []float32{1}, 1); err != ErrIndexNotReady {
		t.Errorf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestBuild_EmptyChunkSet(t *testing.T) {
	set, err := Build(context.Background(), nil, testEmbedder(), discardLogger())
	if err != nil {
		t.Fatalf("empty build must not fail: %v", err)
	}
	if !set.Ready() {
		t.Fatal("empty set must still be queryable")
	}
	hits, err := set.SearchFlat([]float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("search on empty set: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected zero results from empty set, got %d", len(hits))
	}
}

func TestSearchLevel_MissingLevel(t *testing.T) {
	set, err := Build(context.Background(), testChunks(), testEmbedder(), discardLogger())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := set.SearchLevel(3, []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("missing level should not error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for an absent level, got %d", len(hits))
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	emb := testEmbedder()
	chunks := testChunks()
	set, err := Build(context.Background(), chunks, emb, discardLogger())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	maps := chunk.BuildMaps(chunks)

	path := filepath.Join(t.TempDir(), "index.json")
	if err := set.Save(path, maps); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, loadedMaps, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !reflect.DeepEqual(loadedMaps, maps) {
		t.Errorf("hierarchy maps changed across save/load")
	}
	if loaded.Len() != set.Len() || loaded.Dim() != set.Dim() {
		t.Errorf("set shape changed: len %d→%d dim %d→%d",
			set.Len(), loaded.Len(), set.Dim(), loaded.Dim())
	}
	if !reflect.DeepEqual(loaded.Levels(), set.Levels()) {
		t.Errorf("levels changed: %v vs %v", loaded.Levels(), set.Levels())
	}

	// Identical top-k for a fixed probe query.
	qv, _ := emb.Embed(context.Background(), "who waits for odysseus")
	Normalize(qv)
	origHits, _ := set.SearchFlat(qv, 3)
	loadedHits, _ := loaded.SearchFlat(qv, 3)
	if !reflect.DeepEqual(origHits, loadedHits) {
		t.Errorf("top-k differs after reload: %v vs %v", origHits, loadedHits)
	}
}

func TestSnapshot_LoadRejectsInconsistentMaps(t *testing.T) {
	chunks := testChunks()
	set, err := Build(context.Background(), chunks, testEmbedder(), discardLogger())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Maps that contradict the chunk metadata must be rejected on load.
	bad := chunk.HierarchyMaps{
		Parent:   map[string]string{"para_1": "book_999"},
		Children: map[string][]string{"book_999": {"para_1"}},
	}
	path := filepath.Join(t.TempDir(), "index.json")
	if err := set.Save(path, bad); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, err := Load(path); err == nil {
		t.Error("expected load to reject inconsistent hierarchy maps")
	}
}
