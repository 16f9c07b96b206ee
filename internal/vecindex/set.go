package vecindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dgallion1/bookrag/internal/chunk"
	"github.com/dgallion1/bookrag/internal/embedding"
)

// ErrIndexNotReady is returned for any search attempted before a build
// completed.
var ErrIndexNotReady = errors.New("vector index not initialized")

// levelIndex pairs a per-level index with its chunks in original order.
type levelIndex struct {
	index  *Index
	chunks []chunk.Chunk
}

// Set holds one index per hierarchy level plus one flat index over the full
// chunk list in document order. Immutable after Build; concurrent queries
// need no locking.
type Set struct {
	dim    int
	chunks []chunk.Chunk
	byID   map[string]chunk.Chunk
	flat   *Index
	levels map[int]*levelIndex
	ready  bool
}

// Build embeds every chunk and constructs the per-level and flat indices.
// Per-level builds run in parallel with a single join point before the set
// is usable. An empty chunk set yields a valid empty index that answers
// zero results.
func Build(ctx context.Context, chunks []chunk.Chunk, embedder embedding.Embedder, log *slog.Logger) (*Set, error) {
	s := &Set{
		chunks: chunks,
		byID:   make(map[string]chunk.Chunk, len(chunks)),
		levels: make(map[int]*levelIndex),
	}
	for _, c := range chunks {
		s.byID[c.ID] = c
	}

	if len(chunks) == 0 {
		s.flat = NewIndex(0)
		s.ready = true
		log.Warn("building empty index set: no chunks")
		return s, nil
	}

	// Group chunks by level, preserving document order within each level.
	byLevel := make(map[int][]chunk.Chunk)
	for _, c := range chunks {
		byLevel[c.Meta.Level] = append(byLevel[c.Meta.Level], c)
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		errCh = make(chan error, len(byLevel)+1)
	)

	for level, lvlChunks := range byLevel {
		wg.Add(1)
		go func(level int, lvlChunks []chunk.Chunk) {
			defer wg.Done()
			ix, err := buildIndex(ctx, lvlChunks, embedder)
			if err != nil {
				errCh <- fmt.Errorf("build level %d index: %w", level, err)
				return
			}
			mu.Lock()
			s.levels[level] = &levelIndex{index: ix, chunks: lvlChunks}
			mu.Unlock()
		}(level, lvlChunks)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ix, err := buildIndex(ctx, chunks, embedder)
		if err != nil {
			errCh <- fmt.Errorf("build flat index: %w", err)
			return
		}
		mu.Lock()
		s.flat = ix
		mu.Unlock()
	}()

	// Single join point: nothing is queryable until every build finished.
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}

	s.dim = s.flat.Dim()
	s.ready = true
	log.Info("built index set",
		"chunks", len(chunks),
		"levels", len(s.levels),
		"dimension", s.dim,
	)
	return s, nil
}

func buildIndex(ctx context.Context, chunks []chunk.Chunk, embedder embedding.Embedder) (*Index, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return NewIndex(0), nil
	}

	ix := NewIndex(len(vectors[0]))
	for _, vec := range vectors {
		if err := ix.Add(Normalize(vec)); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Ready reports whether the set can serve searches.
func (s *Set) Ready() bool { return s != nil && s.ready }

// Len returns the total chunk count.
func (s *Set) Len() int { return len(s.chunks) }

// Dim returns the embedding dimensionality.
func (s *Set) Dim() int { return s.dim }

// Chunks returns the full chunk list in document order.
func (s *Set) Chunks() []chunk.Chunk { return s.chunks }

// ByID resolves a chunk by id.
func (s *Set) ByID(id string) (chunk.Chunk, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Levels returns the distinct level values present, ascending.
func (s *Set) Levels() []int {
	levels := make([]int, 0, len(s.levels))
	for l := range s.levels {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// SearchFlat searches the flat index. Hit positions address the full chunk
// list (FlatChunk resolves them).
func (s *Set) SearchFlat(query []float32, topN int) ([]Hit, error) {
	if !s.Ready() {
		return nil, ErrIndexNotReady
	}
	return s.flat.Search(query, topN), nil
}

// FlatChunk resolves a flat-index hit position to its chunk.
func (s *Set) FlatChunk(pos int) (chunk.Chunk, bool) {
	if pos < 0 || pos >= len(s.chunks) {
		return chunk.Chunk{}, false
	}
	return s.chunks[pos], true
}

// SearchLevel searches one per-level index. Hit positions address that
// level's chunk slice (LevelChunk resolves them).
func (s *Set) SearchLevel(level int, query []float32, topN int) ([]Hit, error) {
	if !s.Ready() {
		return nil, ErrIndexNotReady
	}
	li, ok := s.levels[level]
	if !ok {
		return nil, nil
	}
	return li.index.Search(query, topN), nil
}

// LevelChunk resolves a per-level hit position to its chunk.
func (s *Set) LevelChunk(level, pos int) (chunk.Chunk, bool) {
	li, ok := s.levels[level]
	if !ok || pos < 0 || pos >= len(li.chunks) {
		return chunk.Chunk{}, false
	}
	return li.chunks[pos], true
}

// LevelSize returns the number of chunks indexed at a level.
func (s *Set) LevelSize(level int) int {
	li, ok := s.levels[level]
	if !ok {
		return 0
	}
	return len(li.chunks)
}
