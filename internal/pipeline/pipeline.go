package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/bookrag/internal/chunk"
	"github.com/dgallion1/bookrag/internal/config"
	"github.com/dgallion1/bookrag/internal/embedding"
	"github.com/dgallion1/bookrag/internal/hierarchy"
	"github.com/dgallion1/bookrag/internal/llm"
	"github.com/dgallion1/bookrag/internal/retrieve"
	"github.com/dgallion1/bookrag/internal/segment"
	"github.com/dgallion1/bookrag/internal/vecindex"
)

// Pipeline owns the build-once, query-many lifecycle: parse a document into
// a hierarchy, derive chunks, build the vector indices, then answer
// questions against them. All state after Build is immutable, so concurrent
// queries need no locking.
type Pipeline struct {
	cfg       config.Config
	embedder  embedding.Embedder
	generator llm.Generator
	log       *slog.Logger

	tree   *hierarchy.Tree
	chunks []chunk.Chunk
	maps   chunk.HierarchyMaps
	set    *vecindex.Set
	engine *retrieve.Engine
	hybrid *retrieve.HybridEngine
}

// New creates an unbuilt pipeline. Queries fail with the index-not-ready
// error until Build or Restore completes.
func New(cfg config.Config, embedder embedding.Embedder, generator llm.Generator, log *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		embedder:  embedder,
		generator: generator,
		log:       log,
	}
}

// Build runs the full indexing flow for the configured document: segment,
// build the hierarchy, derive chunks, embed, index. Snapshots are written
// afterwards; a snapshot failure is logged but does not fail the build.
func (p *Pipeline) Build(ctx context.Context) error {
	path := p.cfg.DocumentPath

	parser, err := segment.ForFile(path)
	if err != nil {
		return fmt.Errorf("select parser: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	segments, err := parser.Parse(f, path)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	p.log.Info("parsed document", "path", path, "segments", len(segments))

	builder := hierarchy.NewBuilder(hierarchy.WithMinWords(p.cfg.MinContentWords))
	tree := builder.Build(segments)
	p.log.Info("built hierarchy", "nodes", len(tree.Nodes), "roots", len(tree.Roots))

	chunks := chunk.Derive(tree, chunk.Config{
		MinWords:          p.cfg.ChunkMinWords,
		MaxWords:          p.cfg.ChunkMaxWords,
		MaxSubtreeDepth:   p.cfg.MaxSubtreeDepth,
		MaxRollupChildren: p.cfg.MaxRollupChildren,
		MinAtomicWords:    p.cfg.MinAtomicWords,
	})
	maps := chunk.BuildMaps(chunks)
	if err := maps.Verify(chunks); err != nil {
		return fmt.Errorf("hierarchy maps: %w", err)
	}
	p.log.Info("derived chunks", "chunks", len(chunks))

	set, err := vecindex.Build(ctx, chunks, p.embedder, p.log)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	p.tree = tree
	p.chunks = chunks
	p.maps = maps
	p.set = set
	p.engine = retrieve.NewEngine(set, maps, p.embedder, p.log)
	p.hybrid = retrieve.NewHybridEngine(set, maps, p.embedder, p.log)

	p.saveSnapshots()
	return nil
}

// Restore loads a previously saved index snapshot, skipping parsing and
// embedding entirely. The hierarchy tree is not restored; only structure
// inspection needs it, and the maps carry everything retrieval uses.
func (p *Pipeline) Restore() error {
	set, maps, err := vecindex.Load(p.indexSnapshotPath())
	if err != nil {
		return fmt.Errorf("restore index: %w", err)
	}
	p.chunks = set.Chunks()
	p.maps = maps
	p.set = set
	p.engine = retrieve.NewEngine(set, maps, p.embedder, p.log)
	p.hybrid = retrieve.NewHybridEngine(set, maps, p.embedder, p.log)
	p.log.Info("restored index snapshot", "chunks", set.Len(), "dimension", set.Dim())
	return nil
}

// Ready reports whether the pipeline can serve queries.
func (p *Pipeline) Ready() bool {
	return p.set.Ready()
}

// Tree returns the hierarchy built by the last Build, nil after Restore.
func (p *Pipeline) Tree() *hierarchy.Tree {
	return p.tree
}

// Stats describes the built index.
type Stats struct {
	Chunks    int         `json:"chunks"`
	Levels    []int       `json:"levels"`
	LevelSize map[int]int `json:"level_sizes"`
	Dimension int         `json:"dimension"`
}

// Stats returns index statistics, zero-valued when not built.
func (p *Pipeline) Stats() Stats {
	if !p.set.Ready() {
		return Stats{}
	}
	levels := p.set.Levels()
	sizes := make(map[int]int, len(levels))
	for _, l := range levels {
		sizes[l] = p.set.LevelSize(l)
	}
	return Stats{
		Chunks:    p.set.Len(),
		Levels:    levels,
		LevelSize: sizes,
		Dimension: p.set.Dim(),
	}
}

func (p *Pipeline) saveSnapshots() {
	if p.cfg.SnapshotDir == "" {
		return
	}
	if p.tree != nil {
		path := filepath.Join(p.cfg.SnapshotDir, "hierarchy.json")
		if err := hierarchy.SaveSnapshot(p.tree, path); err != nil {
			p.log.Warn("hierarchy snapshot failed", "path", path, "error", err)
		}
	}
	if err := p.set.Save(p.indexSnapshotPath(), p.maps); err != nil {
		p.log.Warn("index snapshot failed", "path", p.indexSnapshotPath(), "error", err)
	}
}

func (p *Pipeline) indexSnapshotPath() string {
	return filepath.Join(p.cfg.SnapshotDir, "index.json")
}
