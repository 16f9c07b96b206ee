package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/bookrag/internal/config"
	"github.com/dgallion1/bookrag/internal/embedding"
	"github.com/dgallion1/bookrag/internal/llm"
	"github.com/dgallion1/bookrag/internal/pipeline"
	"github.com/dgallion1/bookrag/internal/retrieve"
)

func main() {
	var (
		doc       = flag.String("doc", "", "document to index (overrides DOCUMENT_PATH)")
		question  = flag.String("q", "", "question to ask")
		k         = flag.Int("k", 0, "number of chunks to retrieve (0 = default)")
		threshold = flag.Float64("threshold", 0, "similarity threshold (0 = default)")
		strategy  = flag.String("strategy", "", "retrieval strategy: top_down, bottom_up, hybrid (empty = adaptive)")
		rebuild   = flag.Bool("rebuild", false, "ignore any existing snapshot and re-index")
		verbose   = flag.Bool("v", false, "log progress to stderr")
	)
	flag.Parse()

	if *question == "" {
		fmt.Fprintln(os.Stderr, "usage: ask -q \"question\" [-doc file] [-k n] [-threshold t] [-strategy s]")
		os.Exit(2)
	}

	logLevel := slog.LevelError
	if *verbose {
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg := config.Load()
	if *doc != "" {
		cfg.DocumentPath = *doc
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbedModel)
	if err != nil {
		log.Error("embedder init failed", "error", err)
		os.Exit(1)
	}
	generator, err := llm.NewOllamaGenerator(cfg.OllamaHost, cfg.GenModel)
	if err != nil {
		log.Error("generator init failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	p := pipeline.New(cfg, embedder, generator, log)

	restored := false
	if !*rebuild {
		restored = p.Restore() == nil
	}
	if !restored {
		if err := p.Build(ctx); err != nil {
			log.Error("index build failed", "error", err)
			os.Exit(1)
		}
	}

	ans, err := p.Ask(ctx, *question, pipeline.AskOptions{
		K:         *k,
		Threshold: float32(*threshold),
		Strategy:  retrieve.Strategy(*strategy),
	})
	if err != nil {
		log.Error("query failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(ans.Answer)
	if len(ans.Sources) > 0 {
		fmt.Printf("\nSources (%s question, %d chunks):\n", ans.Intent, ans.ChunksRetrieved)
		for _, src := range ans.Sources {
			fmt.Printf("  [%.3f] %s (%s, level %d)\n", src.Similarity, src.ChunkID, src.ChunkType, src.Level)
		}
	}
}
