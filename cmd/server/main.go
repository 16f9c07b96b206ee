package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/bookrag/internal/api"
	"github.com/dgallion1/bookrag/internal/config"
	"github.com/dgallion1/bookrag/internal/embedding"
	"github.com/dgallion1/bookrag/internal/llm"
	"github.com/dgallion1/bookrag/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Ollama clients.
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

	// Build the index before serving. A reusable snapshot takes priority;
	// otherwise parse and embed the configured document.
	p := pipeline.New(cfg, embedder, generator, log)
	if err := p.Restore(); err != nil {
		log.Info("no reusable snapshot, building index", "document", cfg.DocumentPath)
		if err := p.Build(ctx); err != nil {
			log.Error("index build failed", "error", err)
			os.Exit(1)
		}
	}

	srv := api.NewServer(p, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting bookrag", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
