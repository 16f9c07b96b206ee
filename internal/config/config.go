package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Ollama
	OllamaHost string
	EmbedModel string
	GenModel   string

	// Document to index at startup
	DocumentPath string

	// Snapshot persistence
	SnapshotDir string

	// Hierarchy and chunking
	MinContentWords   int
	ChunkMinWords     int
	ChunkMaxWords     int
	MaxSubtreeDepth   int
	MaxRollupChildren int
	MinAtomicWords    int

	// Retrieval defaults
	TopK            int
	Threshold       float64
	MaxAnswerTokens int
	Temperature     float64

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("BOOKRAG_API_KEY"),

		OllamaHost: os.Getenv("OLLAMA_HOST"),
		EmbedModel: envOr("EMBED_MODEL", "nomic-embed-text"),
		GenModel:   envOr("GEN_MODEL", "llama3.2"),

		DocumentPath: os.Getenv("DOCUMENT_PATH"),
		SnapshotDir:  envOr("SNAPSHOT_DIR", "data/processed"),

		MinContentWords:   envInt("MIN_CONTENT_WORDS", 10),
		ChunkMinWords:     envInt("CHUNK_MIN_WORDS", 50),
		ChunkMaxWords:     envInt("CHUNK_MAX_WORDS", 300),
		MaxSubtreeDepth:   envInt("MAX_SUBTREE_DEPTH", 2),
		MaxRollupChildren: envInt("MAX_ROLLUP_CHILDREN", 10),
		MinAtomicWords:    envInt("MIN_ATOMIC_WORDS", 30),

		TopK:            envInt("TOP_K", 5),
		Threshold:       envFloat("SIMILARITY_THRESHOLD", 0.25),
		MaxAnswerTokens: envInt("MAX_ANSWER_TOKENS", 256),
		Temperature:     envFloat("TEMPERATURE", 0.2),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = 0.25
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = 256
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0.2
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocumentPath == "" {
		return fmt.Errorf("DOCUMENT_PATH is required")
	}
	if c.EmbedModel == "" {
		return fmt.Errorf("EMBED_MODEL is required")
	}
	if c.GenModel == "" {
		return fmt.Errorf("GEN_MODEL is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
