package embedding

import "context"

// Embedder maps text to fixed-length vectors. Dimensionality is fixed per
// model and must match across index build and query time.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per input text, same order as input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
