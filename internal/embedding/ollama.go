package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaEmbedder generates embeddings through the Ollama API.
type OllamaEmbedder struct {
	client        *api.Client
	model         string
	maxRetries    int
	timeout       time.Duration
	maxConcurrent int
}

// NewOllamaEmbedder creates an embedder for the given host and model.
// An empty host falls back to the OLLAMA_HOST environment default.
func NewOllamaEmbedder(host, model string) (*OllamaEmbedder, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parse ollama host: %w", err)
		}
		hostURL = u
	}
	return &OllamaEmbedder{
		client:        api.NewClient(hostURL, http.DefaultClient),
		model:         model,
		maxRetries:    MaxRetries,
		timeout:       30 * time.Second,
		maxConcurrent: 3,
	}, nil
}

// Embed generates an embedding for one text, retrying transient failures.
// Retry policy lives here, at the service boundary — never in the
// retrieval core.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}
		vec, err := e.createEmbedding(ctx, text)
		if err == nil {
			return vec, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("embed after %d retries: %w", e.maxRetries, lastErr)
}

func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings(reqCtx, &api.EmbeddingRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		return nil, classifyEmbedError(ctx, err)
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// classifyEmbedError decides which failures are worth another attempt.
// Overload and server-side failures are transient; a bad request or a
// canceled caller is not.
func classifyEmbedError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500 {
			return &RetryableError{StatusCode: statusErr.StatusCode, Message: statusErr.ErrorMessage}
		}
		return fmt.Errorf("ollama embeddings: %w", err)
	}
	// Connection-level failures (service restarting, socket timeout).
	return &RetryableError{Message: err.Error()}
}

// EmbedBatch embeds texts with bounded concurrency, preserving input order.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	sem := make(chan struct{}, e.maxConcurrent)
	errCh := make(chan error, len(texts))

	var wg sync.WaitGroup
	for i := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			vec, err := e.Embed(ctx, texts[i])
			if err != nil {
				errCh <- fmt.Errorf("embed text %d: %w", i, err)
				return
			}
			vectors[i] = vec
		}(i)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return vectors, nil
}
