package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// Generator produces answer text from an assembled prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// OllamaGenerator streams completions from an Ollama model and collects them
// into a single answer string.
type OllamaGenerator struct {
	client *api.Client
	model  string
}

// NewOllamaGenerator creates a generation client for the given host and
// model. An empty host falls back to the OLLAMA_HOST environment default.
func NewOllamaGenerator(host, model string) (*OllamaGenerator, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parse ollama host: %w", err)
		}
		hostURL = u
	}
	return &OllamaGenerator{
		client: api.NewClient(hostURL, http.DefaultClient),
		model:  model,
	}, nil
}

// Complete runs one generation request. Low temperature is the expected
// setting for grounded answers; the caller decides.
func (g *OllamaGenerator) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	req := api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}

	var sb strings.Builder
	err := g.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := sb.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
