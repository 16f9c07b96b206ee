package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dgallion1/bookrag/internal/llm"
	"github.com/dgallion1/bookrag/internal/retrieve"
	"github.com/dgallion1/bookrag/internal/vecindex"
)

const noContextAnswer = "I couldn't find relevant information about that in The Odyssey."

const sourcePreviewLen = 150

// AskOptions tune one question. Zero values fall back to the configured
// defaults; an empty Strategy means adaptive flat retrieval.
type AskOptions struct {
	K         int
	Threshold float32
	Strategy  retrieve.Strategy
}

// Source describes one retrieved chunk that backed an answer.
type Source struct {
	ChunkID     string  `json:"chunk_id"`
	ChunkType   string  `json:"chunk_type"`
	Level       int     `json:"level"`
	Similarity  float32 `json:"similarity"`
	HasParent   bool    `json:"has_parent"`
	ChildCount  int     `json:"child_count"`
	TextPreview string  `json:"text_preview"`
}

// Answer is the full response to one question.
type Answer struct {
	Answer          string            `json:"answer"`
	Intent          retrieve.Intent   `json:"question_type"`
	Strategy        retrieve.Strategy `json:"strategy,omitempty"`
	Sources         []Source          `json:"sources"`
	ChunksRetrieved int               `json:"chunks_retrieved"`
	Timestamp       string            `json:"timestamp"`
}

// Ask answers one question: classify, retrieve, assemble the prompt,
// generate. An empty retrieval is a valid outcome answered with a canned
// response, never a call to the model with no context.
func (p *Pipeline) Ask(ctx context.Context, question string, opts AskOptions) (*Answer, error) {
	if !p.set.Ready() {
		return nil, vecindex.ErrIndexNotReady
	}

	k := opts.K
	if k <= 0 {
		k = p.cfg.TopK
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = float32(p.cfg.Threshold)
	}

	intent := retrieve.Classify(question)
	p.log.Info("classified question", "intent", intent, "strategy", opts.Strategy)

	var results []retrieve.Result
	var err error
	if opts.Strategy != "" {
		results, err = p.hybrid.Retrieve(ctx, question, k, threshold, opts.Strategy)
	} else {
		params := retrieve.ParamsFor(intent, k, threshold)
		results, err = p.engine.Retrieve(ctx, question, params)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	p.log.Info("retrieved context", "results", len(results))

	ans := &Answer{
		Intent:    intent,
		Strategy:  opts.Strategy,
		Sources:   sourcesFrom(results),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	ans.ChunksRetrieved = len(results)

	if len(results) == 0 {
		ans.Answer = noContextAnswer
		return ans, nil
	}

	contextBlock := llm.FormatContext(results, intent)
	prompt := llm.BuildPrompt(contextBlock, question, intent)
	text, err := p.generator.Complete(ctx, prompt, p.cfg.MaxAnswerTokens, p.cfg.Temperature)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	ans.Answer = text
	return ans, nil
}

func sourcesFrom(results []retrieve.Result) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		preview := r.Text
		if len(preview) > sourcePreviewLen {
			preview = preview[:sourcePreviewLen] + "..."
		}
		sources = append(sources, Source{
			ChunkID:     r.ChunkID,
			ChunkType:   string(r.Meta.Type),
			Level:       r.Meta.Level,
			Similarity:  r.Similarity,
			HasParent:   r.ParentText != "" || len(r.ParentChunks) > 0,
			ChildCount:  r.ChildCount,
			TextPreview: preview,
		})
	}
	return sources
}
