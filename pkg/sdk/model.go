package ragsearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// Prompt is a single completion request.
type Prompt struct {
	System string
	User   string
}

// Completion is the model output with token usage.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// LanguageModel produces completions. Implementations must be safe for concurrent use.
type LanguageModel interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// modelAdapter wraps a public LanguageModel to satisfy domain.LanguageModel.
// Any error becomes a domain.GenerationError so callers can match ErrGeneration.
type modelAdapter struct {
	inner LanguageModel
}

func (a *modelAdapter) Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	c, err := a.inner.Complete(ctx, Prompt{System: p.System, User: p.User})
	if err != nil {
		return domain.Completion{}, &domain.GenerationError{Provider: "sdk", Err: err}
	}
	return domain.Completion{
		Text:             c.Text,
		Model:            c.Model,
		PromptTokens:     c.PromptTokens,
		CompletionTokens: c.CompletionTokens,
		TotalTokens:      c.PromptTokens + c.CompletionTokens,
	}, nil
}

// embedderAdapter wraps a public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
