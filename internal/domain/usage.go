package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects token usage for a single search request.
// The handler puts a pointer into the context before calling the engine;
// model and embedder decorators write to it; the handler reads it for response headers.
type Usage struct {
	mu               sync.Mutex
	promptTokens     int
	completionTokens int
	embeddingTokens  int
	cacheHit         bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddCompletion records tokens consumed by a model call.
func (u *Usage) AddCompletion(c Completion) {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.promptTokens += c.PromptTokens
	u.completionTokens += c.CompletionTokens
	if c.Cached {
		u.cacheHit = true
	}
}

// AddEmbedding records tokens consumed by query or document embedding.
func (u *Usage) AddEmbedding(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.embeddingTokens += tokens
}

// TotalTokens returns all tokens recorded so far.
func (u *Usage) TotalTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.promptTokens + u.completionTokens + u.embeddingTokens
}

// CacheHit reports whether the answer was served from cache.
func (u *Usage) CacheHit() bool {
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cacheHit
}
