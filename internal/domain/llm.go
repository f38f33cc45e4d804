package domain

import "context"

// LanguageModel is the text completion contract between the synthesizer and providers.
// Implementations must be safe for concurrent use.
type LanguageModel interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Prompt is a single completion request split into instructions and user content.
type Prompt struct {
	System string
	User   string
}

// Text joins both parts; used for cache keys and token estimates.
func (p Prompt) Text() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}

// Completion carries the model output and token usage through the decorator chain.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cached           bool
}
