package synthesis

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/ragsearch/internal/logger"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

// Prompt size defaults, in characters.
const (
	DefaultMaxDocumentChars = 2000
	DefaultMaxContextChars  = 8000
)

// Config bounds the prompt.
type Config struct {
	MaxDocumentChars int
	MaxContextChars  int
}

// Synthesizer turns ranked candidates into a grounded answer with one model call.
type Synthesizer struct {
	model           domain.LanguageModel
	maxDocChars     int
	maxContextChars int
}

// New creates a synthesizer. Zero limits fall back to defaults.
func New(model domain.LanguageModel, cfg Config) *Synthesizer {
	if cfg.MaxDocumentChars <= 0 {
		cfg.MaxDocumentChars = DefaultMaxDocumentChars
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	return &Synthesizer{
		model:           model,
		maxDocChars:     cfg.MaxDocumentChars,
		maxContextChars: cfg.MaxContextChars,
	}
}

// Synthesize calls the model exactly once. Model errors are returned as is.
// With no candidates the model is still asked, and told nothing relevant was found.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, cands []candidate.Candidate,
) (answer.Response, error) {
	prompt, pctx := buildPrompt(query, cands, s.maxDocChars, s.maxContextChars)

	comp, err := s.model.Complete(ctx, prompt)
	if err != nil {
		return answer.Response{}, err //nolint:wrapcheck // callers match the model error by identity
	}

	text, citations, removed := ground(comp.Text, &pctx)
	if removed > 0 {
		metrics.UngroundedCitationsTotal.Add(float64(removed))
		logger.FromContext(ctx).Warn("Removed ungrounded citations",
			zap.Int("removed", removed),
			zap.Strings("context_ids", pctx.IDs()),
		)
	}

	return answer.New(text, citations, pctx.Items()), nil
}
