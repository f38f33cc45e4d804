package generation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/logger"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Remaining() (daily, monthly int64)
}

// InstrumentedModel wraps a LanguageModel with budget enforcement, logging
// and per-request usage accounting. Transport metrics live in transport/openai.
type InstrumentedModel struct {
	inner    domain.LanguageModel
	provider string
	model    string
	budget   BudgetChecker
}

// NewInstrumentedModel wraps a model. budget may be nil.
func NewInstrumentedModel(inner domain.LanguageModel, provider, model string, budget BudgetChecker) *InstrumentedModel {
	return &InstrumentedModel{inner: inner, provider: provider, model: model, budget: budget}
}

// Complete checks the budget, delegates, and records usage.
// Errors from the inner model are returned unchanged.
func (m *InstrumentedModel) Complete(ctx context.Context, prompt domain.Prompt) (domain.Completion, error) {
	log := logger.FromContext(ctx).With(
		zap.String("provider", m.provider),
		zap.String("model", m.model),
	)

	if m.budget != nil {
		if err := m.budget.Check(ctx); err != nil {
			log.Error("Completion rejected by token budget", zap.Error(err))
			return domain.Completion{}, &domain.GenerationError{
				Provider: m.provider,
				Detail:   "token budget exhausted",
				Err:      err,
			}
		}
	}

	start := time.Now()
	comp, err := m.inner.Complete(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		log.Error("Completion failed", zap.Duration("duration", duration), zap.Error(err))
		return domain.Completion{}, err //nolint:wrapcheck // transparent decorator
	}

	domain.UsageFromContext(ctx).AddCompletion(comp)

	if m.budget != nil && !comp.Cached {
		m.budget.Record(int64(comp.TotalTokens))
		daily, monthly := m.budget.Remaining()
		metrics.LLMBudgetTokensRemaining.WithLabelValues(m.provider, "daily").Set(float64(daily))
		metrics.LLMBudgetTokensRemaining.WithLabelValues(m.provider, "monthly").Set(float64(monthly))
	}

	log.Debug("Completion finished",
		zap.Duration("duration", duration),
		zap.Bool("cached", comp.Cached),
		zap.Int("prompt_tokens", comp.PromptTokens),
		zap.Int("completion_tokens", comp.CompletionTokens),
	)

	return comp, nil
}

// HealthCheck delegates to the inner model when it supports health checks.
func (m *InstrumentedModel) HealthCheck(ctx context.Context) error {
	if hc, ok := m.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
