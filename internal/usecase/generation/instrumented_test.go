package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

func TestInstrumentedModel_RecordsUsage(t *testing.T) {
	inner := &mockModel{comp: domain.Completion{
		Text: "answer", PromptTokens: 30, CompletionTokens: 10, TotalTokens: 40,
	}}
	budget := NewBudget(BudgetConfig{Provider: "test", DailyLimit: 1000})
	m := NewInstrumentedModel(inner, "test", "test-model", budget)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	comp, err := m.Complete(ctx, domain.Prompt{User: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Text != "answer" {
		t.Errorf("Text = %q", comp.Text)
	}
	if usage.TotalTokens() != 40 {
		t.Errorf("usage tokens = %d, want 40", usage.TotalTokens())
	}
	if daily, _ := budget.Remaining(); daily != 960 {
		t.Errorf("budget remaining = %d, want 960", daily)
	}
}

func TestInstrumentedModel_CachedCompletionNotCharged(t *testing.T) {
	inner := &mockModel{comp: domain.Completion{Text: "cached", Cached: true}}
	budget := NewBudget(BudgetConfig{DailyLimit: 100})
	m := NewInstrumentedModel(inner, "test", "test-model", budget)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := m.Complete(ctx, domain.Prompt{User: "q"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usage.CacheHit() {
		t.Error("expected cache hit to be recorded")
	}
	if daily, _ := budget.Remaining(); daily != 100 {
		t.Errorf("budget remaining = %d, want 100", daily)
	}
}

func TestInstrumentedModel_BudgetRejects(t *testing.T) {
	inner := &mockModel{comp: domain.Completion{Text: "x"}}
	budget := NewBudget(BudgetConfig{DailyLimit: 1, Action: BudgetActionReject})
	budget.Record(1)
	m := NewInstrumentedModel(inner, "test", "test-model", budget)

	_, err := m.Complete(context.Background(), domain.Prompt{User: "q"})
	if !errors.Is(err, domain.ErrGeneration) || !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected generation error wrapping quota, got %v", err)
	}
	if inner.calls != 0 {
		t.Error("inner model must not be called")
	}
}

func TestInstrumentedModel_ErrorReturnedUnchanged(t *testing.T) {
	genErr := &domain.GenerationError{Provider: "test", Err: context.Canceled}
	m := NewInstrumentedModel(&mockModel{err: genErr}, "test", "test-model", nil)

	_, err := m.Complete(context.Background(), domain.Prompt{User: "q"})
	if err != error(genErr) {
		t.Fatalf("expected the same error value, got %v", err)
	}
}

func TestInstrumentedModel_HealthCheck(t *testing.T) {
	m := NewInstrumentedModel(&mockModel{health: errors.New("down")}, "test", "m", nil)
	if err := m.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected delegated health error")
	}
}
