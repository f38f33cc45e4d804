package generation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/usage"
)

// BudgetAction defines behavior when the token budget is exhausted.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with domain.ErrQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists token counters. IncrBy must be safe to call repeatedly.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetConfig configures a Budget. Zero limits mean unlimited.
type BudgetConfig struct {
	Provider     string
	KeyPrefix    string
	DailyLimit   int64
	MonthlyLimit int64
	Action       BudgetAction
	Logger       *zap.Logger
}

// Budget tracks completion tokens per UTC day and month.
// Check is in-memory; Record writes behind to the store when one is attached.
type Budget struct {
	mu          sync.Mutex
	cfg         BudgetConfig
	dailyUsed   int64
	monthlyUsed int64
	day         time.Time
	month       time.Time
	store       BudgetStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewBudget creates an in-memory budget.
func NewBudget(cfg BudgetConfig) *Budget {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Action == "" {
		cfg.Action = BudgetActionWarn
	}
	b := &Budget{cfg: cfg, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	b.day, b.month = periods(b.now())
	return b
}

// WithStore attaches persistence and loads the counters of the current period.
func (b *Budget) WithStore(ctx context.Context, store BudgetStore) *Budget {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	if v, err := store.Get(ctx, b.key("daily", now)); err == nil {
		b.dailyUsed = v
	} else {
		b.logger.Warn("Failed to load daily token budget", zap.Error(err))
	}
	if v, err := store.Get(ctx, b.key("monthly", now)); err == nil {
		b.monthlyUsed = v
	} else {
		b.logger.Warn("Failed to load monthly token budget", zap.Error(err))
	}
	return b
}

// Check reports whether another request may be sent.
func (b *Budget) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	daily := b.cfg.DailyLimit > 0 && b.dailyUsed >= b.cfg.DailyLimit
	monthly := b.cfg.MonthlyLimit > 0 && b.monthlyUsed >= b.cfg.MonthlyLimit
	if !daily && !monthly {
		return nil
	}

	if b.cfg.Action == BudgetActionReject {
		return domain.ErrQuotaExceeded
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.cfg.Provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return nil
}

// Record adds consumed tokens.
func (b *Budget) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store := b.store
	now := b.now()
	b.mu.Unlock()

	if store == nil {
		return
	}

	// The request context may already be done; counters are written on their own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, period := range []string{"daily", "monthly"} {
		key := b.key(period, now)
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Remaining returns tokens left for the day and the month (-1 = unlimited).
func (b *Budget) Remaining() (daily, monthly int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.cfg.DailyLimit, b.dailyUsed), remaining(b.cfg.MonthlyLimit, b.monthlyUsed)
}

// Snapshot returns the current limits and counters.
func (b *Budget) Snapshot() usage.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return usage.Snapshot{
		DailyLimit:   b.cfg.DailyLimit,
		DailyUsed:    b.dailyUsed,
		MonthlyLimit: b.cfg.MonthlyLimit,
		MonthlyUsed:  b.monthlyUsed,
	}
}

func (b *Budget) key(period string, t time.Time) string {
	stamp := t.Format("2006-01-02")
	if period == "monthly" {
		stamp = t.Format("2006-01")
	}
	return fmt.Sprintf("%sbudget:%s:%s:%s", b.cfg.KeyPrefix, b.cfg.Provider, period, stamp)
}

// rollover zeroes counters when the UTC day or month changes. Caller holds mu.
func (b *Budget) rollover() {
	day, month := periods(b.now())
	if day.After(b.day) {
		b.dailyUsed = 0
		b.day = day
	}
	if month.After(b.month) {
		b.monthlyUsed = 0
		b.month = month
	}
}

func periods(t time.Time) (day, month time.Time) {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}
