package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/ragsearch/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (nothing tracked, unlimited).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period (UTC boundaries).
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now()
	var snap domusage.Snapshot
	if s.br != nil {
		snap = s.br.Snapshot()
	}

	if period == domusage.PeriodMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return domusage.NewReport(period, start, start.AddDate(0, 1, 0), snap.MonthlyLimit, snap.MonthlyUsed)
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return domusage.NewReport(domusage.PeriodDay, start, start.AddDate(0, 0, 1), snap.DailyLimit, snap.DailyUsed)
}
