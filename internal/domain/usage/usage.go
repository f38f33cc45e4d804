package usage

import (
	"fmt"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod parses a period name. Empty means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("period must be %q or %q, got %q", PeriodDay, PeriodMonth, s)
	}
}

// Snapshot is a point-in-time view of the token counters.
type Snapshot struct {
	DailyLimit   int64 // 0 = unlimited
	DailyUsed    int64
	MonthlyLimit int64 // 0 = unlimited
	MonthlyUsed  int64
}

// Report is language model token usage for one period.
type Report struct {
	period Period
	start  time.Time
	end    time.Time
	limit  int64
	used   int64
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, limit, used int64) Report {
	return Report{period: period, start: start, end: end, limit: limit, used: used}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// Start returns the period start.
func (r *Report) Start() time.Time { return r.start }

// End returns the period end, which is also when the budget resets.
func (r *Report) End() time.Time { return r.end }

// Limit returns the token limit (0 = unlimited).
func (r *Report) Limit() int64 { return r.limit }

// Used returns tokens consumed in the period.
func (r *Report) Used() int64 { return r.used }

// Remaining returns tokens left, or -1 when unlimited.
func (r *Report) Remaining() int64 {
	if r.limit == 0 {
		return -1
	}
	return max(r.limit-r.used, 0)
}

// Exhausted reports whether a limit is set and fully consumed.
func (r *Report) Exhausted() bool {
	return r.limit > 0 && r.used >= r.limit
}
