package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a non-critical component is failing; searches may still fail.
	Degraded Status = "degraded"
	// Unhealthy indicates a critical component is failing.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type component struct {
	name     string
	critical bool
	check    func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service with the database as its critical component.
func New(db Pinger) *Service {
	s := &Service{timeout: DefaultCheckTimeout}
	s.components = append(s.components, component{name: "database", critical: true, check: db.Ping})
	return s
}

// WithProvider adds a non-critical provider check (llm, embedding).
func (s *Service) WithProvider(name string, p ProviderChecker) *Service {
	s.components = append(s.components, component{name: name, check: p.HealthCheck})
	return s
}

// Check runs all component checks in parallel, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.components))

	var wg sync.WaitGroup
	for i, c := range s.components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results[i] = CheckOK
			if err := c.check(cctx); err != nil {
				results[i] = CheckError
			}
		}()
	}
	wg.Wait()

	status := Healthy
	checks := make(map[string]CheckResult, len(s.components))
	for i, c := range s.components {
		checks[c.name] = results[i]
		if results[i] == CheckOK {
			continue
		}
		if c.critical {
			status = Unhealthy
		} else if status == Healthy {
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}
