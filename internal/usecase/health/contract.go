package health

import "context"

// Pinger checks database availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks availability of an upstream model provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
