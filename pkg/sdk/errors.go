package ragsearch

import "github.com/kailas-cloud/ragsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery    = domain.ErrInvalidQuery
	ErrInvalidDocument = domain.ErrInvalidDocument
	ErrGeneration      = domain.ErrGeneration
	ErrEmbedding       = domain.ErrEmbedding
	ErrQuotaExceeded   = domain.ErrQuotaExceeded
	ErrNotFound        = domain.ErrNotFound
)
