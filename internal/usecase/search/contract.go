package search

import (
	"context"

	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
)

// DocumentSource yields the raw document set to search over.
type DocumentSource interface {
	All(ctx context.Context) ([]domdoc.Document, error)
}

// Retriever ranks documents against a query.
type Retriever interface {
	Rank(ctx context.Context, query string, docs []domdoc.Document, topK int) ([]candidate.Candidate, error)
}

// Synthesizer produces a grounded answer from ranked candidates.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, cands []candidate.Candidate) (answer.Response, error)
}
