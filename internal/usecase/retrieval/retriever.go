package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
)

// Scorer assigns a relevance score to every document for one query.
// The returned slice is aligned with docs. Higher is more relevant; 0 means no evidence.
type Scorer interface {
	Score(ctx context.Context, query string, docs []domdoc.Document) ([]float64, error)
}

// Retriever ranks a document set against a query.
type Retriever struct {
	scorer Scorer
}

// New creates a retriever over the given scorer.
func New(scorer Scorer) *Retriever {
	return &Retriever{scorer: scorer}
}

// Rank returns at most topK candidates ordered by descending score (ties by id).
// Same query and document set always produce the same sequence.
func (r *Retriever) Rank(
	ctx context.Context, query string, docs []domdoc.Document, topK int,
) ([]candidate.Candidate, error) {
	if topK < 1 {
		return nil, fmt.Errorf("rank: %w", domain.ErrInvalidTopK)
	}
	if len(docs) == 0 {
		return []candidate.Candidate{}, nil
	}
	for i := range docs {
		if err := checkDocument(i, &docs[i]); err != nil {
			return nil, err
		}
	}

	scores, err := r.scorer.Score(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("score documents: %w", err)
	}
	if len(scores) != len(docs) {
		return nil, fmt.Errorf("scorer returned %d scores for %d documents", len(scores), len(docs))
	}

	cs := make([]candidate.Candidate, len(docs))
	for i := range docs {
		cs[i] = candidate.New(docs[i], scores[i])
	}
	candidate.Sort(cs)

	if len(cs) > topK {
		cs = cs[:topK]
	}
	return cs, nil
}

func checkDocument(i int, d *domdoc.Document) error {
	if strings.TrimSpace(d.ID()) == "" {
		return domain.NewInvalidDocument(i, "missing id")
	}
	if err := domdoc.ValidateID(d.ID()); err != nil {
		return domain.NewInvalidDocument(i, fmt.Sprintf("document %q: %v", d.ID(), err))
	}
	if strings.TrimSpace(d.Content()) == "" {
		return domain.NewInvalidDocument(i, fmt.Sprintf("document %q has no content", d.ID()))
	}
	return nil
}
