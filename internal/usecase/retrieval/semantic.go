package retrieval

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
)

const defaultEmbedConcurrency = 4

// Semantic scores documents by cosine similarity of embeddings.
// Query and document embedders may differ (instruction-prefixed models).
type Semantic struct {
	query         domain.Embedder
	document      domain.Embedder
	concurrency   int
	minSimilarity float64
}

// NewSemantic creates a cosine scorer. concurrency <= 0 uses a default of 4.
func NewSemantic(query, document domain.Embedder, concurrency int) *Semantic {
	if concurrency <= 0 {
		concurrency = defaultEmbedConcurrency
	}
	return &Semantic{query: query, document: document, concurrency: concurrency}
}

// WithMinSimilarity sets the similarity floor. Documents below it score 0,
// so they count as unrelated both on their own and in hybrid fusion.
func (s *Semantic) WithMinSimilarity(floor float64) *Semantic {
	s.minSimilarity = floor
	return s
}

// Score implements Scorer. Similarities below the floor (and all negative ones) score 0.
func (s *Semantic) Score(ctx context.Context, query string, docs []domdoc.Document) ([]float64, error) {
	usage := domain.UsageFromContext(ctx)

	qr, err := s.query.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	usage.AddEmbedding(qr.TotalTokens)

	scores := make([]float64, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range docs {
		g.Go(func() error {
			dr, err := s.document.Embed(gctx, docs[i].Content())
			if err != nil {
				return fmt.Errorf("embed document %q: %w", docs[i].ID(), err)
			}
			usage.AddEmbedding(dr.TotalTokens)
			if sim := cosine(qr.Embedding, dr.Embedding); sim > 0 && sim >= s.minSimilarity {
				scores[i] = sim
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per document
	}

	return scores, nil
}

// cosine returns the cosine similarity of a and b, or 0 for mismatched or zero vectors.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
