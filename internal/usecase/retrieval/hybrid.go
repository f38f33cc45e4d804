package retrieval

import (
	"context"
	"fmt"
	"sort"

	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// Hybrid fuses lexical and semantic rankings via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) over rankings where d has a positive score,
// so a document with no evidence in either ranking keeps score 0.
type Hybrid struct {
	lexical  Scorer
	semantic Scorer
}

// NewHybrid creates an RRF scorer over two rankings.
func NewHybrid(lexical, semantic Scorer) *Hybrid {
	return &Hybrid{lexical: lexical, semantic: semantic}
}

// Score implements Scorer.
func (h *Hybrid) Score(ctx context.Context, query string, docs []domdoc.Document) ([]float64, error) {
	lex, err := h.lexical.Score(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("lexical: %w", err)
	}
	sem, err := h.semantic.Score(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("semantic: %w", err)
	}

	fused := make([]float64, len(docs))
	addRRF(fused, lex, docs)
	addRRF(fused, sem, docs)
	return fused, nil
}

// addRRF adds the reciprocal rank of every positively scored document.
func addRRF(fused, scores []float64, docs []domdoc.Document) {
	order := make([]int, 0, len(scores))
	for i, s := range scores {
		if s > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return docs[ia].ID() < docs[ib].ID()
	})
	for rank, i := range order {
		fused[i] += 1.0 / float64(rrfK+rank+1)
	}
}
