package retrieval

import (
	"context"
	"math"

	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
)

// Okapi BM25 defaults.
const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

// Lexical scores documents with Okapi BM25 computed over the supplied set.
type Lexical struct {
	k1 float64
	b  float64
}

// NewLexical creates a BM25 scorer with k1=1.2, b=0.75.
func NewLexical() *Lexical {
	return &Lexical{k1: defaultK1, b: defaultB}
}

// Score implements Scorer. Documents sharing no terms with the query score 0.
func (l *Lexical) Score(_ context.Context, query string, docs []domdoc.Document) ([]float64, error) {
	scores := make([]float64, len(docs))

	terms := uniqueTerms(tokenize(query))
	if len(terms) == 0 {
		return scores, nil
	}

	tfs := make([]map[string]int, len(docs))
	lengths := make([]float64, len(docs))
	df := make(map[string]int, len(terms))
	var totalLen float64

	for i := range docs {
		tokens := tokenize(docs[i].Content())
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for _, t := range terms {
			if tf[t] > 0 {
				df[t]++
			}
		}
		tfs[i] = tf
		lengths[i] = float64(len(tokens))
		totalLen += lengths[i]
	}

	n := float64(len(docs))
	avgLen := totalLen / n
	if avgLen == 0 {
		return scores, nil
	}

	for _, t := range terms {
		if df[t] == 0 {
			continue
		}
		dfT := float64(df[t])
		idf := math.Log((n-dfT+0.5)/(dfT+0.5) + 1)

		for i := range docs {
			tf := float64(tfs[i][t])
			if tf == 0 {
				continue
			}
			norm := l.k1 * (1 - l.b + l.b*lengths[i]/avgLen)
			scores[i] += idf * (tf * (l.k1 + 1)) / (tf + norm)
		}
	}

	return scores, nil
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
