package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
)

// fixedScorer returns preset scores aligned with the documents.
type fixedScorer struct {
	scores []float64
	err    error
	calls  int
}

func (s *fixedScorer) Score(_ context.Context, _ string, docs []domdoc.Document) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.scores != nil {
		return s.scores, nil
	}
	return make([]float64, len(docs)), nil
}

// keywordEmbedder maps text to a bag-of-keywords vector; deterministic and offline.
type keywordEmbedder struct {
	keywords []string
	err      error
	tokens   int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.keywords))
	for i, k := range e.keywords {
		if strings.Contains(lower, k) {
			vec[i] = 1
		}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: e.tokens}, nil
}

func mustDoc(t *testing.T, id, content string) domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, content, nil)
	if err != nil {
		t.Fatalf("new document %q: %v", id, err)
	}
	return d
}

