package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/ragsearch/internal/logger"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

// Engine defaults.
const (
	DefaultTopK           = 4
	DefaultMaxQueryLength = 2048
)

// Config tunes retrieval for every search.
type Config struct {
	TopK           int     // candidates passed to the synthesizer
	MinScore       float64 // candidates scoring at or below are dropped
	MaxQueryLength int     // in runes
}

// Engine answers natural-language questions over the document store.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	docs      DocumentSource
	retriever Retriever
	synth     Synthesizer
	cfg       Config
}

// New creates a search engine. Zero TopK and MaxQueryLength fall back to defaults.
func New(docs DocumentSource, retriever Retriever, synth Synthesizer, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = DefaultMaxQueryLength
	}
	return &Engine{docs: docs, retriever: retriever, synth: synth, cfg: cfg}
}

// SearchInternet retrieves the documents relevant to query and answers it from them.
// An empty store or no relevant documents still yields an answer, not an error.
func (e *Engine) SearchInternet(ctx context.Context, query string) (answer.Response, error) {
	start := time.Now()
	resp, err := e.search(ctx, query)

	outcome := "answered"
	switch {
	case err != nil:
		outcome = "error"
	case len(resp.Candidates()) == 0:
		outcome = "no_match"
	}
	metrics.SearchTotal.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	return resp, err
}

func (e *Engine) search(ctx context.Context, query string) (answer.Response, error) {
	if err := e.validateQuery(query); err != nil {
		return answer.Response{}, err
	}

	docs, err := e.docs.All(ctx)
	if err != nil {
		return answer.Response{}, fmt.Errorf("load documents: %w", err)
	}

	ranked, err := e.retriever.Rank(ctx, query, docs, e.cfg.TopK)
	if err != nil {
		return answer.Response{}, fmt.Errorf("rank documents: %w", err)
	}

	relevant := e.filterRelevant(ranked)
	metrics.RetrievalCandidates.Observe(float64(len(relevant)))

	if err := ctx.Err(); err != nil {
		return answer.Response{}, fmt.Errorf("search aborted: %w", err)
	}

	resp, err := e.synth.Synthesize(ctx, query, relevant)
	if err != nil {
		return answer.Response{}, err //nolint:wrapcheck // generation errors are surfaced unchanged
	}

	logger.FromContext(ctx).Info("Search answered",
		zap.Int("documents", len(docs)),
		zap.Int("ranked", len(ranked)),
		zap.Int("candidates", len(relevant)),
		zap.Strings("citations", resp.Citations()),
	)

	return resp, nil
}

func (e *Engine) validateQuery(query string) error {
	if !utf8.ValidString(query) {
		return fmt.Errorf("%w: query must be valid UTF-8", domain.ErrInvalidQuery)
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(query); n > e.cfg.MaxQueryLength {
		return fmt.Errorf("%w: query too long (%d > %d)", domain.ErrInvalidQuery, n, e.cfg.MaxQueryLength)
	}
	return nil
}

func (e *Engine) filterRelevant(ranked []candidate.Candidate) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(ranked))
	for i := range ranked {
		if ranked[i].Score() > e.cfg.MinScore {
			out = append(out, ranked[i])
		}
	}
	return out
}
