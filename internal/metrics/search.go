package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Search calls by outcome",
		},
		[]string{"outcome"}, // "answered" / "no_match" / "error"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RetrievalCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_candidates",
			Help:      "Candidates passed to the synthesizer per search",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
		},
	)

	UngroundedCitationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ungrounded_citations_total",
			Help:      "Citation markers removed because the id was not in the prompt context",
		},
	)
)

var registerOnce sync.Once

// Register registers pipeline metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			LLMRequestsTotal,
			LLMRequestDuration,
			LLMTokensTotal,
			LLMErrorsTotal,
			LLMBudgetTokensRemaining,
			AnswerCacheTotal,
			SearchTotal,
			SearchDuration,
			RetrievalCandidates,
			UngroundedCitationsTotal,
		)
	})
}
