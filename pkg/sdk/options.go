package ragsearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "valkey", "redis" or "" (in-process documents)
	addrs     []string
	password  string
	keyPrefix string

	documents []Document
	model     LanguageModel
	embedder  Embedder

	topK             int
	minScore         float64
	minSimilarity    float64
	maxQueryLength   int
	maxDocumentChars int
	maxContextChars  int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey reads documents from a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis reads documents from a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the key prefix of stored documents. Default: "ragsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithDocuments serves the given documents from memory.
// Ignored when WithValkey or WithRedis is set.
func WithDocuments(docs ...Document) Option {
	return optionFunc(func(c *clientConfig) {
		c.documents = append(c.documents, docs...)
	})
}

// WithLanguageModel sets the answer model. Required.
func WithLanguageModel(m LanguageModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = m
	})
}

// WithEmbedder enables hybrid ranking (BM25 fused with embedding similarity).
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithTopK sets how many candidates reach the prompt. Default: 4.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithMinScore drops candidates scoring at or below score. Default: 0.
func WithMinScore(score float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minScore = score
	})
}

// WithMinSimilarity sets the cosine floor used with WithEmbedder.
// Documents less similar than floor count as unrelated. Default: 0.3.
func WithMinSimilarity(floor float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minSimilarity = floor
	})
}

// WithMaxQueryLength bounds the query length in runes. Default: 2048.
func WithMaxQueryLength(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxQueryLength = n
	})
}

// WithPromptLimits bounds the characters of each document and of the whole context.
// Defaults: 2000 and 8000.
func WithPromptLimits(perDocument, total int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxDocumentChars = perDocument
		c.maxContextChars = total
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
