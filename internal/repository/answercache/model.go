package answercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/db"
	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// store is the consumer interface for the answer cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config holds cache settings.
type Config struct {
	KeyPrefix  string        // global prefix, e.g. "ragsearch:"
	Namespace  string        // usually the model name; answers from other models never match
	TTL        time.Duration // 0 = no expiry
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// CachedModel caches completions keyed by the full prompt.
// Cache failures are logged and never fail the call.
type CachedModel struct {
	inner      domain.LanguageModel
	store      store
	keyPrefix  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// entry is the persisted form of a completion.
type entry struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// New creates a caching decorator around inner.
func New(inner domain.LanguageModel, s store, cfg Config) *CachedModel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix + "answer_cache:"
	if cfg.Namespace != "" {
		prefix += cfg.Namespace + ":"
	}
	return &CachedModel{
		inner:      inner,
		store:      s,
		keyPrefix:  prefix,
		ttl:        cfg.TTL,
		cacheTotal: cfg.CacheTotal,
		logger:     logger,
	}
}

// Complete returns a cached completion or calls the inner model.
// Errors from the inner model are returned unchanged.
func (c *CachedModel) Complete(ctx context.Context, prompt domain.Prompt) (domain.Completion, error) {
	key := c.cacheKey(prompt)

	if comp, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return comp, nil
	}
	c.incCache("miss")

	comp, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		return domain.Completion{}, err
	}

	c.putToCache(ctx, key, comp)
	return comp, nil
}

// HealthCheck delegates to the inner model when it supports health checks.
func (c *CachedModel) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedModel) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedModel) cacheKey(p domain.Prompt) string {
	h := sha256.New()
	h.Write([]byte(p.System))
	h.Write([]byte{0})
	h.Write([]byte(p.User))
	return c.keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedModel) getFromCache(ctx context.Context, key string) (domain.Completion, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached answer", zap.String("key", key), zap.Error(err))
		}
		return domain.Completion{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Text == "" {
		c.logger.Warn("Failed to parse cached answer", zap.String("key", key), zap.Error(err))
		return domain.Completion{}, false
	}

	return domain.Completion{Text: e.Text, Model: e.Model, Cached: true}, true
}

func (c *CachedModel) putToCache(ctx context.Context, key string, comp domain.Completion) {
	if comp.Text == "" {
		return
	}
	data, err := json.Marshal(entry{Text: comp.Text, Model: comp.Model})
	if err != nil {
		c.logger.Warn("Failed to encode answer", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache answer", zap.String("key", key), zap.Error(err))
	}
}
