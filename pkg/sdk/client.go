package ragsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/kailas-cloud/ragsearch/internal/db/redis"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
	documentrepo "github.com/kailas-cloud/ragsearch/internal/repository/document"
	"github.com/kailas-cloud/ragsearch/internal/repository/memstore"
	"github.com/kailas-cloud/ragsearch/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/ragsearch/internal/usecase/search"
	"github.com/kailas-cloud/ragsearch/internal/usecase/synthesis"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "ragsearch:"
	defaultMinSimilarity    = 0.3
)

// Internal interfaces, swapped out in tests.
type documentSource interface {
	All(ctx context.Context) ([]domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Ping(ctx context.Context) error
}

type searchUseCase interface {
	SearchInternet(ctx context.Context, query string) (answer.Response, error)
}

// Client is the ragsearch SDK entry point. Safe for concurrent use.
type Client struct {
	docs   documentSource
	engine searchUseCase
	closer func()
	obs    *observer
}

// New creates a Client. WithLanguageModel is required.
// The provided context is used for the initial readiness check of a remote store.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix, minSimilarity: defaultMinSimilarity}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.model == nil {
		return nil, errors.New("ragsearch: language model required (use WithLanguageModel)")
	}

	docs, closer, err := openDocuments(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		closer()
		return nil, err
	}

	return &Client{
		docs:   docs,
		engine: buildEngine(docs, cfg),
		closer: closer,
		obs:    obs,
	}, nil
}

func openDocuments(ctx context.Context, cfg *clientConfig) (documentSource, func(), error) {
	switch cfg.driver {
	case "":
		store := memstore.New()
		for i, d := range cfg.documents {
			doc, err := domdoc.New(d.ID, d.Content, d.Metadata)
			if err != nil {
				return nil, nil, fmt.Errorf("ragsearch: documents[%d]: %w: %w", i, ErrInvalidDocument, err)
			}
			store.Put(doc)
		}
		return store, func() {}, nil
	case "valkey", "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, nil, fmt.Errorf("ragsearch: create %s store: %w", cfg.driver, err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ragsearch: database not ready: %w", err)
		}
		return &remoteDocuments{Repo: documentrepo.New(store, cfg.keyPrefix), store: store}, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("ragsearch: unknown driver %q", cfg.driver)
	}
}

func buildEngine(docs documentSource, cfg *clientConfig) *searchuc.Engine {
	var scorer retrieval.Scorer = retrieval.NewLexical()
	if cfg.embedder != nil {
		emb := &embedderAdapter{inner: cfg.embedder}
		scorer = retrieval.NewHybrid(scorer, retrieval.NewSemantic(emb, emb, 0).WithMinSimilarity(cfg.minSimilarity))
	}

	return searchuc.New(
		docs,
		retrieval.New(scorer),
		synthesis.New(&modelAdapter{inner: cfg.model}, synthesis.Config{
			MaxDocumentChars: cfg.maxDocumentChars,
			MaxContextChars:  cfg.maxContextChars,
		}),
		searchuc.Config{
			TopK:           cfg.topK,
			MinScore:       cfg.minScore,
			MaxQueryLength: cfg.maxQueryLength,
		},
	)
}

// remoteDocuments adds connectivity checks to the hash-backed repository.
type remoteDocuments struct {
	*documentrepo.Repo
	store *dbRedis.Store
}

func (r *remoteDocuments) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Ping checks document store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.docs.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SearchInternet answers query from the stored documents with one model call.
func (c *Client) SearchInternet(ctx context.Context, query string) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	resp, err := c.engine.SearchInternet(ctx, query)
	if err != nil {
		return Answer{}, fmt.Errorf("search: %w", err)
	}
	return answerFromDomain(&resp), nil
}

// Document returns a stored document by ID.
func (c *Client) Document(ctx context.Context, id string) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("document", start, err) }()

	d, err := c.docs.Get(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return documentFromDomain(&d), nil
}
