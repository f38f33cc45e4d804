package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo reads documents stored as hashes at <prefix>doc:<id>.
// Writes belong to the ingestion pipeline, not to this service.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a document repository. keyPrefix is prepended to every key (e.g. "ragsearch:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// All returns every stored document ordered by ID.
// Keys that vanish between SCAN and HGETALL are skipped.
func (r *Repo) All(ctx context.Context) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, r.docPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(keys))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		docs = append(docs, parseHashFields(r.extractDocID(keys[i]), fields))
	}
	return docs, nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	fields, err := r.store.HGetAll(ctx, r.docKey(id))
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return parseHashFields(id, fields), nil
}

func (r *Repo) docPrefix() string {
	return r.keyPrefix + "doc:"
}

func (r *Repo) docKey(id string) string {
	return r.docPrefix() + id
}

func (r *Repo) extractDocID(key string) string {
	return strings.TrimPrefix(key, r.docPrefix())
}
