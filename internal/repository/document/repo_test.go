package document

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// --- All ---

func TestAll_ParsesHashes(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "ragsearch:doc:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		return []string{"ragsearch:doc:document 2", "ragsearch:doc:document 1"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if keys[0] != "ragsearch:doc:document 1" {
			t.Errorf("keys must be sorted, got %v", keys)
		}
		return []map[string]string{
			{"__content": "Quarterly revenue grew.", "source": "finance"},
			{"__content": "Two dogs play in the park."},
		}, nil
	}

	docs, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].ID() != "document 1" || docs[1].ID() != "document 2" {
		t.Errorf("unexpected ids: %q %q", docs[0].ID(), docs[1].ID())
	}
	if docs[1].Content() != "Two dogs play in the park." {
		t.Errorf("unexpected content: %q", docs[1].Content())
	}
	if v, _ := docs[0].MetadataValue("source"); v != "finance" {
		t.Errorf("metadata not parsed: %v", docs[0].Metadata())
	}
	if docs[1].Metadata() != nil {
		t.Errorf("expected nil metadata, got %v", docs[1].Metadata())
	}
}

func TestAll_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		t.Error("HGetAllMulti should not be called for an empty keyspace")
		return nil, nil
	}

	docs, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no docs, got %d", len(docs))
	}
}

func TestAll_SkipsVanishedKeys(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"ragsearch:doc:a", "ragsearch:doc:b"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{{}, {"__content": "still here"}}, nil
	}

	docs, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != "b" {
		t.Fatalf("expected only doc b, got %v", docs)
	}
}

func TestAll_MissingContentIsHydratedAsEmpty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"ragsearch:doc:a"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{{"author": "x"}}, nil
	}

	docs, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].Content() != "" {
		t.Errorf("expected empty content, got %q", docs[0].Content())
	}
}

func TestAll_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("connection reset")
	}

	if _, err := repo.All(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestAll_LoadError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"ragsearch:doc:a"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return nil, errors.New("timeout")
	}

	if _, err := repo.All(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- Get ---

func TestGet_Found(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "ragsearch:doc:doc-1" {
			t.Errorf("unexpected key: %s", key)
		}
		return map[string]string{"__content": "hello"}, nil
	}

	doc, err := repo.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "doc-1" || doc.Content() != "hello" {
		t.Errorf("unexpected doc: %q %q", doc.ID(), doc.Content())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
