package memstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
)

// Store is an in-process document source. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[string]domdoc.Document
}

// New creates a store holding docs. Later duplicates replace earlier ones.
func New(docs ...domdoc.Document) *Store {
	s := &Store{docs: make(map[string]domdoc.Document, len(docs))}
	for _, d := range docs {
		s.Put(d)
	}
	return s
}

// Put adds or replaces a document.
func (s *Store) Put(doc domdoc.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID()] = doc
}

// All returns every document ordered by ID.
func (s *Store) All(_ context.Context) ([]domdoc.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domdoc.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID() < docs[j].ID() })
	return docs, nil
}

// Get returns a document by ID.
func (s *Store) Get(_ context.Context, id string) (domdoc.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(_ context.Context) error { return nil }

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// fileDocument is the YAML shape of a single fixture entry.
type fileDocument struct {
	ID       string            `yaml:"id"`
	Content  string            `yaml:"content"`
	Metadata map[string]string `yaml:"metadata"`
}

type fileLayout struct {
	Documents []fileDocument `yaml:"documents"`
}

// LoadFile builds a store from a YAML file of the form:
//
//	documents:
//	  - id: document 1
//	    content: ...
//	    metadata: {source: notes}
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read documents file %s: %w", path, err)
	}

	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parse documents file %s: %w", path, err)
	}

	s := New()
	for i, fd := range layout.Documents {
		doc, err := domdoc.New(fd.ID, fd.Content, fd.Metadata)
		if err != nil {
			return nil, fmt.Errorf("documents[%d]: %w: %w", i, domain.ErrInvalidDocument, err)
		}
		s.Put(doc)
	}
	return s, nil
}
