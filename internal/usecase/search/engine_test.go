package search

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockSource struct {
	docs  []domdoc.Document
	err   error
	calls int
}

func (m *mockSource) All(_ context.Context) ([]domdoc.Document, error) {
	m.calls++
	return m.docs, m.err
}

type mockRetriever struct {
	result   []candidate.Candidate
	err      error
	lastTopK int
}

func (m *mockRetriever) Rank(
	_ context.Context, _ string, _ []domdoc.Document, topK int,
) ([]candidate.Candidate, error) {
	m.lastTopK = topK
	return m.result, m.err
}

type mockSynth struct {
	got   []candidate.Candidate
	calls int
	err   error
}

func (m *mockSynth) Synthesize(
	_ context.Context, _ string, cands []candidate.Candidate,
) (answer.Response, error) {
	m.calls++
	m.got = cands
	if m.err != nil {
		return answer.Response{}, m.err
	}
	return answer.New("ok", nil, cands), nil
}

func scored(t *testing.T, id string, score float64) candidate.Candidate {
	t.Helper()
	d, err := domdoc.New(id, "content of "+id, nil)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return candidate.New(d, score)
}

// --- Tests ---

func TestSearchInternet_InvalidQuery(t *testing.T) {
	src := &mockSource{}
	synth := &mockSynth{}
	e := New(src, &mockRetriever{}, synth, Config{MaxQueryLength: 10})

	for _, q := range []string{"", "   \t", string([]byte{0xff}), strings.Repeat("q", 11)} {
		if _, err := e.SearchInternet(context.Background(), q); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("query %q: expected ErrInvalidQuery, got %v", q, err)
		}
	}
	if src.calls != 0 || synth.calls != 0 {
		t.Error("invalid queries must not reach the store or the model")
	}
}

func TestSearchInternet_DefaultsAndThreshold(t *testing.T) {
	ret := &mockRetriever{result: []candidate.Candidate{
		scored(t, "a", 2.5),
		scored(t, "b", 0.4),
		scored(t, "c", 0),
	}}
	synth := &mockSynth{}
	e := New(&mockSource{}, ret, synth, Config{})

	resp, err := e.SearchInternet(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ret.lastTopK != DefaultTopK {
		t.Errorf("topK = %d, want %d", ret.lastTopK, DefaultTopK)
	}
	if len(synth.got) != 2 || synth.got[0].ID() != "a" || synth.got[1].ID() != "b" {
		t.Errorf("zero-score candidate must be dropped, got %d", len(synth.got))
	}
	if resp.Text() != "ok" {
		t.Errorf("Text = %q", resp.Text())
	}
}

func TestSearchInternet_CustomMinScore(t *testing.T) {
	ret := &mockRetriever{result: []candidate.Candidate{scored(t, "a", 2), scored(t, "b", 1)}}
	synth := &mockSynth{}
	e := New(&mockSource{}, ret, synth, Config{TopK: 2, MinScore: 1})

	if _, err := e.SearchInternet(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(synth.got) != 1 {
		t.Errorf("candidates = %d, want 1", len(synth.got))
	}
}

func TestSearchInternet_StoreError(t *testing.T) {
	cause := errors.New("connection refused")
	synth := &mockSynth{}
	e := New(&mockSource{err: cause}, &mockRetriever{}, synth, Config{})

	_, err := e.SearchInternet(context.Background(), "q")
	if !errors.Is(err, cause) {
		t.Fatalf("expected store error, got %v", err)
	}
	if synth.calls != 0 {
		t.Error("synthesizer must not be called")
	}
}

func TestSearchInternet_InvalidDocumentPropagates(t *testing.T) {
	ret := &mockRetriever{err: domain.NewInvalidDocument(0, "missing id")}
	e := New(&mockSource{}, ret, &mockSynth{}, Config{})

	_, err := e.SearchInternet(context.Background(), "q")
	var ide *domain.InvalidDocumentError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InvalidDocumentError, got %v", err)
	}
}

func TestSearchInternet_GenerationErrorUnchanged(t *testing.T) {
	genErr := &domain.GenerationError{Provider: "test", StatusCode: 429}
	ret := &mockRetriever{result: []candidate.Candidate{scored(t, "a", 1)}}
	e := New(&mockSource{}, ret, &mockSynth{err: genErr}, Config{})

	resp, err := e.SearchInternet(context.Background(), "q")
	if err != error(genErr) {
		t.Fatalf("expected the same error value, got %v", err)
	}
	if resp.Text() != "" {
		t.Error("no partial response on error")
	}
}

func TestSearchInternet_CancelledBeforeSynthesis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := &mockSynth{}
	ret := &mockRetriever{result: []candidate.Candidate{scored(t, "a", 1)}}
	e := New(&mockSource{}, ret, synth, Config{})

	_, err := e.SearchInternet(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if synth.calls != 0 {
		t.Error("synthesizer must not run after cancellation")
	}
}
