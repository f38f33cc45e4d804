package answercache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/ragsearch/internal/db"
	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// --- Mocks ---

type mockModel struct {
	comp   domain.Completion
	err    error
	calls  int
	health error
}

func (m *mockModel) Complete(_ context.Context, _ domain.Prompt) (domain.Completion, error) {
	m.calls++
	return m.comp, m.err
}

func (m *mockModel) HealthCheck(_ context.Context) error { return m.health }

// memKV is a map-backed KV store recording TTLs.
type memKV struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func prompt(user string) domain.Prompt {
	return domain.Prompt{System: "answer with citations", User: user}
}

// --- Tests ---

func TestComplete_MissThenHit(t *testing.T) {
	inner := &mockModel{comp: domain.Completion{Text: "See [document 2].", Model: "m", TotalTokens: 40}}
	kv := newMemKV()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_answer_cache_total"}, []string{"result"})
	c := New(inner, kv, Config{KeyPrefix: "ragsearch:", Namespace: "m", TTL: time.Minute, CacheTotal: counter})

	first, err := c.Complete(context.Background(), prompt("dogs?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached || first.TotalTokens != 40 {
		t.Errorf("first call should come from the model: %+v", first)
	}

	second, err := c.Complete(context.Background(), prompt("dogs?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached || second.Text != "See [document 2]." || second.TotalTokens != 0 {
		t.Errorf("second call should be a cache hit: %+v", second)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	for key, ttl := range kv.ttls {
		if !strings.HasPrefix(key, "ragsearch:answer_cache:m:") {
			t.Errorf("unexpected key %s", key)
		}
		if ttl != time.Minute {
			t.Errorf("ttl = %s, want 1m", ttl)
		}
	}

	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %v, want 1", got)
	}
}

func TestComplete_DifferentPromptsDoNotCollide(t *testing.T) {
	inner := &mockModel{comp: domain.Completion{Text: "answer"}}
	c := New(inner, newMemKV(), Config{})

	_, _ = c.Complete(context.Background(), domain.Prompt{System: "a", User: "bc"})
	_, _ = c.Complete(context.Background(), domain.Prompt{System: "ab", User: "c"})

	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls)
	}
}

func TestComplete_InnerErrorReturnedUnchanged(t *testing.T) {
	genErr := &domain.GenerationError{Provider: "test", Err: errors.New("quota")}
	inner := &mockModel{err: genErr}
	kv := newMemKV()
	c := New(inner, kv, Config{})

	_, err := c.Complete(context.Background(), prompt("q"))
	if err != error(genErr) {
		t.Fatalf("expected identical error, got %v", err)
	}
	if len(kv.data) != 0 {
		t.Error("failed completion must not be cached")
	}
}

func TestComplete_StoreFailuresAreNotFatal(t *testing.T) {
	inner := &mockModel{comp: domain.Completion{Text: "ok"}}
	kv := newMemKV()
	kv.getErr = errors.New("timeout")
	kv.setErr = errors.New("OOM")
	c := New(inner, kv, Config{})

	comp, err := c.Complete(context.Background(), prompt("q"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Text != "ok" {
		t.Errorf("Text = %q", comp.Text)
	}
}

func TestComplete_CorruptEntryIgnored(t *testing.T) {
	inner := &mockModel{comp: domain.Completion{Text: "fresh"}}
	kv := newMemKV()
	c := New(inner, kv, Config{})
	kv.data[c.cacheKey(prompt("q"))] = []byte("{not json")

	comp, err := c.Complete(context.Background(), prompt("q"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp.Text != "fresh" || inner.calls != 1 {
		t.Errorf("expected fresh completion, got %+v (calls=%d)", comp, inner.calls)
	}
}

func TestHealthCheck_Delegates(t *testing.T) {
	inner := &mockModel{health: errors.New("down")}
	c := New(inner, newMemKV(), Config{})

	if err := c.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected delegated health error")
	}
}
