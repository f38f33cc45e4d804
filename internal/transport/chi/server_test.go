package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/candidate"
	domusage "github.com/kailas-cloud/ragsearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
)

// --- mocks ---

type mockSearcher struct {
	fn       func(ctx context.Context, query string) (answer.Response, error)
	gotQuery string
}

func (m *mockSearcher) SearchInternet(ctx context.Context, query string) (answer.Response, error) {
	m.gotQuery = query
	return m.fn(ctx, query)
}

type mockDocuments struct {
	docs map[string]domdoc.Document
}

func (m *mockDocuments) Get(_ context.Context, id string) (domdoc.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	gotPeriod domusage.Period
}

func (m *mockUsage) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	m.gotPeriod = period
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return domusage.NewReport(period, start, start.AddDate(0, 1, 0), 1000, 1000)
}

// --- helpers ---

func dogsAnswer(ctx context.Context, _ string) (answer.Response, error) {
	if u := domain.UsageFromContext(ctx); u != nil {
		u.AddCompletion(domain.Completion{PromptTokens: 30, CompletionTokens: 12})
	}
	doc := domdoc.Reconstruct("document 2", "My neighbour walks two dogs.", nil)
	return answer.New(
		"Your neighbour has two dogs [document 2].",
		[]string{"document 2"},
		[]candidate.Candidate{candidate.New(doc, 1.5)},
	), nil
}

func newTestRouter(t *testing.T, s Searcher, cfg RouterConfig) http.Handler {
	t.Helper()
	docs := &mockDocuments{docs: map[string]domdoc.Document{
		"document 2": domdoc.Reconstruct("document 2", "My neighbour walks two dogs.", map[string]string{"source": "notes"}),
	}}
	health := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
	}}
	return NewServer(s, docs, &mockUsage{}, health, nil).Router(cfg)
}

func postSearch(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --- tests ---

func TestSearch_OK(t *testing.T) {
	s := &mockSearcher{fn: dogsAnswer}
	rr := postSearch(t, newTestRouter(t, s, RouterConfig{}), `{"query":"How many dogs does my neighbour have?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if s.gotQuery != "How many dogs does my neighbour have?" {
		t.Errorf("query = %q", s.gotQuery)
	}
	if got := rr.Header().Get("X-Tokens-Used"); got != "42" {
		t.Errorf("X-Tokens-Used = %q, want 42", got)
	}
	if got := rr.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Answer, "document 2") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Citations) != 1 || resp.Citations[0] != "document 2" {
		t.Errorf("citations = %v", resp.Citations)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].ID != "document 2" || resp.Candidates[0].Score != 1.5 {
		t.Errorf("candidates = %+v", resp.Candidates)
	}
}

func TestSearch_CacheHitHeader(t *testing.T) {
	s := &mockSearcher{fn: func(ctx context.Context, _ string) (answer.Response, error) {
		domain.UsageFromContext(ctx).AddCompletion(domain.Completion{Cached: true})
		return answer.New("cached", nil, nil), nil
	}}
	rr := postSearch(t, newTestRouter(t, s, RouterConfig{}), `{"query":"q"}`)

	if got := rr.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", got)
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cites, ok := resp["citations"].([]any); !ok || len(cites) != 0 {
		t.Errorf("citations = %v, want empty array", resp["citations"])
	}
}

func TestSearch_BadBody(t *testing.T) {
	s := &mockSearcher{fn: dogsAnswer}
	rr := postSearch(t, newTestRouter(t, s, RouterConfig{}), `{"query":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != codeBadRequest {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestSearch_BodyTooLarge(t *testing.T) {
	s := &mockSearcher{fn: dogsAnswer}
	body := `{"query":"` + strings.Repeat("a", 200) + `"}`
	rr := postSearch(t, newTestRouter(t, s, RouterConfig{MaxBodyBytes: 64}), body)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != codeTooLarge {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid query", fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery), http.StatusBadRequest, codeInvalidQuery},
		{"invalid document", fmt.Errorf("rank documents: %w", domain.NewInvalidDocument(3, "blank id")),
			http.StatusBadGateway, codeInvalidDocument},
		{"generation", &domain.GenerationError{Provider: "openai", StatusCode: 500}, http.StatusBadGateway, codeGeneration},
		{"embedding", fmt.Errorf("score: %w", domain.ErrEmbedding), http.StatusBadGateway, codeEmbedding},
		{"quota", &domain.GenerationError{Detail: "token budget exhausted", Err: domain.ErrQuotaExceeded},
			http.StatusTooManyRequests, codeQuotaExceeded},
		{"generation timeout", &domain.GenerationError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, codeTimeout},
		{"cancelled", fmt.Errorf("search aborted: %w", context.Canceled), http.StatusServiceUnavailable, codeCancelled},
		{"unknown", fmt.Errorf("load documents: boom"), http.StatusInternalServerError, codeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &mockSearcher{fn: func(context.Context, string) (answer.Response, error) {
				return answer.Response{}, tc.err
			}}
			rr := postSearch(t, newTestRouter(t, s, RouterConfig{}), `{"query":"q"}`)

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tc.wantCode)
			}
			if strings.Contains(resp.Message, "boom") || strings.Contains(resp.Message, "index 3") {
				t.Errorf("message leaks internals: %q", resp.Message)
			}
		})
	}
}

func TestGetDocument(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{fn: dogsAnswer}, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/documents/document%202", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp documentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "document 2" || resp.Metadata["source"] != "notes" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{fn: dogsAnswer}, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/documents/missing", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != codeNotFound {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status     healthuc.Status
		wantStatus int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			health := &mockHealth{report: healthuc.Report{
				Status: tc.status,
				Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "llm": healthuc.CheckError},
			}}
			h := NewServer(&mockSearcher{fn: dogsAnswer}, &mockDocuments{}, &mockUsage{}, health, nil).
				Router(RouterConfig{APIKeys: []string{"secret"}})

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			var resp healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tc.status) || resp.Checks["llm"] != "error" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{fn: dogsAnswer}, RouterConfig{APIKeys: []string{"secret"}})

	if rr := postSearch(t, h, `{"query":"q"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", rr.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{fn: dogsAnswer}, RouterConfig{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/collections", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != codeNotFound {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestGetUsage(t *testing.T) {
	usage := &mockUsage{}
	h := NewServer(&mockSearcher{fn: dogsAnswer}, &mockDocuments{}, usage, &mockHealth{}, nil).Router(RouterConfig{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/usage?period=month", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if usage.gotPeriod != domusage.PeriodMonth {
		t.Errorf("period = %q", usage.gotPeriod)
	}
	var resp usageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TokensRemaining != 0 || !resp.Exhausted || resp.Period != "month" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetUsage_BadPeriod(t *testing.T) {
	h := newTestRouter(t, &mockSearcher{fn: dogsAnswer}, RouterConfig{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/usage?period=year", http.NoBody))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
