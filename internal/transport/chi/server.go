package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ragsearch/internal/domain/document"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/answer"
	domusage "github.com/kailas-cloud/ragsearch/internal/domain/usage"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
)

// Searcher answers a single query.
type Searcher interface {
	SearchInternet(ctx context.Context, query string) (answer.Response, error)
}

// DocumentReader loads a single document by ID.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// UsageReporter builds token usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the search HTTP API.
type Server struct {
	search        Searcher
	documents     DocumentReader
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// RouterConfig holds router-level settings.
type RouterConfig struct {
	APIKeys      []string
	MaxBodyBytes int64 // 0 = unlimited
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	documents DocumentReader,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:        search,
		documents:     documents,
		usage:         usage,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the middleware chain:
// recoverer, request ID, wide event log, auth, metrics.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := gochi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.With(maxBodyBytes(cfg.MaxBodyBytes)).Post("/search", s.Search)
	r.Get("/documents/{id}", s.GetDocument)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Answer     string              `json:"answer"`
	Citations  []string            `json:"citations"`
	Candidates []candidateResponse `json:"candidates"`
}

type candidateResponse struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type documentResponse struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type usageResponse struct {
	Period          string    `json:"period"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	TokensLimit     int64     `json:"tokens_limit"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensRemaining int64     `json:"tokens_remaining"`
	Exhausted       bool      `json:"exhausted"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
				"request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.SearchInternet(ctx, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("X-Tokens-Used", strconv.Itoa(usage.TotalTokens()))
	if usage.CacheHit() {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, responseToJSON(&resp))
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid document id")
			return
		}
		id = unescaped
	}

	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		ID:       doc.ID(),
		Content:  doc.Content(),
		Metadata: doc.Metadata(),
	})
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageResponse{
		Period:          string(report.Period()),
		PeriodStart:     report.Start(),
		PeriodEnd:       report.End(),
		TokensLimit:     report.Limit(),
		TokensUsed:      report.Used(),
		TokensRemaining: report.Remaining(),
		Exhausted:       report.Exhausted(),
	})
}

// HealthCheck handles GET /health. Degraded still answers 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

func responseToJSON(resp *answer.Response) searchResponse {
	citations := resp.Citations()
	if citations == nil {
		citations = []string{}
	}
	cands := resp.Candidates()
	out := searchResponse{
		Answer:     resp.Text(),
		Citations:  citations,
		Candidates: make([]candidateResponse, len(cands)),
	}
	for i := range cands {
		out.Candidates[i] = candidateResponse{ID: cands[i].ID(), Score: cands[i].Score()}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
