package chi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/logger"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest      = "bad_request"
	codeUnauthorized    = "unauthorized"
	codeTooLarge        = "request_too_large"
	codeNotFound        = "not_found"
	codeInvalidQuery    = "invalid_query"
	codeInvalidDocument = "invalid_document"
	codeGeneration      = "generation_failed"
	codeEmbedding       = "embedding_failed"
	codeQuotaExceeded   = "quota_exceeded"
	codeCancelled       = "cancelled"
	codeTimeout         = "timeout"
	codeInternal        = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// defaultErrorHandlers is ordered: quota and context errors come before
// ErrGeneration because generation errors wrap them.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, codeQuotaExceeded),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout),
		sentinelHandler(context.Canceled, http.StatusServiceUnavailable, codeCancelled),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, codeEmbedding),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadGateway, codeInvalidDocument),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, codeGeneration),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel text, never the wrapped details.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
