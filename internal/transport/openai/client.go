package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// newClient builds a go-openai client for any OpenAI-compatible endpoint
// (hosted API, Nebius, or a local server such as Ollama).
func newClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

// apiFailure is the provider-agnostic view of a failed API call.
type apiFailure struct {
	status int
	detail string
	kind   string // metrics label
	cause  error
}

// classify extracts status and a human-readable detail from a go-openai error.
// Context errors take precedence so callers can match context.Canceled.
func classify(ctx context.Context, err error) apiFailure {
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind := "cancelled"
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			kind = "timeout"
		}
		return apiFailure{kind: kind, cause: ctxErr}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return apiFailure{status: reqErr.HTTPStatusCode, detail: detail, kind: "api_error", cause: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiFailure{status: apiErr.HTTPStatusCode, detail: apiErr.Message, kind: "api_error", cause: err}
	}

	return apiFailure{kind: "transport", cause: err}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
