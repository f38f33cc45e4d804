package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals an empty or malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidDocument signals a stored document missing required fields.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrGeneration signals a language model failure (timeout, quota, transport).
	ErrGeneration = errors.New("generation failed")
	// ErrQuotaExceeded signals an exhausted token budget.
	ErrQuotaExceeded = errors.New("token budget exceeded")
	// ErrEmbedding signals an embedding provider failure in semantic scoring.
	ErrEmbedding = errors.New("embedding provider error")
	// ErrInvalidTopK signals a non-positive candidate limit.
	ErrInvalidTopK = errors.New("top_k must be >= 1")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// InvalidDocumentError wraps ErrInvalidDocument with the position of the offending document.
type InvalidDocumentError struct {
	Index  int
	Reason string
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("%s at index %d: %s", ErrInvalidDocument.Error(), e.Index, e.Reason)
}

func (e *InvalidDocumentError) Unwrap() error { return ErrInvalidDocument }

// NewInvalidDocument creates an invalid document error.
func NewInvalidDocument(index int, reason string) error {
	return &InvalidDocumentError{Index: index, Reason: reason}
}

// GenerationError wraps ErrGeneration with provider details and the underlying cause.
// errors.Is matches both ErrGeneration and the cause (e.g. context.Canceled).
type GenerationError struct {
	Provider   string
	StatusCode int // 0 when the request never reached the provider
	Detail     string
	Err        error
}

func (e *GenerationError) Error() string {
	msg := ErrGeneration.Error()
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGeneration}
	}
	return []error{ErrGeneration, e.Err}
}
