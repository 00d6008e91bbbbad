package llm

import (
	"context"
	"errors"
	"fmt"
)

// ExtractRequest is one document handed to an extraction backend.
type ExtractRequest struct {
	FileName string
	MimeType string
	Data     []byte
	Prompt   Prompt
}

// RawExtraction is the untrusted JSON content returned by a backend.
// Shape validation is the caller's job.
type RawExtraction struct {
	Content []byte
	Model   string
	Method  string
}

// Extraction failure kinds.
var (
	ErrTransport     = errors.New("extraction service request failed")
	ErrEmptyResponse = errors.New("no content returned from extraction service")
	ErrInvalidJSON   = errors.New("extraction content is not valid JSON")
)

// ExtractionError classifies a backend failure by Kind (one of the Err* values above).
type ExtractionError struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *ExtractionError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Extractor is the interface the pipeline depends on. Implementations make a
// single call per invocation and never retry.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (RawExtraction, error)
}
