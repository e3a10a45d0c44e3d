package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat    = errors.New("unsupported document format")
	ErrCorruptDocument      = errors.New("document could not be parsed")
	ErrUnknownProvider      = errors.New("unknown provider identifier")
	ErrProviderUnavailable  = errors.New("provider is not configured")
	ErrProviderTimeout      = errors.New("provider call timed out")
	ErrProviderTransport    = errors.New("provider call failed")
	ErrMalformedLLMOutput   = errors.New("llm output failed validation")
	ErrTemplateFieldMissing = errors.New("template is missing a mapped form field")
	ErrFillingUnavailable   = errors.New("pdf filling is unavailable")
)

// Error taxonomy kinds as exposed in result envelopes and API responses.
const (
	KindUnsupportedFormat    = "unsupported_format"
	KindCorruptDocument      = "corrupt_document"
	KindUnknownProvider      = "unknown_provider"
	KindProviderUnavailable  = "provider_unavailable"
	KindProviderTimeout      = "provider_timeout"
	KindProviderTransport    = "provider_transport_error"
	KindMalformedLLMOutput   = "malformed_llm_output"
	KindTemplateFieldMissing = "template_field_missing"
	KindFillingUnavailable   = "filling_unavailable"
	KindCanceled             = "canceled"
	KindInternal             = "internal"
)

// KindOf maps an error to its taxonomy kind.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrCorruptDocument):
		return KindCorruptDocument
	case errors.Is(err, ErrUnknownProvider):
		return KindUnknownProvider
	case errors.Is(err, ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindProviderTimeout
	case errors.Is(err, ErrProviderTransport):
		return KindProviderTransport
	case errors.Is(err, ErrMalformedLLMOutput):
		return KindMalformedLLMOutput
	case errors.Is(err, ErrTemplateFieldMissing):
		return KindTemplateFieldMissing
	case errors.Is(err, ErrFillingUnavailable):
		return KindFillingUnavailable
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindInternal
	}
}

// WrapCallError classifies a failed provider network call into the shared
// taxonomy. Deadline and timeout errors become ErrProviderTimeout, everything
// else ErrProviderTransport. The original error is preserved for unwrapping.
func WrapCallError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var timeout interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", provider, ErrProviderTimeout, err)
	case errors.As(err, &timeout) && timeout.Timeout():
		return fmt.Errorf("%s: %w: %v", provider, ErrProviderTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", provider, context.Canceled)
	default:
		return fmt.Errorf("%s: %w: %v", provider, ErrProviderTransport, err)
	}
}

// PipelineError is a stage failure carrying the taxonomy kind of its cause.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy kind of the underlying error.
func (e *PipelineError) Kind() string {
	return KindOf(e.Err)
}

// NewPipelineError wraps err as a failure of the given stage.
func NewPipelineError(stage Stage, err error) *PipelineError {
	return &PipelineError{Stage: stage, Err: err}
}
