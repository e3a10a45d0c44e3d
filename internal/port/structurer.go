package port

import (
	"context"

	"medintake/internal/domain"
	"medintake/internal/schema"
)

// Structurer abstracts an LLM backend that turns OCR text into a structured
// field map constrained to the medical schema. Implementations validate the
// backend response before use: non-JSON output fails with
// domain.ErrMalformedLLMOutput, unknown keys are dropped, values are coerced
// to their declared types and per-field confidences are clamped to [0,1].
type Structurer interface {
	Structure(ctx context.Context, ocrText string, s *schema.Schema) (*domain.StructuredExtraction, error)

	// Name returns the provider identifier.
	Name() string

	// Available reports whether the provider can serve requests. Pure
	// capability check, no side effects.
	Available() bool
}
