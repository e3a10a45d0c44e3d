package port

import (
	"context"

	"medintake/internal/domain"
)

// OCRProvider abstracts a backend that turns page images into recognized
// text plus a per-call confidence. Implementations map backend-specific
// errors into the shared taxonomy and must not assume repeatable output
// across identical calls.
type OCRProvider interface {
	ExtractText(ctx context.Context, doc *domain.RasterizedDocument) (*domain.OCRResult, error)

	// Name returns the provider identifier.
	Name() string

	// Available reports whether the provider can serve requests
	// (credentials configured, not a stub). Pure capability check,
	// no side effects.
	Available() bool
}
