// Package docai is a documented placeholder for a compliance-certified
// Google Document AI backend. A deployment wiring it up must satisfy the
// same contract as the other OCR providers: until then every call fails with
// domain.ErrProviderUnavailable and the provider reports itself unavailable.
//
// Implementing it requires a Google Cloud project with the Document AI API
// enabled, a form parser processor, and a signed BAA for HIPAA-covered
// workloads.
package docai

import (
	"context"
	"fmt"

	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/ocr"
	"medintake/internal/port"
)

func init() {
	ocr.RegisterProvider(domain.OCRProviderGoogleDocAI, func(cfg *config.Config) (port.OCRProvider, error) {
		return NewProvider(&cfg.OCR.DocAI), nil
	})
}

// Provider is the Document AI placeholder. It satisfies port.OCRProvider but
// is never available.
type Provider struct {
	projectID   string
	location    string
	processorID string
}

// NewProvider creates the placeholder from its config. The config is kept so
// a future implementation has its processor coordinates in place.
func NewProvider(cfg *config.DocAIConfig) *Provider {
	return &Provider{
		projectID:   cfg.ProjectID,
		location:    cfg.Location,
		processorID: cfg.ProcessorID,
	}
}

func (p *Provider) Name() string {
	return domain.OCRProviderGoogleDocAI
}

// Available always reports false: this provider is a stub.
func (p *Provider) Available() bool {
	return false
}

func (p *Provider) ExtractText(ctx context.Context, doc *domain.RasterizedDocument) (*domain.OCRResult, error) {
	return nil, fmt.Errorf("google_docai is not implemented: %w", domain.ErrProviderUnavailable)
}
