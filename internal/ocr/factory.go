// Package ocr holds the OCR provider registry and shared helpers for the
// concrete provider implementations in its subpackages.
package ocr

import (
	"fmt"

	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/port"
)

// ProviderFactory creates an OCRProvider from the application config.
type ProviderFactory func(cfg *config.Config) (port.OCRProvider, error)

// registry of OCR provider factories, populated by init() in each provider
// package.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an OCR provider factory by identifier.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates the OCR provider registered under name. An unknown
// identifier fails with domain.ErrUnknownProvider before any network call.
func NewProvider(name string, cfg *config.Config) (port.OCRProvider, error) {
	factory, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: ocr provider %q", domain.ErrUnknownProvider, name)
	}
	return factory(cfg)
}

// Names returns the registered provider identifiers.
func Names() []string {
	out := make([]string, 0, len(providers))
	for name := range providers {
		out = append(out, name)
	}
	return out
}
