// Package parser holds the LLM structuring provider registry and the shared
// prompt construction and response normalization used by the concrete
// provider implementations in its subpackages.
package parser

import (
	"fmt"

	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/port"
)

// ProviderFactory creates a Structurer from the application config.
type ProviderFactory func(cfg *config.Config) (port.Structurer, error)

// registry of structuring provider factories, populated by init() in each
// provider package.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a structuring provider factory by identifier.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewStructurer creates the structuring provider registered under name. An
// unknown identifier fails with domain.ErrUnknownProvider before any network
// call.
func NewStructurer(name string, cfg *config.Config) (port.Structurer, error) {
	factory, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnknownProvider, name)
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
