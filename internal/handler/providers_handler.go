package handler

import (
	"github.com/gin-gonic/gin"

	"medintake/internal/pipeline"
)

// ProviderLister reports the configured providers and their availability.
type ProviderLister interface {
	ProviderStatus() (ocr, llm []pipeline.ProviderInfo)
}

// ProvidersHandler handles the provider discovery endpoint.
type ProvidersHandler struct {
	registry ProviderLister
}

// NewProvidersHandler creates a new ProvidersHandler.
func NewProvidersHandler(registry ProviderLister) *ProvidersHandler {
	return &ProvidersHandler{registry: registry}
}

// List handles GET /api/v1/providers. Availability is a capability check
// only; a provider listed as available may still fail at call time.
func (h *ProvidersHandler) List(c *gin.Context) {
	ocrInfos, llmInfos := h.registry.ProviderStatus()
	RespondOK(c, gin.H{
		"ocr_providers": ocrInfos,
		"llm_providers": llmInfos,
	})
}
