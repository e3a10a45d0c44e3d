package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medintake/internal/pipeline"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	registry ProviderLister
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(registry ProviderLister) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The service is ready when at least one OCR
// provider and one structuring provider are available.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ocrInfos, llmInfos := h.registry.ProviderStatus()
	if !anyAvailable(ocrInfos) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no ocr provider configured"})
		return
	}
	if !anyAvailable(llmInfos) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no llm provider configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func anyAvailable(infos []pipeline.ProviderInfo) bool {
	for _, info := range infos {
		if info.Available {
			return true
		}
	}
	return false
}
