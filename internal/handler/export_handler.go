package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medintake/internal/domain"
	"medintake/internal/export"
	"medintake/internal/schema"
)

// ExportHandler renders a previously returned extraction as an XLSX
// download. The endpoint is stateless: the client posts the extraction back,
// nothing is read from server-side storage.
type ExportHandler struct {
	sch *schema.Schema
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(sch *schema.Schema) *ExportHandler {
	return &ExportHandler{sch: sch}
}

// ExportRequest is the body of POST /api/v1/export.
type ExportRequest struct {
	ExtractedData    map[string]any     `json:"extracted_data" binding:"required"`
	FieldConfidences map[string]float64 `json:"field_confidences"`
	ConfidenceScore  float64            `json:"confidence_score"`
	OCRConfidence    float64            `json:"ocr_confidence"`
	LLMConfidence    float64            `json:"llm_confidence"`
}

// Export handles POST /api/v1/export.
func (h *ExportHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "extracted_data is required")
		return
	}

	fields := make(map[string]domain.ExtractedField, len(req.ExtractedData))
	for name, value := range req.ExtractedData {
		if _, ok := h.sch.Lookup(name); !ok {
			continue
		}
		fields[name] = domain.ExtractedField{
			Name:       name,
			Value:      value,
			Confidence: req.FieldConfidences[name],
		}
	}

	res := &domain.PipelineResult{
		Status:            domain.StatusDone,
		Fields:            fields,
		OverallConfidence: req.ConfidenceScore,
		OCRConfidence:     req.OCRConfidence,
		LLMConfidence:     req.LLMConfidence,
		Metadata:          domain.ResultMetadata{SchemaVersion: h.sch.Version()},
	}

	data, err := export.XLSX(res, h.sch)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "EXPORT_FAILED", "could not render workbook")
		return
	}

	filename := fmt.Sprintf("extraction-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
