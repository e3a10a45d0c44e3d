package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"medintake/internal/domain"
	"medintake/internal/pipeline"
)

// lowConfidenceThreshold marks fields a reviewer should verify by hand.
const lowConfidenceThreshold = 0.5

// Processor runs one document through the extraction pipeline.
type Processor interface {
	Process(ctx context.Context, req *pipeline.Request) *domain.PipelineResult
}

// ProcessHandler handles the document processing endpoint.
type ProcessHandler struct {
	processor   Processor
	maxUploadMB int64
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processor Processor, maxUploadMB int64) *ProcessHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &ProcessHandler{processor: processor, maxUploadMB: maxUploadMB}
}

// ProcessResponse is the success payload of POST /api/v1/process.
type ProcessResponse struct {
	Status              string                `json:"status"`
	ExtractedData       map[string]any        `json:"extracted_data"`
	FilledPDFBase64     string                `json:"filled_pdf_base64,omitempty"`
	ConfidenceScore     float64               `json:"confidence_score"`
	OCRConfidence       float64               `json:"ocr_confidence"`
	LLMConfidence       float64               `json:"llm_confidence"`
	FieldConfidences    map[string]float64    `json:"field_confidences"`
	LowConfidenceFields []string              `json:"low_confidence_fields,omitempty"`
	ProcessingTimeMS    int64                 `json:"processing_time_ms"`
	Metadata            domain.ResultMetadata `json:"metadata"`
}

// Process handles POST /api/v1/process. The request is multipart/form-data
// with a required "file" part, an optional "template" part (a fillable PDF
// overriding the configured default) and optional "ocr_provider" and
// "llm_provider" fields.
func (h *ProcessHandler) Process(c *gin.Context) {
	fileBytes, header, ok := h.readPart(c, "file", true)
	if !ok {
		return
	}
	templateBytes, _, ok := h.readPart(c, "template", false)
	if !ok {
		return
	}

	req := &pipeline.Request{
		FileBytes:     fileBytes,
		Filename:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		OCRProviderID: c.PostForm("ocr_provider"),
		LLMProviderID: c.PostForm("llm_provider"),
		TemplatePDF:   templateBytes,
	}

	res := h.processor.Process(c.Request.Context(), req)
	if res.Status == domain.StatusFailed {
		status, code := MapKind(res.Failure.Kind)
		RespondErrorWithDetails(c, status, code,
			fmt.Sprintf("processing failed at stage %s: %s", res.Failure.Stage, res.Failure.Message),
			buildFailureDetails(res))
		return
	}

	RespondOK(c, buildProcessResponse(res))
}

// readPart reads one multipart file part fully into memory, enforcing the
// upload size cap. The bool result reports whether the caller may proceed; a
// false value means an error response was already written.
func (h *ProcessHandler) readPart(c *gin.Context, name string, required bool) ([]byte, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile(name)
	if err != nil {
		if !required {
			return nil, nil, true
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", name+" field is required")
		return nil, nil, false
	}
	defer func() { _ = file.Close() }()

	maxBytes := h.maxUploadMB << 20
	if header.Size > maxBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("%s exceeds maximum allowed size of %dMB", name, h.maxUploadMB))
		return nil, nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read "+name+" upload")
		return nil, nil, false
	}
	if int64(len(data)) > maxBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("%s exceeds maximum allowed size of %dMB", name, h.maxUploadMB))
		return nil, nil, false
	}
	return data, header, true
}

// FailureDetails carries the diagnostics a failed run gathered before it
// stopped. A run that fails after extraction still reports the OCR
// confidence and page metadata so the caller can see how far the document
// got.
type FailureDetails struct {
	Stage            string                `json:"stage"`
	OCRConfidence    float64               `json:"ocr_confidence"`
	ProcessingTimeMS int64                 `json:"processing_time_ms"`
	Metadata         domain.ResultMetadata `json:"metadata"`
}

func buildFailureDetails(res *domain.PipelineResult) FailureDetails {
	return FailureDetails{
		Stage:            string(res.Failure.Stage),
		OCRConfidence:    res.OCRConfidence,
		ProcessingTimeMS: res.ProcessingTimeMS,
		Metadata:         res.Metadata,
	}
}

func buildProcessResponse(res *domain.PipelineResult) ProcessResponse {
	extracted := make(map[string]any, len(res.Fields))
	for name, f := range res.Fields {
		extracted[name] = f.Value
	}

	var low []string
	for name, conf := range res.FieldConfidences {
		if conf < lowConfidenceThreshold {
			low = append(low, name)
		}
	}
	sort.Strings(low)

	resp := ProcessResponse{
		Status:              string(res.Status),
		ExtractedData:       extracted,
		ConfidenceScore:     res.OverallConfidence,
		OCRConfidence:       res.OCRConfidence,
		LLMConfidence:       res.LLMConfidence,
		FieldConfidences:    res.FieldConfidences,
		LowConfidenceFields: low,
		ProcessingTimeMS:    res.ProcessingTimeMS,
		Metadata:            res.Metadata,
	}
	if len(res.FilledPDF) > 0 {
		resp.FilledPDFBase64 = base64.StdEncoding.EncodeToString(res.FilledPDF)
	}
	return resp
}
