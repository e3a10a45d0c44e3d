package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"medintake/internal/handler"
	"medintake/internal/schema"
)

func newExportRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/export", handler.NewExportHandler(schema.V1()).Export)
	return r
}

func TestExport_Success(t *testing.T) {
	body := `{
		"extracted_data": {"patient_first_name": "Jane", "is_smoker": false, "not_in_schema": "x"},
		"field_confidences": {"patient_first_name": 0.9, "is_smoker": 0.7},
		"confidence_score": 0.8,
		"ocr_confidence": 0.85,
		"llm_confidence": 0.75
	}`

	r := newExportRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Extraction")
	require.NoError(t, err)

	var flat []string
	for _, row := range rows {
		flat = append(flat, row...)
	}
	assert.Contains(t, flat, "patient_first_name")
	assert.Contains(t, flat, "Jane")
	// Keys outside the schema never reach the workbook.
	assert.NotContains(t, flat, "not_in_schema")
}

func TestExport_MissingBody(t *testing.T) {
	r := newExportRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/export", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_BODY")
}
