package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/port"
	"medintake/internal/schema"
	"medintake/internal/testutil"
)

type stubOCR struct {
	name      string
	available bool
	result    *domain.OCRResult
	err       error
}

func (s *stubOCR) ExtractText(ctx context.Context, doc *domain.RasterizedDocument) (*domain.OCRResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubOCR) Name() string    { return s.name }
func (s *stubOCR) Available() bool { return s.available }

type stubLLM struct {
	name      string
	available bool
	result    *domain.StructuredExtraction
	err       error
}

func (s *stubLLM) Structure(ctx context.Context, ocrText string, sc *schema.Schema) (*domain.StructuredExtraction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubLLM) Name() string    { return s.name }
func (s *stubLLM) Available() bool { return s.available }

func testConfig() *config.Config {
	return &config.Config{
		OCR:      config.OCRConfig{Default: "stub-ocr"},
		LLM:      config.LLMConfig{Default: "stub-llm"},
		Pipeline: config.PipelineConfig{OCRWeight: 0.5, LLMWeight: 0.5, DefaultMaxConcurrent: 2},
	}
}

func goodOCR() *stubOCR {
	return &stubOCR{
		name:      "stub-ocr",
		available: true,
		result: &domain.OCRResult{
			Text:       "Patient Name: Jane Doe",
			Pages:      []string{"Patient Name: Jane Doe"},
			Confidence: 0.8,
			Provider:   "stub-ocr",
			Model:      "ocr-model",
		},
	}
}

func goodLLM() *stubLLM {
	return &stubLLM{
		name:      "stub-llm",
		available: true,
		result: &domain.StructuredExtraction{
			Fields: map[string]domain.ExtractedField{
				"patient_first_name": {Name: "patient_first_name", Value: "Jane", Confidence: 0.9},
				"is_smoker":          {Name: "is_smoker", Value: false, Confidence: 0.7},
			},
			Confidence: 0.8,
			Provider:   "stub-llm",
			Model:      "llm-model",
		},
	}
}

func newTestProcessor(cfg *config.Config, o *stubOCR, l *stubLLM, template []byte) *Processor {
	reg := &Registry{
		cfg: cfg,
		ocr: map[string]port.OCRProvider{o.name: o},
		llm: map[string]port.Structurer{l.name: l},
	}
	return NewProcessor(cfg, reg, NewLimiterFromConfig(cfg), template)
}

var jpegInput = []byte{0xff, 0xd8, 0xff, 0xe0, 'J', 'F', 'I', 'F'}

func baseRequest() *Request {
	return &Request{
		FileBytes:   jpegInput,
		Filename:    "intake.jpg",
		ContentType: "image/jpeg",
	}
}

func TestProcess_HappyPath(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), testutil.FormPDF([]string{"patient_first_name"}, []string{"is_smoker"}))

	var stages []domain.Stage
	req := baseRequest()
	req.OnStage = func(s domain.Stage) { stages = append(stages, s) }

	res := p.Process(context.Background(), req)
	require.NotNil(t, res)
	require.Nil(t, res.Failure)
	assert.Equal(t, domain.StatusDone, res.Status)

	assert.Equal(t, []domain.Stage{
		domain.StageReceived,
		domain.StageRasterizing,
		domain.StageExtracting,
		domain.StageStructuring,
		domain.StageFilling,
		domain.StageDone,
	}, stages)

	assert.Equal(t, "Jane", res.Fields["patient_first_name"].Value)
	assert.InDelta(t, 0.8, res.OCRConfidence, 1e-9)
	assert.InDelta(t, 0.8, res.LLMConfidence, 1e-9)
	assert.InDelta(t, 0.8, res.OverallConfidence, 1e-9)
	assert.InDelta(t, 0.9, res.FieldConfidences["patient_first_name"], 1e-9)

	assert.True(t, res.Metadata.PDFFilled)
	assert.NotEmpty(t, res.FilledPDF)
	assert.Empty(t, res.Metadata.FillError)
	assert.Equal(t, "stub-ocr", res.Metadata.OCRProvider)
	assert.Equal(t, "stub-llm", res.Metadata.LLMProvider)
	assert.Equal(t, "ocr-model", res.Metadata.OCRModel)
	assert.Equal(t, "llm-model", res.Metadata.LLMModel)
	assert.Equal(t, 1, res.Metadata.PageCount)
	assert.Equal(t, "intake.jpg", res.Metadata.Filename)
	assert.Equal(t, "v1", res.Metadata.SchemaVersion)
	assert.GreaterOrEqual(t, res.ProcessingTimeMS, int64(0))
}

func TestProcess_UnknownProvider(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), nil)

	req := baseRequest()
	req.OCRProviderID = "tesseract"

	res := p.Process(context.Background(), req)
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.StageReceived, res.Failure.Stage)
	assert.Equal(t, domain.KindUnknownProvider, res.Failure.Kind)
}

func TestProcess_UnknownLLMProvider(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), nil)

	req := baseRequest()
	req.LLMProviderID = "llama"

	res := p.Process(context.Background(), req)
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.KindUnknownProvider, res.Failure.Kind)
}

func TestProcess_UnsupportedInput(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), nil)

	req := baseRequest()
	req.FileBytes = []byte("PK\x03\x04 spreadsheet")
	req.ContentType = "application/zip"

	res := p.Process(context.Background(), req)
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.StageRasterizing, res.Failure.Stage)
	assert.Equal(t, domain.KindUnsupportedFormat, res.Failure.Kind)
}

func TestProcess_CorruptInput(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), nil)

	req := baseRequest()
	req.FileBytes = []byte("%PDF-1.4\ngarbage")
	req.ContentType = "application/pdf"

	res := p.Process(context.Background(), req)
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.StageRasterizing, res.Failure.Stage)
	assert.Equal(t, domain.KindCorruptDocument, res.Failure.Kind)
}

func TestProcess_OCRProviderUnavailable(t *testing.T) {
	o := goodOCR()
	o.available = false
	p := newTestProcessor(testConfig(), o, goodLLM(), nil)

	res := p.Process(context.Background(), baseRequest())
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.StageExtracting, res.Failure.Stage)
	assert.Equal(t, domain.KindProviderUnavailable, res.Failure.Kind)
}

func TestProcess_OCRTransportError(t *testing.T) {
	o := goodOCR()
	o.err = fmt.Errorf("stub-ocr: %w", domain.ErrProviderTransport)
	p := newTestProcessor(testConfig(), o, goodLLM(), nil)

	res := p.Process(context.Background(), baseRequest())
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.StageExtracting, res.Failure.Stage)
	assert.Equal(t, domain.KindProviderTransport, res.Failure.Kind)
}

func TestProcess_StructuringFailureKeepsOCRMetadata(t *testing.T) {
	l := goodLLM()
	l.err = fmt.Errorf("stub-llm: %w", domain.ErrMalformedLLMOutput)
	p := newTestProcessor(testConfig(), goodOCR(), l, nil)

	res := p.Process(context.Background(), baseRequest())
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.StageStructuring, res.Failure.Stage)
	assert.Equal(t, domain.KindMalformedLLMOutput, res.Failure.Kind)

	// The OCR stage already succeeded; its confidence and metadata stay in
	// the envelope.
	assert.InDelta(t, 0.8, res.OCRConfidence, 1e-9)
	assert.Equal(t, "ocr-model", res.Metadata.OCRModel)
	assert.Equal(t, 1, res.Metadata.PageCount)
	assert.Empty(t, res.Fields)
	assert.Nil(t, res.FilledPDF)
}

func TestProcess_NoTemplateIsPartialSuccess(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), nil)

	res := p.Process(context.Background(), baseRequest())
	assert.Equal(t, domain.StatusDone, res.Status)
	assert.Nil(t, res.Failure)
	assert.False(t, res.Metadata.PDFFilled)
	assert.Equal(t, domain.KindFillingUnavailable, res.Metadata.FillError)
	assert.Empty(t, res.FilledPDF)
	assert.NotEmpty(t, res.Fields)
}

func TestProcess_BrokenTemplateIsPartialSuccess(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), nil)

	req := baseRequest()
	req.TemplatePDF = []byte("not a pdf at all")

	res := p.Process(context.Background(), req)
	assert.Equal(t, domain.StatusDone, res.Status)
	assert.False(t, res.Metadata.PDFFilled)
	assert.Equal(t, domain.KindFillingUnavailable, res.Metadata.FillError)
}

func TestProcess_RequestTemplateOverridesDefault(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), nil)

	req := baseRequest()
	req.TemplatePDF = testutil.FormPDF([]string{"patient_first_name"}, []string{"is_smoker"})

	res := p.Process(context.Background(), req)
	assert.Equal(t, domain.StatusDone, res.Status)
	assert.True(t, res.Metadata.PDFFilled)
	assert.NotEmpty(t, res.FilledPDF)
}

func TestProcess_MissingTemplateFieldsReported(t *testing.T) {
	p := newTestProcessor(testConfig(), goodOCR(), goodLLM(), testutil.FormPDF([]string{"patient_first_name"}, nil))

	res := p.Process(context.Background(), baseRequest())
	assert.Equal(t, domain.StatusDone, res.Status)
	assert.True(t, res.Metadata.PDFFilled)
	assert.Equal(t, []string{"is_smoker"}, res.Metadata.MissingTemplateFields)
}

func TestProcess_FailureMessageIsRedacted(t *testing.T) {
	o := goodOCR()
	o.err = fmt.Errorf("upstream rejected page for 123-45-6789: %w", domain.ErrProviderTransport)
	p := newTestProcessor(testConfig(), o, goodLLM(), nil)

	res := p.Process(context.Background(), baseRequest())
	require.NotNil(t, res.Failure)
	assert.NotContains(t, res.Failure.Message, "123-45-6789")
	assert.Contains(t, res.Failure.Message, "[REDACTED-SSN]")
}

func TestProcess_CanceledContext(t *testing.T) {
	o := goodOCR()
	o.err = fmt.Errorf("stub-ocr: %w", context.Canceled)
	p := newTestProcessor(testConfig(), o, goodLLM(), nil)

	res := p.Process(context.Background(), baseRequest())
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.KindCanceled, res.Failure.Kind)
}

func TestRegistry_DefaultResolution(t *testing.T) {
	cfg := testConfig()
	o, l := goodOCR(), goodLLM()
	reg := &Registry{
		cfg: cfg,
		ocr: map[string]port.OCRProvider{o.name: o},
		llm: map[string]port.Structurer{l.name: l},
	}

	got, err := reg.OCR("")
	require.NoError(t, err)
	assert.Equal(t, "stub-ocr", got.Name())

	_, err = reg.OCR("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownProvider))

	gotLLM, err := reg.LLM("")
	require.NoError(t, err)
	assert.Equal(t, "stub-llm", gotLLM.Name())
}

func TestRegistry_ProviderStatus(t *testing.T) {
	cfg := testConfig()
	o, l := goodOCR(), goodLLM()
	l.available = false
	reg := &Registry{
		cfg: cfg,
		ocr: map[string]port.OCRProvider{o.name: o},
		llm: map[string]port.Structurer{l.name: l},
	}

	ocrInfos, llmInfos := reg.ProviderStatus()
	require.Len(t, ocrInfos, 1)
	assert.Equal(t, ProviderInfo{Name: "stub-ocr", Available: true, Default: true}, ocrInfos[0])
	require.Len(t, llmInfos, 1)
	assert.Equal(t, ProviderInfo{Name: "stub-llm", Available: false, Default: true}, llmInfos[0])
}
