// Package pipeline orchestrates a single document run through the fixed
// stage sequence: Received, Rasterizing, Extracting, Structuring, Filling,
// Done. Provider selection is resolved once at the start of a run and never
// changes mid-run. Every run ends in exactly one terminal result envelope,
// and the orchestrator is the only component that writes to the log sink.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"medintake/internal/confidence"
	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/filler"
	"medintake/internal/port"
	"medintake/internal/raster"
	"medintake/internal/redact"
	"medintake/internal/schema"
)

// Request describes one document processing run.
type Request struct {
	FileBytes   []byte
	Filename    string
	ContentType string

	// OCRProviderID and LLMProviderID select providers for this run.
	// Empty values select the configured defaults.
	OCRProviderID string
	LLMProviderID string

	// TemplatePDF overrides the processor's default form template for this
	// run. Nil means use the default.
	TemplatePDF []byte

	// OnStage, when set, is invoked on every stage transition.
	OnStage func(domain.Stage)
}

// Processor runs the extraction pipeline. It holds no per-request state and
// is safe for concurrent use.
type Processor struct {
	cfg      *config.Config
	registry *Registry
	limiter  *Limiter
	template []byte
	mapping  filler.Mapping
	sch      *schema.Schema
	weights  confidence.Weights
	log      *redact.Logger
}

// NewProcessor creates a processor. template is the default fillable PDF and
// may be nil, in which case runs without a per-request template complete with
// pdf_filled=false.
func NewProcessor(cfg *config.Config, reg *Registry, lim *Limiter, template []byte) *Processor {
	s := schema.V1()
	w := confidence.Weights{OCR: cfg.Pipeline.OCRWeight, LLM: cfg.Pipeline.LLMWeight}
	return &Processor{
		cfg:      cfg,
		registry: reg,
		limiter:  lim,
		template: template,
		mapping:  filler.DefaultMapping(s).WithOverrides(s, cfg.Filler.FieldMap),
		sch:      s,
		weights:  w,
		log:      redact.NewLogger("pipeline"),
	}
}

// Process runs one document through the pipeline. It always returns a
// non-nil terminal result: StatusDone, possibly with pdf_filled=false, or
// StatusFailed with the failing stage and error kind. Raw provider payloads
// and document content never reach the result envelope or the log.
func (p *Processor) Process(ctx context.Context, req *Request) *domain.PipelineResult {
	start := time.Now()
	res := &domain.PipelineResult{
		Status: domain.StatusDone,
		Metadata: domain.ResultMetadata{
			Filename:      req.Filename,
			SchemaVersion: p.sch.Version(),
		},
	}

	stage := func(s domain.Stage) {
		p.log.Printf("stage=%s file=%s", s, req.Filename)
		if req.OnStage != nil {
			req.OnStage(s)
		}
	}

	stage(domain.StageReceived)
	ocrProv, err := p.registry.OCR(req.OCRProviderID)
	if err != nil {
		return p.fail(res, domain.StageReceived, err, start)
	}
	llmProv, err := p.registry.LLM(req.LLMProviderID)
	if err != nil {
		return p.fail(res, domain.StageReceived, err, start)
	}
	res.Metadata.OCRProvider = ocrProv.Name()
	res.Metadata.LLMProvider = llmProv.Name()

	stage(domain.StageRasterizing)
	doc, err := raster.Rasterize(req.FileBytes, req.ContentType)
	if err != nil {
		return p.fail(res, domain.StageRasterizing, err, start)
	}
	res.Metadata.PageCount = doc.PageCount()
	res.Metadata.FailedPages = doc.FailedPages

	stage(domain.StageExtracting)
	ocrRes, err := p.callOCR(ctx, ocrProv, doc)
	if err != nil {
		return p.fail(res, domain.StageExtracting, err, start)
	}
	res.OCRConfidence = ocrRes.Confidence
	res.Metadata.OCRModel = ocrRes.Model

	stage(domain.StageStructuring)
	ext, err := p.callLLM(ctx, llmProv, ocrRes.Text)
	if err != nil {
		return p.fail(res, domain.StageStructuring, err, start)
	}
	res.Fields = ext.Fields
	res.LLMConfidence = ext.Confidence
	res.Metadata.LLMModel = ext.Model
	res.OverallConfidence, res.FieldConfidences = confidence.Aggregate(
		ocrRes.Confidence, ext.Confidence, ext.FieldConfidences(), p.weights)

	stage(domain.StageFilling)
	p.fill(res, req, ext)

	stage(domain.StageDone)
	res.ProcessingTimeMS = time.Since(start).Milliseconds()
	p.log.Printf("run done file=%s pages=%d fields=%d confidence=%.2f filled=%t",
		req.Filename, res.Metadata.PageCount, len(res.Fields),
		res.OverallConfidence, res.Metadata.PDFFilled)
	return res
}

func (p *Processor) callOCR(ctx context.Context, prov port.OCRProvider, doc *domain.RasterizedDocument) (*domain.OCRResult, error) {
	if !prov.Available() {
		return nil, fmt.Errorf("%s: %w", prov.Name(), domain.ErrProviderUnavailable)
	}
	release, err := p.limiter.Acquire(ctx, "ocr/"+prov.Name())
	if err != nil {
		return nil, err
	}
	defer release()
	return prov.ExtractText(ctx, doc)
}

func (p *Processor) callLLM(ctx context.Context, prov port.Structurer, text string) (*domain.StructuredExtraction, error) {
	if !prov.Available() {
		return nil, fmt.Errorf("%s: %w", prov.Name(), domain.ErrProviderUnavailable)
	}
	release, err := p.limiter.Acquire(ctx, "llm/"+prov.Name())
	if err != nil {
		return nil, err
	}
	defer release()
	return prov.Structure(ctx, text, p.sch)
}

// fill writes the extraction into the form template. Filling problems
// degrade the run to a partial success, never to a failure: the result stays
// StatusDone with pdf_filled=false and the reason recorded in the metadata.
func (p *Processor) fill(res *domain.PipelineResult, req *Request, ext *domain.StructuredExtraction) {
	template := req.TemplatePDF
	if len(template) == 0 {
		template = p.template
	}
	if len(template) == 0 {
		res.Metadata.FillError = domain.KindFillingUnavailable
		p.log.Printf("filling skipped: no template configured")
		return
	}
	filled, err := filler.Fill(template, ext.Fields, p.mapping, p.sch, filler.Options{Flatten: p.cfg.Filler.Flatten})
	if err != nil {
		res.Metadata.FillError = domain.KindOf(err)
		p.log.Printf("filling failed: %v", err)
		return
	}
	res.FilledPDF = filled.PDF
	res.Metadata.PDFFilled = true
	res.Metadata.MissingTemplateFields = filled.MissingFields
}

func (p *Processor) fail(res *domain.PipelineResult, stage domain.Stage, err error, start time.Time) *domain.PipelineResult {
	res.Status = domain.StatusFailed
	res.FilledPDF = nil
	res.Failure = &domain.StageFailure{
		Stage:   stage,
		Kind:    domain.KindOf(err),
		Message: redact.Redact(err.Error()),
	}
	res.ProcessingTimeMS = time.Since(start).Milliseconds()
	p.log.Printf("run failed stage=%s kind=%s: %v", stage, res.Failure.Kind, err)
	return res
}
