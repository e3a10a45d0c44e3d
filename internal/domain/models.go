package domain

// PageImage is a single page of a rasterized document: an opaque payload plus
// a format tag. For image inputs the payload is the image itself; for PDF
// inputs each page is carried as a single-page PDF.
type PageImage struct {
	Data   []byte
	Format string // "pdf", "jpeg", "png", "heic"
	Index  int    // zero-based, equals source page order
}

// RasterizedDocument is the ordered page sequence produced from one input
// file. It is created once per request, never shared across requests and
// never persisted.
type RasterizedDocument struct {
	Pages        []PageImage
	SourceFormat string
	// FailedPages holds zero-based indices of pages that could not be
	// rendered. Partial failures degrade confidence downstream; only a
	// fully failed document aborts the run.
	FailedPages []int
}

// PageCount returns the number of successfully rendered pages.
func (d *RasterizedDocument) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

// OCRResult is the normalized output of an OCR provider call.
type OCRResult struct {
	Text            string
	Pages           []string
	Confidence      float64 // always present, in [0,1], even on partial success
	PageConfidences []float64
	Provider        string
	Model           string
}

// ExtractedField is one schema field recognized by the LLM stage. Value holds
// a string, a bool, or a canonical YYYY-MM-DD date string. An empty string is
// a legitimate extracted value; fields the model could not determine have no
// ExtractedField at all.
type ExtractedField struct {
	Name       string  `json:"name"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// StructuredExtraction maps schema field names to extracted values. Keys are
// always members of the closed schema; absence of a key means the field was
// not found.
type StructuredExtraction struct {
	Fields     map[string]ExtractedField
	Confidence float64 // mean of per-field confidences, 0.0 when empty
	Provider   string
	Model      string
}

// ValueMap returns the plain field→value view of the extraction.
func (s *StructuredExtraction) ValueMap() map[string]any {
	m := make(map[string]any, len(s.Fields))
	for name, f := range s.Fields {
		m[name] = f.Value
	}
	return m
}

// FieldConfidences returns the per-field confidence map.
func (s *StructuredExtraction) FieldConfidences() map[string]float64 {
	m := make(map[string]float64, len(s.Fields))
	for name, f := range s.Fields {
		m[name] = f.Confidence
	}
	return m
}

// LowConfidenceFields lists fields whose confidence is below threshold.
func (s *StructuredExtraction) LowConfidenceFields(threshold float64) []string {
	var low []string
	for name, f := range s.Fields {
		if f.Confidence < threshold {
			low = append(low, name)
		}
	}
	return low
}

// StageFailure describes the terminal failure of a pipeline run.
type StageFailure struct {
	Stage   Stage  `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ResultMetadata carries processing metadata for the result envelope.
type ResultMetadata struct {
	OCRProvider           string   `json:"ocr_provider"`
	OCRModel              string   `json:"ocr_model,omitempty"`
	LLMProvider           string   `json:"llm_provider"`
	LLMModel              string   `json:"llm_model,omitempty"`
	Filename              string   `json:"filename"`
	PageCount             int      `json:"page_count"`
	FailedPages           []int    `json:"failed_pages,omitempty"`
	PDFFilled             bool     `json:"pdf_filled"`
	FillError             string   `json:"fill_error,omitempty"`
	MissingTemplateFields []string `json:"missing_template_fields,omitempty"`
	SchemaVersion         string   `json:"schema_version"`
}

// PipelineResult is the single result envelope of a pipeline run. It is
// constructed once per request by the orchestrator, returned to the caller
// and never stored server-side. A run that reached Done may still report
// PDFFilled=false in its metadata (partial success).
type PipelineResult struct {
	Status            Status
	Failure           *StageFailure // set iff Status == StatusFailed
	Fields            map[string]ExtractedField
	FilledPDF         []byte
	OverallConfidence float64
	OCRConfidence     float64
	LLMConfidence     float64
	FieldConfidences  map[string]float64
	ProcessingTimeMS  int64
	Metadata          ResultMetadata
}
