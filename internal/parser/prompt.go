package parser

import (
	"fmt"
	"strings"

	"medintake/internal/schema"
)

// ConfidencesKey is the reserved response key carrying per-field confidence
// scores alongside the extracted data.
const ConfidencesKey = "_field_confidences"

// BuildExtractionPrompt constructs the structuring prompt from the closed
// field schema. The schema drives both the prompt and the post-hoc
// validation: the model is only ever asked for fields the pipeline accepts.
func BuildExtractionPrompt(ocrText string, s *schema.Schema) string {
	var b strings.Builder

	b.WriteString(`You are a medical document processing assistant. Extract structured data from the OCR text of a medical form.

IMPORTANT GUIDELINES:
1. Only extract the fields listed below. Do not invent other fields.
2. For handwritten text, make your best interpretation.
3. For checkbox fields, use true or false.
4. For empty or unclear fields, use null.
5. For dates, use ISO 8601 format (YYYY-MM-DD) when possible.
6. For phone numbers, preserve the original formatting.
7. Do NOT make up information - only extract what is present.

FIELDS TO EXTRACT:
`)
	for _, f := range s.Fields() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Name, f.Type, f.Description)
	}

	b.WriteString(`
OCR TEXT:
---
`)
	b.WriteString(ocrText)
	b.WriteString(`
---

Return ONLY a valid JSON object with no markdown formatting, no code fences, no explanation.
The object must map field names to extracted values, using null for fields that cannot be determined.
Include a "` + ConfidencesKey + `" object with a confidence score between 0.0 and 1.0 for each extracted field.`)

	return b.String()
}
