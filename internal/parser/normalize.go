package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"medintake/internal/domain"
	"medintake/internal/schema"
)

// DefaultFieldConfidence is assigned to extracted fields for which the
// backend supplied no usable confidence score. Deliberately conservative.
const DefaultFieldConfidence = 0.5

// CleanJSONFences strips markdown code fences some backends wrap around
// JSON-mode output.
func CleanJSONFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// NormalizeResponse validates raw backend output against the schema and
// builds a StructuredExtraction. Behavior, in order:
//
//   - non-JSON or non-object output fails with domain.ErrMalformedLLMOutput;
//     the offending text is never included in the error, it may contain PHI
//   - keys outside the schema are dropped
//   - values failing type coercion become null (no entry), not errors
//   - per-field confidences are clamped to [0,1]; absent ones default to
//     DefaultFieldConfidence
//   - the aggregate confidence is the mean of present field confidences, or
//     0.0 for an empty extraction (a valid, low-confidence outcome)
func NormalizeResponse(raw string, s *schema.Schema, provider, model string) (*domain.StructuredExtraction, error) {
	cleaned := CleanJSONFences(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%s response is not a JSON object: %w", provider, domain.ErrMalformedLLMOutput)
	}
	// A literal "null" unmarshals into a nil map without error, but it is
	// still not an object.
	if parsed == nil {
		return nil, fmt.Errorf("%s response is not a JSON object: %w", provider, domain.ErrMalformedLLMOutput)
	}

	confidences := extractConfidences(parsed[ConfidencesKey])
	delete(parsed, ConfidencesKey)

	fields := make(map[string]domain.ExtractedField)
	var sum float64
	for name, raw := range parsed {
		f, ok := s.Lookup(name)
		if !ok {
			continue
		}
		value, ok := f.Coerce(raw)
		if !ok {
			continue
		}
		conf, ok := confidences[name]
		if !ok {
			conf = DefaultFieldConfidence
		}
		fields[name] = domain.ExtractedField{
			Name:       name,
			Value:      value,
			Confidence: conf,
		}
		sum += conf
	}

	aggregate := 0.0
	if len(fields) > 0 {
		aggregate = sum / float64(len(fields))
	}

	return &domain.StructuredExtraction{
		Fields:     fields,
		Confidence: aggregate,
		Provider:   provider,
		Model:      model,
	}, nil
}

// extractConfidences flattens the backend's confidence object into
// field→score, clamping every score to [0,1]. Nested objects carrying a
// "confidence" or "score" key are tolerated.
func extractConfidences(raw any) map[string]float64 {
	out := map[string]float64{}
	obj, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for name, v := range obj {
		switch val := v.(type) {
		case float64:
			out[name] = clamp01(val)
		case map[string]any:
			if c, ok := val["confidence"].(float64); ok {
				out[name] = clamp01(c)
			} else if c, ok := val["score"].(float64); ok {
				out[name] = clamp01(c)
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
