// Package confidence combines stage confidences into the overall pipeline
// score. Pure functions only: no I/O, no side effects, total over their
// documented input ranges.
package confidence

// Weights controls the OCR/LLM combination. Neither stage alone should mask
// a failure in the other: a perfect LLM parse of garbled OCR text must not
// score as high confidence.
type Weights struct {
	OCR float64
	LLM float64
}

// DefaultWeights weights both stages equally.
func DefaultWeights() Weights {
	return Weights{OCR: 0.5, LLM: 0.5}
}

// Aggregate computes the overall confidence as the weighted combination of
// the document-level OCR and LLM confidences, and returns the per-field map
// clamped to [0,1]. Per-field scores are passed through as-is rather than
// re-weighted: OCR confidence is a document-level signal, not attributable
// to individual fields. Non-positive weight sums fall back to equal
// weighting.
func Aggregate(ocrConfidence, llmConfidence float64, perField map[string]float64, w Weights) (float64, map[string]float64) {
	ocr := clamp01(ocrConfidence)
	llm := clamp01(llmConfidence)

	if w.OCR < 0 {
		w.OCR = 0
	}
	if w.LLM < 0 {
		w.LLM = 0
	}
	total := w.OCR + w.LLM
	if total <= 0 {
		w = DefaultWeights()
		total = 1
	}
	overall := (w.OCR*ocr + w.LLM*llm) / total

	fields := make(map[string]float64, len(perField))
	for name, c := range perField {
		fields[name] = clamp01(c)
	}
	return overall, fields
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
