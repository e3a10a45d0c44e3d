package ocr

import "strings"

// PageBreak separates per-page text in the combined OCR output.
const PageBreak = "\n\n--- Page Break ---\n\n"

// Per-page confidence assigned to pages that failed or timed out. Failed
// pages degrade the document confidence instead of aborting the result.
const (
	FailedPageConfidence = 0.2
)

var documentMarkers = []string{"name:", "date:", "address:", "phone:", "dob", "signature"}

// EstimateConfidence synthesizes a [0,1] confidence for backends that expose
// no confidence signal of their own, based on text length and the presence of
// common form markers. Capped at 0.95: without ground truth certainty is
// never claimed.
func EstimateConfidence(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 10 {
		return 0.2
	}
	confidence := 0.7
	if len(trimmed) > 100 {
		confidence += 0.1
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range documentMarkers {
		if strings.Contains(lower, marker) {
			confidence += 0.1
			break
		}
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

// MeanConfidence averages per-page confidences; empty input yields 0.
func MeanConfidence(pageConfidences []float64) float64 {
	if len(pageConfidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range pageConfidences {
		sum += c
	}
	return sum / float64(len(pageConfidences))
}
