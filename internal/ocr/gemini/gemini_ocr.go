// Package gemini implements the vision-LLM-style OCR provider on top of the
// Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/ocr"
	"medintake/internal/port"
)

const (
	apiBaseURL     = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 60 * time.Second
)

const ocrPrompt = "Extract all text from this document image. " +
	"Include all handwritten and printed text. " +
	"Preserve the document structure and formatting. " +
	"Return only the extracted text, no commentary."

func init() {
	ocr.RegisterProvider(domain.OCRProviderGemini, func(cfg *config.Config) (port.OCRProvider, error) {
		return NewProvider(&cfg.OCR.Gemini), nil
	})
}

// Provider implements port.OCRProvider using Google's Gemini API as a
// general image-to-text backend.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewProvider creates a Gemini OCR provider from its config.
func NewProvider(cfg *config.ProviderConfig) *Provider {
	return newProvider(cfg, "")
}

// NewProviderWithEndpoint creates a provider pointing at a custom API
// endpoint (for testing).
func NewProviderWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Provider {
	return newProvider(cfg, endpoint)
}

func newProvider(cfg *config.ProviderConfig, endpoint string) *Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Provider{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout(defaultTimeout)},
	}
}

func (p *Provider) Name() string {
	return domain.OCRProviderGemini
}

// Available reports whether an API key is configured.
func (p *Provider) Available() bool {
	return p.apiKey != ""
}

func (p *Provider) ExtractText(ctx context.Context, doc *domain.RasterizedDocument) (*domain.OCRResult, error) {
	if !p.Available() {
		return nil, fmt.Errorf("gemini: %w", domain.ErrProviderUnavailable)
	}
	if doc.PageCount() == 0 {
		return nil, fmt.Errorf("gemini: no pages: %w", domain.ErrCorruptDocument)
	}

	pages := make([]string, 0, doc.PageCount())
	pageConfidences := make([]float64, 0, doc.PageCount())
	var pageErrs []error
	succeeded := 0

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, domain.WrapCallError("gemini", err)
		}
		text, err := p.processPage(ctx, page)
		if err != nil {
			// processPage already classified the error; an expired
			// context aborts the whole call.
			if ctx.Err() != nil {
				return nil, err
			}
			pageErrs = append(pageErrs, err)
			pages = append(pages, fmt.Sprintf("[page %d extraction failed]", page.Index+1))
			pageConfidences = append(pageConfidences, ocr.FailedPageConfidence)
			continue
		}
		pages = append(pages, text)
		pageConfidences = append(pageConfidences, ocr.EstimateConfidence(text))
		succeeded++
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("gemini: all %d pages failed: %w", doc.PageCount(), ocr.DominantPageError(pageErrs))
	}

	text := pages[0]
	for _, pg := range pages[1:] {
		text += ocr.PageBreak + pg
	}

	return &domain.OCRResult{
		Text:            text,
		Pages:           pages,
		Confidence:      ocr.MeanConfidence(pageConfidences),
		PageConfidences: pageConfidences,
		Provider:        p.Name(),
		Model:           p.model,
	}, nil
}

func (p *Provider) processPage(ctx context.Context, page domain.PageImage) (string, error) {
	reqBody := map[string]any{
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]any{
					{
						"inline_data": map[string]any{
							"mime_type": pageMimeType(page),
							"data":      base64.StdEncoding.EncodeToString(page.Data),
						},
					},
					{
						"text": ocrPrompt,
					},
				},
			},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": 8192,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", domain.WrapCallError("gemini", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapCallError("gemini", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API status %d: %w", resp.StatusCode, domain.ErrProviderTransport)
	}

	return parsePageResponse(respBody)
}

func pageMimeType(page domain.PageImage) string {
	if page.Format == "pdf" {
		return "application/pdf"
	}
	return "image/" + page.Format
}

// generateResponse models the Gemini API response.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parsePageResponse(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
