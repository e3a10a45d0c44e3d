// Package mistral implements the primary, document-AI-style OCR provider on
// top of the Mistral OCR API.
package mistral

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
	apiURL         = "https://api.mistral.ai/v1/ocr"
	defaultModel   = "mistral-ocr-latest"
	defaultTimeout = 60
)

func init() {
	ocr.RegisterProvider(domain.OCRProviderMistral, func(cfg *config.Config) (port.OCRProvider, error) {
		return NewProvider(&cfg.OCR.Mistral), nil
	})
}

// Provider implements port.OCRProvider using the Mistral OCR API.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewProvider creates a Mistral OCR provider from its config.
func NewProvider(cfg *config.ProviderConfig) *Provider {
	return newProvider(cfg, apiURL)
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
	return &Provider{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout(defaultTimeout * time.Second)},
	}
}

func (p *Provider) Name() string {
	return domain.OCRProviderMistral
}

// Available reports whether an API key is configured.
func (p *Provider) Available() bool {
	return p.apiKey != ""
}

// ExtractText runs OCR over each page. Individual page failures degrade the
// document confidence; the call fails only when no page yields text or the
// request context expires.
func (p *Provider) ExtractText(ctx context.Context, doc *domain.RasterizedDocument) (*domain.OCRResult, error) {
	if !p.Available() {
		return nil, fmt.Errorf("mistral: %w", domain.ErrProviderUnavailable)
	}
	if doc.PageCount() == 0 {
		return nil, fmt.Errorf("mistral: no pages: %w", domain.ErrCorruptDocument)
	}

	pages := make([]string, 0, doc.PageCount())
	pageConfidences := make([]float64, 0, doc.PageCount())
	var pageErrs []error
	succeeded := 0

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, domain.WrapCallError("mistral", err)
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
		return nil, fmt.Errorf("mistral: all %d pages failed: %w", doc.PageCount(), ocr.DominantPageError(pageErrs))
	}

	return &domain.OCRResult{
		Text:            joinPages(pages),
		Pages:           pages,
		Confidence:      ocr.MeanConfidence(pageConfidences),
		PageConfidences: pageConfidences,
		Provider:        p.Name(),
		Model:           p.model,
	}, nil
}

func (p *Provider) processPage(ctx context.Context, page domain.PageImage) (string, error) {
	reqBody := map[string]any{
		"model":    p.model,
		"document": documentPart(page),
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
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", domain.WrapCallError("mistral", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapCallError("mistral", err)
	}
	if resp.StatusCode != http.StatusOK {
		// The response body is never surfaced: error payloads may quote
		// document content.
		return "", fmt.Errorf("mistral API status %d: %w", resp.StatusCode, domain.ErrProviderTransport)
	}

	return parsePageResponse(respBody)
}

// documentPart builds the document block of an OCR request. PDF pages travel
// as document_url data URIs, images as image_url data URIs.
func documentPart(page domain.PageImage) map[string]any {
	encoded := base64.StdEncoding.EncodeToString(page.Data)
	if page.Format == "pdf" {
		return map[string]any{
			"type":         "document_url",
			"document_url": "data:application/pdf;base64," + encoded,
		}
	}
	return map[string]any{
		"type":      "image_url",
		"image_url": fmt.Sprintf("data:image/%s;base64,%s", page.Format, encoded),
	}
}

// ocrResponse models the Mistral OCR API response.
type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
	Model string `json:"model"`
}

func parsePageResponse(body []byte) (string, error) {
	var resp ocrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Pages) == 0 {
		return "", fmt.Errorf("empty response from API: no pages")
	}
	var parts []string
	for _, pg := range resp.Pages {
		parts = append(parts, pg.Markdown)
	}
	return joinPages(parts), nil
}

func joinPages(pages []string) string {
	switch len(pages) {
	case 0:
		return ""
	case 1:
		return pages[0]
	default:
		out := pages[0]
		for _, pg := range pages[1:] {
			out += ocr.PageBreak + pg
		}
		return out
	}
}
