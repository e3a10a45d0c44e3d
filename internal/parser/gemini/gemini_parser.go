// Package gemini implements the default LLM structuring provider using the
// Gemini generateContent API in JSON mode.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"medintake/internal/config"
	"medintake/internal/domain"
	"medintake/internal/parser"
	"medintake/internal/port"
	"medintake/internal/schema"
)

const (
	apiBaseURL     = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 120 * time.Second
)

func init() {
	parser.RegisterProvider(domain.LLMProviderGemini, func(cfg *config.Config) (port.Structurer, error) {
		return NewStructurer(&cfg.LLM.Gemini), nil
	})
}

// Structurer implements port.Structurer using Google's Gemini API.
type Structurer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewStructurer creates a Gemini-based structuring provider from its config.
func NewStructurer(cfg *config.ProviderConfig) *Structurer {
	return newStructurer(cfg, "")
}

// NewStructurerWithEndpoint creates a provider pointing at a custom API
// endpoint (for testing).
func NewStructurerWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Structurer {
	return newStructurer(cfg, endpoint)
}

func newStructurer(cfg *config.ProviderConfig, endpoint string) *Structurer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Structurer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout(defaultTimeout)},
	}
}

func (s *Structurer) Name() string {
	return domain.LLMProviderGemini
}

// Available reports whether an API key is configured.
func (s *Structurer) Available() bool {
	return s.apiKey != ""
}

func (s *Structurer) Structure(ctx context.Context, ocrText string, sc *schema.Schema) (*domain.StructuredExtraction, error) {
	if !s.Available() {
		return nil, fmt.Errorf("gemini: %w", domain.ErrProviderUnavailable)
	}

	prompt := parser.BuildExtractionPrompt(ocrText, sc)

	reqBody := map[string]any{
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]any{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"temperature":      0.1,
			"maxOutputTokens":  8192,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.WrapCallError("gemini", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapCallError("gemini", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API status %d: %w", resp.StatusCode, domain.ErrProviderTransport)
	}

	text, err := contentText(respBody)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", domain.ErrMalformedLLMOutput)
	}

	return parser.NormalizeResponse(text, sc, s.Name(), s.model)
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

func contentText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
