// Package openai implements the alternate LLM structuring provider using the
// OpenAI Chat Completions API in JSON mode.
package openai

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
	apiURL         = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o"
	defaultTimeout = 120 * time.Second
)

func init() {
	parser.RegisterProvider(domain.LLMProviderOpenAI, func(cfg *config.Config) (port.Structurer, error) {
		return NewStructurer(&cfg.LLM.OpenAI), nil
	})
}

// Structurer implements port.Structurer using the OpenAI Chat Completions API.
type Structurer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewStructurer creates an OpenAI-based structuring provider from its config.
func NewStructurer(cfg *config.ProviderConfig) *Structurer {
	return newStructurer(cfg, apiURL)
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
	return &Structurer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout(defaultTimeout)},
	}
}

func (s *Structurer) Name() string {
	return domain.LLMProviderOpenAI
}

// Available reports whether an API key is configured.
func (s *Structurer) Available() bool {
	return s.apiKey != ""
}

func (s *Structurer) Structure(ctx context.Context, ocrText string, sc *schema.Schema) (*domain.StructuredExtraction, error) {
	if !s.Available() {
		return nil, fmt.Errorf("openai: %w", domain.ErrProviderUnavailable)
	}

	prompt := parser.BuildExtractionPrompt(ocrText, sc)

	reqBody := map[string]any{
		"model":                 s.model,
		"max_completion_tokens": 8192,
		"messages": []map[string]any{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"response_format": map[string]any{
			"type": "json_object",
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
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.WrapCallError("openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapCallError("openai", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API status %d: %w", resp.StatusCode, domain.ErrProviderTransport)
	}

	text, err := contentText(respBody)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", domain.ErrMalformedLLMOutput)
	}

	return parser.NormalizeResponse(text, sc, s.Name(), s.model)
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func contentText(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == "length" {
		return "", fmt.Errorf("output truncated: response exceeded output token limit")
	}
	return resp.Choices[0].Message.Content, nil
}
