package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medintake/internal/config"
	"medintake/internal/domain"
	openai "medintake/internal/parser/openai"
	"medintake/internal/schema"
)

func newTestStructurer(serverURL string) *openai.Structurer {
	cfg := &config.ProviderConfig{
		APIKey:      "test-openai-key",
		Model:       "gpt-4o",
		TimeoutSecs: 5,
	}
	return openai.NewStructurerWithEndpoint(cfg, serverURL)
}

func successResponse(content, finishReason string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": finishReason,
			},
		},
	}
}

func TestStructure_Success(t *testing.T) {
	llmJSON := `{"patient_last_name":"Doe","is_smoker":"no","_field_confidences":{"patient_last_name":0.9,"is_smoker":0.7}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		assert.Equal(t, "gpt-4o", reqBody["model"])
		format := reqBody["response_format"].(map[string]interface{})
		assert.Equal(t, "json_object", format["type"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])
		assert.Contains(t, msg["content"].(string), "Smoker: no")

		_ = json.NewEncoder(w).Encode(successResponse(llmJSON, "stop"))
	}))
	defer server.Close()

	s := newTestStructurer(server.URL)
	ext, err := s.Structure(context.Background(), "Smoker: no", schema.V1())
	require.NoError(t, err)

	assert.Equal(t, "openai", ext.Provider)
	require.Len(t, ext.Fields, 2)
	assert.Equal(t, "Doe", ext.Fields["patient_last_name"].Value)
	assert.Equal(t, false, ext.Fields["is_smoker"].Value)
	assert.InDelta(t, 0.8, ext.Confidence, 1e-9)
}

func TestStructure_TruncatedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(successResponse(`{"patient_first_name":"Ja`, "length"))
	}))
	defer server.Close()

	s := newTestStructurer(server.URL)
	_, err := s.Structure(context.Background(), "text", schema.V1())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedLLMOutput)
}

func TestStructure_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	s := newTestStructurer(server.URL)
	_, err := s.Structure(context.Background(), "text", schema.V1())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedLLMOutput)
}

func TestStructure_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestStructurer(server.URL)
	_, err := s.Structure(context.Background(), "text", schema.V1())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderTransport)
}

func TestStructure_Unavailable(t *testing.T) {
	s := openai.NewStructurer(&config.ProviderConfig{})
	assert.False(t, s.Available())

	_, err := s.Structure(context.Background(), "text", schema.V1())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
