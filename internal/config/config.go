package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	CORS     CORSConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Filler   FillerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds settings for a single OCR or LLM provider backend.
type ProviderConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	TimeoutSecs   int    `mapstructure:"timeout_secs"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

// Timeout returns the per-call timeout, falling back to def when unset.
func (p *ProviderConfig) Timeout(def time.Duration) time.Duration {
	if p.TimeoutSecs <= 0 {
		return def
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// DocAIConfig holds settings for the Google Document AI placeholder.
type DocAIConfig struct {
	ProjectID   string `mapstructure:"project_id"`
	Location    string `mapstructure:"location"`
	ProcessorID string `mapstructure:"processor_id"`
}

// OCRConfig holds OCR provider settings.
type OCRConfig struct {
	Default string         `mapstructure:"default"`
	Mistral ProviderConfig `mapstructure:"mistral"`
	Gemini  ProviderConfig `mapstructure:"gemini"`
	DocAI   DocAIConfig    `mapstructure:"docai"`
}

// LLMConfig holds LLM structuring provider settings.
type LLMConfig struct {
	Default string         `mapstructure:"default"`
	Gemini  ProviderConfig `mapstructure:"gemini"`
	OpenAI  ProviderConfig `mapstructure:"openai"`
}

// PipelineConfig holds orchestrator settings. OCRWeight and LLMWeight control
// the overall-confidence combination; equal weighting is the default.
type PipelineConfig struct {
	OCRWeight            float64 `mapstructure:"ocr_weight"`
	LLMWeight            float64 `mapstructure:"llm_weight"`
	DefaultMaxConcurrent int     `mapstructure:"default_max_concurrent"`
}

// FillerConfig holds AcroForm filling settings. FieldMap overrides entries of
// the static schema→template field mapping. Flatten is a deployment option,
// not a per-request one.
type FillerConfig struct {
	TemplatePath string            `mapstructure:"template_path"`
	Flatten      bool              `mapstructure:"flatten"`
	FieldMap     map[string]string `mapstructure:"field_map"`
}

// Load reads configuration from environment variables with the MEDINTAKE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MEDINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	})

	// OCR provider defaults. API keys default empty so the env bindings
	// exist; an empty key marks the provider unavailable.
	v.SetDefault("ocr.default", "mistral")
	v.SetDefault("ocr.mistral.api_key", "")
	v.SetDefault("ocr.mistral.model", "mistral-ocr-latest")
	v.SetDefault("ocr.mistral.timeout_secs", 60)
	v.SetDefault("ocr.mistral.max_concurrent", 4)
	v.SetDefault("ocr.gemini.api_key", "")
	v.SetDefault("ocr.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ocr.gemini.timeout_secs", 60)
	v.SetDefault("ocr.gemini.max_concurrent", 4)
	v.SetDefault("ocr.docai.project_id", "")
	v.SetDefault("ocr.docai.location", "us")
	v.SetDefault("ocr.docai.processor_id", "")

	// LLM provider defaults
	v.SetDefault("llm.default", "gemini")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.timeout_secs", 120)
	v.SetDefault("llm.gemini.max_concurrent", 4)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.openai.timeout_secs", 120)
	v.SetDefault("llm.openai.max_concurrent", 4)

	// Pipeline defaults: equal confidence weighting
	v.SetDefault("pipeline.ocr_weight", 0.5)
	v.SetDefault("pipeline.llm_weight", 0.5)
	v.SetDefault("pipeline.default_max_concurrent", 4)

	// Filler defaults
	v.SetDefault("filler.template_path", "")
	v.SetDefault("filler.flatten", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
