package config

import (
	"os"
	"strconv"
)

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// Generate is for bulk question generation (quality over speed)
	Generate string `json:"generate" yaml:"generate"`

	// ShouldAsk is for per-question ask/skip judgments (needs to be fast)
	ShouldAsk string `json:"shouldAsk" yaml:"should_ask"`

	// Validate is for per-answer semantic validation (needs to be fast)
	Validate string `json:"validate" yaml:"validate"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey            string       `json:"-" yaml:"-"` // Never serialize
	BaseURL           string       `json:"baseUrl" yaml:"base_url"`
	Models            GeminiModels `json:"models" yaml:"models"`
	TimeoutMS         int          `json:"timeoutMs" yaml:"timeout_ms"`
	RequestsPerMinute int          `json:"requestsPerMinute" yaml:"requests_per_minute"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Models: GeminiModels{
			Generate:  "gemini-2.0-flash",
			ShouldAsk: "gemini-2.5-flash-preview-05-20",
			Validate:  "gemini-2.5-flash-preview-05-20",
		},
		TimeoutMS:         10000, // 10 second default timeout
		RequestsPerMinute: 60,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}

func (c *AIConfig) merge(file *AIConfig) {
	setIf(&c.BaseURL, file.BaseURL)
	setIf(&c.Models.Generate, file.Models.Generate)
	setIf(&c.Models.ShouldAsk, file.Models.ShouldAsk)
	setIf(&c.Models.Validate, file.Models.Validate)
	if file.TimeoutMS > 0 {
		c.TimeoutMS = file.TimeoutMS
	}
	if file.RequestsPerMinute > 0 {
		c.RequestsPerMinute = file.RequestsPerMinute
	}
}

func (c *AIConfig) applyEnv() {
	setIf(&c.APIKey, os.Getenv("GEMINI_API_KEY"))
	setIf(&c.BaseURL, os.Getenv("GEMINI_BASE_URL"))
	setIf(&c.Models.Generate, os.Getenv("GEMINI_MODEL_GENERATE"))
	setIf(&c.Models.ShouldAsk, os.Getenv("GEMINI_MODEL_ASK"))
	setIf(&c.Models.Validate, os.Getenv("GEMINI_MODEL_VALIDATE"))
	if v := os.Getenv("GEMINI_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.TimeoutMS = ms
		}
	}
	if v := os.Getenv("GEMINI_RPM"); v != "" {
		if rpm, err := strconv.Atoi(v); err == nil && rpm > 0 {
			c.RequestsPerMinute = rpm
		}
	}
}
