package providers

import (
	"os"
)

// TestConfig holds provider configuration loaded from environment
// variables so live tests use the same settings path as production.
type TestConfig struct {
	MistralAPIKey string
}

// LoadTestConfig loads provider API keys from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		MistralAPIKey: os.Getenv("MISTRAL_API_KEY"),
	}
}

// HasMistral returns true if a Mistral API key is configured.
func (c TestConfig) HasMistral() bool {
	return c.MistralAPIKey != ""
}

// ToRegistryConfig converts test config to a RegistryConfig.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	return RegistryConfig{
		OCR: OCRProviderConfig{
			Enabled:   true,
			APIKey:    c.MistralAPIKey,
			RateLimit: 1,
		},
		Embeddings: EmbeddingsProviderConfig{
			Enabled: true,
			APIKey:  c.MistralAPIKey,
		},
	}
}
