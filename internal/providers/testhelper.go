package providers

import (
	"os"
)

// TestConfig holds provider API keys loaded from environment variables,
// so integration tests use the same configuration pattern as production.
type TestConfig struct {
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	OpenRouterAPIKey string
}

// LoadTestConfig loads provider API keys from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
	}
}

// HasOpenAI returns true if an OpenAI API key is configured.
func (c TestConfig) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasAnthropic returns true if an Anthropic API key is configured.
func (c TestConfig) HasAnthropic() bool {
	return c.AnthropicAPIKey != ""
}

// HasOpenRouter returns true if an OpenRouter API key is configured.
func (c TestConfig) HasOpenRouter() bool {
	return c.OpenRouterAPIKey != ""
}

// ToRegistryConfig converts test config to a RegistryConfig, including
// only providers with keys configured.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	cfg := RegistryConfig{Providers: make(map[string]ProviderConfig)}

	if c.HasOpenAI() {
		cfg.Providers[OpenAIName] = ProviderConfig{
			Type: "openai", APIKey: c.OpenAIAPIKey, RateLimit: 2, Enabled: true,
		}
	}
	if c.HasAnthropic() {
		cfg.Providers[AnthropicName] = ProviderConfig{
			Type: "anthropic", APIKey: c.AnthropicAPIKey, RateLimit: 2, Enabled: true,
		}
	}
	if c.HasOpenRouter() {
		cfg.Providers[OpenRouterName] = ProviderConfig{
			Type: "openrouter", APIKey: c.OpenRouterAPIKey, RateLimit: 2, Enabled: true,
		}
	}
	return cfg
}
