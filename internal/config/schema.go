package config

// Config holds docgate configuration, loaded from config.yaml with
// ${ENV_VAR} references resolved at registry-build time.
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Routing   RoutingCfg             `mapstructure:"routing" yaml:"routing"`
	Server    ServerCfg              `mapstructure:"server" yaml:"server"`
}

// ProviderCfg configures one upstream adapter.
type ProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "openai", "anthropic", "openrouter"
	Model     string  `mapstructure:"model" yaml:"model"`           // model identifier (adapter default if empty)
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // supports ${ENV_VAR} syntax
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"`     // optional endpoint override
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
	MaxChars  int     `mapstructure:"max_chars" yaml:"max_chars"`   // prompt character budget
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// RoutingCfg controls the fallback chain.
type RoutingCfg struct {
	// OCROrder and AnalysisOrder are provider preference lists; providers
	// lacking the capability are skipped, the last entry is the
	// last-resort fallback.
	OCROrder      []string `mapstructure:"ocr_order" yaml:"ocr_order"`
	AnalysisOrder []string `mapstructure:"analysis_order" yaml:"analysis_order"`

	// MaxAttempts is the per-provider attempt budget (includes the first
	// try). RetryDelayMs is the fixed backoff between in-place retries.
	MaxAttempts  uint `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelayMs int  `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`

	// HealthTTLSeconds bounds how long an availability probe is cached.
	HealthTTLSeconds int `mapstructure:"health_ttl_seconds" yaml:"health_ttl_seconds"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults: OpenAI as
// OCR primary, Anthropic as analysis primary, OpenRouter as last resort.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 10.0,
				Enabled:   true,
			},
			"anthropic": {
				Type:      "anthropic",
				Model:     "claude-3-5-sonnet-latest",
				APIKey:    "${ANTHROPIC_API_KEY}",
				RateLimit: 10.0,
				Enabled:   true,
			},
			"openrouter": {
				Type:      "openrouter",
				Model:     "google/gemini-2.0-flash-001",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 10.0,
				Enabled:   true,
			},
		},
		Routing: RoutingCfg{
			OCROrder:         []string{"openai", "anthropic", "openrouter"},
			AnalysisOrder:    []string{"anthropic", "openai", "openrouter"},
			MaxAttempts:      2,
			RetryDelayMs:     500,
			HealthTTLSeconds: 120,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
