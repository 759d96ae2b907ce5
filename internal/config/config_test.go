package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("DOCGATE_TEST_KEY", "sk-resolved")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"resolves reference", "${DOCGATE_TEST_KEY}", "sk-resolved"},
		{"plain value untouched", "sk-literal", "sk-literal"},
		{"empty string", "", ""},
		{"unset variable resolves empty", "${DOCGATE_TEST_UNSET_VAR}", ""},
		{"embedded reference", "prefix-${DOCGATE_TEST_KEY}-suffix", "prefix-sk-resolved-suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveEnvVars(tt.input); got != tt.want {
				t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	for _, name := range []string{"openai", "anthropic", "openrouter"} {
		p, ok := cfg.GetProvider(name)
		if !ok {
			t.Fatalf("default config missing provider %q", name)
		}
		if !p.Enabled {
			t.Errorf("%s should be enabled by default", name)
		}
		if !strings.HasPrefix(p.APIKey, "${") {
			t.Errorf("%s api_key = %q, want env reference", name, p.APIKey)
		}
	}

	if got := cfg.Routing.OCROrder[0]; got != "openai" {
		t.Errorf("OCR primary = %q, want openai", got)
	}
	if got := cfg.Routing.AnalysisOrder[0]; got != "anthropic" {
		t.Errorf("analysis primary = %q, want anthropic", got)
	}
	if cfg.Routing.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.Routing.MaxAttempts)
	}
	if len(cfg.EnabledProviders()) != 3 {
		t.Errorf("EnabledProviders() = %d, want 3", len(cfg.EnabledProviders()))
	}
}

func TestToProviderRegistryConfig(t *testing.T) {
	t.Setenv("DOCGATE_TEST_OPENAI_KEY", "sk-live")

	cfg := &Config{
		Providers: map[string]ProviderCfg{
			"openai": {
				Type:      "openai",
				APIKey:    "${DOCGATE_TEST_OPENAI_KEY}",
				RateLimit: 5,
				MaxChars:  8000,
				Enabled:   true,
			},
			"anthropic": {
				Type:    "anthropic",
				APIKey:  "${DOCGATE_TEST_MISSING_KEY}",
				Enabled: true,
			},
		},
	}

	rc := cfg.ToProviderRegistryConfig()

	openai := rc.Providers["openai"]
	if openai.APIKey != "sk-live" {
		t.Errorf("openai APIKey = %q, want resolved value", openai.APIKey)
	}
	if openai.RateLimit != 5 || openai.MaxChars != 8000 {
		t.Errorf("openai config not carried over: %+v", openai)
	}

	// Unset env var resolves to empty; the provider stays configured and
	// shows up as credential-less.
	if got := rc.Providers["anthropic"].APIKey; got != "" {
		t.Errorf("anthropic APIKey = %q, want empty", got)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# docgate configuration") {
		t.Error("missing header comment")
	}
	for _, want := range []string{"providers:", "routing:", "ocr_order:", "${OPENAI_API_KEY}"} {
		if !strings.Contains(content, want) {
			t.Errorf("config missing %q", want)
		}
	}
}
