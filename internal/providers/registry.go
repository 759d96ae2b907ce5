package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry holds the configured provider adapters. It supports
// config-driven instantiation and hot-reload, and provides thread-safe
// access for the orchestrator and the HTTP surface.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	logger    *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds or replaces a provider by name.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	if r.logger != nil {
		r.logger.Info("registered provider", "name", name, "capabilities", p.Capabilities())
	}
}

// Unregister removes a provider by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
	if r.logger != nil {
		r.logger.Info("unregistered provider", "name", name)
	}
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// Has checks if a provider is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Names returns all registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// All returns a snapshot of all registered providers.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// OCRCandidates returns OCR-capable providers in the given preference
// order. Providers lacking the capability or missing from the registry
// are skipped entirely.
func (r *Registry) OCRCandidates(order []string) []OCRProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]OCRProvider, 0, len(order))
	for _, name := range order {
		p, ok := r.providers[name]
		if !ok || !HasCapability(p, CapabilityOCR) {
			continue
		}
		if ocr, ok := p.(OCRProvider); ok {
			out = append(out, ocr)
		}
	}
	return out
}

// AnalysisCandidates returns analysis-capable providers in the given
// preference order.
func (r *Registry) AnalysisCandidates(order []string) []AnalysisProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AnalysisProvider, 0, len(order))
	for _, name := range order {
		p, ok := r.providers[name]
		if !ok || !HasCapability(p, CapabilityAnalysis) {
			continue
		}
		if an, ok := p.(AnalysisProvider); ok {
			out = append(out, an)
		}
	}
	return out
}

// RegistryConfig defines the providers to instantiate from config, with
// API keys already resolved.
type RegistryConfig struct {
	Providers map[string]ProviderConfig
}

// ProviderConfig configures one adapter instance.
type ProviderConfig struct {
	Type      string  // "openai", "anthropic", "openrouter"
	Model     string
	APIKey    string // resolved API key
	BaseURL   string
	RateLimit float64 // requests per second
	MaxChars  int
	Timeout   time.Duration
	Enabled   bool
}

// NewRegistryFromConfig creates a registry with providers based on
// configuration. Disabled providers are not registered; providers with a
// missing credential ARE registered (they show up as configured-but-
// unavailable rather than vanishing silently).
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled {
			continue
		}
		if p := createProvider(provCfg); p != nil {
			r.providers[name] = p
		}
	}
	return r
}

// Reload updates the registry from new configuration. Providers that are
// no longer configured are unregistered; changed ones are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled {
			continue
		}
		want[name] = true

		p := createProvider(provCfg)
		if p == nil {
			continue
		}
		_, existed := r.providers[name]
		r.providers[name] = p
		if r.logger != nil {
			if existed {
				r.logger.Info("updated provider", "name", name, "type", provCfg.Type)
			} else {
				r.logger.Info("registered provider", "name", name, "type", provCfg.Type)
			}
		}
	}

	for name := range r.providers {
		if !want[name] {
			delete(r.providers, name)
			if r.logger != nil {
				r.logger.Info("unregistered provider", "name", name)
			}
		}
	}
}

// createProvider creates an adapter based on provider type.
func createProvider(cfg ProviderConfig) Provider {
	switch cfg.Type {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxChars:  cfg.MaxChars,
			RateLimit: cfg.RateLimit,
			Timeout:   cfg.Timeout,
		})
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxChars:  cfg.MaxChars,
			RateLimit: cfg.RateLimit,
			Timeout:   cfg.Timeout,
		})
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxChars:  cfg.MaxChars,
			RateLimit: cfg.RateLimit,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil
	}
}
