// Package orchestrator routes OCR and analysis requests across the
// configured providers: capability filtering, availability probing,
// bounded in-place retry of transient failures, and sequential fallback.
package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/docgate/docgate/internal/extraction"
	"github.com/docgate/docgate/internal/providers"
)

const (
	// DefaultMaxAttempts is the per-provider attempt budget: one retry,
	// enough to absorb a rate-limit blip without stretching latency when
	// a provider is genuinely down.
	DefaultMaxAttempts = 2

	// DefaultRetryDelay is the fixed backoff between in-place retries.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Config holds orchestrator configuration.
type Config struct {
	Registry      *providers.Registry
	OCROrder      []string // provider preference order for OCR
	AnalysisOrder []string // provider preference order for analysis
	MaxAttempts   uint
	RetryDelay    time.Duration
	HealthTTL     time.Duration
	Logger        *slog.Logger
}

// Orchestrator is the fallback chain for document AI operations. Each
// request runs as an independent state machine; the health cache is the
// only shared state.
type Orchestrator struct {
	registry    *providers.Registry
	health      *HealthCache
	maxAttempts uint
	retryDelay  time.Duration
	logger      *slog.Logger

	routingMu     sync.RWMutex
	ocrOrder      []string
	analysisOrder []string
}

// New creates an orchestrator from config.
func New(cfg Config) *Orchestrator {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		registry:      cfg.Registry,
		health:        NewHealthCache(cfg.HealthTTL),
		ocrOrder:      cfg.OCROrder,
		analysisOrder: cfg.AnalysisOrder,
		maxAttempts:   cfg.MaxAttempts,
		retryDelay:    cfg.RetryDelay,
		logger:        cfg.Logger,
	}
}

// SetRouting replaces the preference orders, used on config hot-reload.
func (o *Orchestrator) SetRouting(ocrOrder, analysisOrder []string) {
	o.routingMu.Lock()
	defer o.routingMu.Unlock()
	o.ocrOrder = ocrOrder
	o.analysisOrder = analysisOrder
}

func (o *Orchestrator) routing() (ocr, analysis []string) {
	o.routingMu.RLock()
	defer o.routingMu.RUnlock()
	return o.ocrOrder, o.analysisOrder
}

// ExtractText runs OCR through the fallback chain and returns the
// normalized result from the first provider that succeeds.
func (o *Orchestrator) ExtractText(ctx context.Context, imageDataURI string) (*extraction.OCRResult, error) {
	// Caller precondition: fail before touching any provider.
	if _, err := providers.ParseDataURI(imageDataURI); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	log := o.logger.With("request_id", requestID, "operation", "ocr")

	ocrOrder, _ := o.routing()
	candidates := o.registry.OCRCandidates(ocrOrder)
	var attempts []providers.ProviderAttempt

	for _, p := range candidates {
		if !o.health.Available(ctx, p) {
			log.Info("skipping unavailable provider", "provider", p.Name())
			attempts = append(attempts, providers.ProviderAttempt{
				Provider: p.Name(), Skipped: true, Reason: "unavailable",
			})
			continue
		}

		var raw *providers.RawOCR
		tries, err := o.callWithRetry(ctx, func() error {
			r, callErr := p.ExtractText(ctx, imageDataURI)
			if callErr != nil {
				return callErr
			}
			raw = r
			return nil
		})
		if err == nil {
			result, nerr := extraction.NormalizeOCR(raw)
			if nerr == nil {
				log.Info("ocr succeeded", "provider", p.Name(), "attempts", tries)
				return result, nil
			}
			// Normalization failures (no text, bad shape) are permanent
			// for this provider; the chain continues.
			err = nerr
		}

		log.Warn("provider failed", "provider", p.Name(), "attempts", tries, "error", err)
		attempts = append(attempts, providers.ProviderAttempt{
			Provider: p.Name(), Attempts: tries, Err: err,
		})
	}

	agg := &providers.AllProvidersFailedError{Operation: "ocr", Providers: attempts}
	log.Error("all providers failed", "error", agg)
	return nil, agg
}

// AnalyzeDocument runs structured extraction through the fallback chain
// and returns the normalized result from the first provider that succeeds.
func (o *Orchestrator) AnalyzeDocument(ctx context.Context, text string) (*extraction.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, providers.InvalidInput("document text is empty")
	}

	requestID := uuid.New().String()
	log := o.logger.With("request_id", requestID, "operation", "analysis")

	_, analysisOrder := o.routing()
	candidates := o.registry.AnalysisCandidates(analysisOrder)
	var attempts []providers.ProviderAttempt

	for _, p := range candidates {
		if !o.health.Available(ctx, p) {
			log.Info("skipping unavailable provider", "provider", p.Name())
			attempts = append(attempts, providers.ProviderAttempt{
				Provider: p.Name(), Skipped: true, Reason: "unavailable",
			})
			continue
		}

		var raw *providers.RawAnalysis
		tries, err := o.callWithRetry(ctx, func() error {
			r, callErr := p.AnalyzeDocument(ctx, text)
			if callErr != nil {
				return callErr
			}
			raw = r
			return nil
		})
		if err == nil {
			result, nerr := extraction.NormalizeAnalysis(raw)
			if nerr == nil {
				log.Info("analysis succeeded", "provider", p.Name(), "attempts", tries)
				return result, nil
			}
			err = nerr
		}

		log.Warn("provider failed", "provider", p.Name(), "attempts", tries, "error", err)
		attempts = append(attempts, providers.ProviderAttempt{
			Provider: p.Name(), Attempts: tries, Err: err,
		})
	}

	agg := &providers.AllProvidersFailedError{Operation: "analysis", Providers: attempts}
	log.Error("all providers failed", "error", agg)
	return nil, agg
}

// callWithRetry runs one provider call under the per-provider attempt
// budget. Only transient failures (429, 5xx, network faults) are retried
// in place; permanent failures return immediately so the chain advances.
// Returns the number of attempts actually made.
func (o *Orchestrator) callWithRetry(ctx context.Context, fn func() error) (int, error) {
	tries := 0
	err := retry.Do(
		func() error {
			tries++
			return fn()
		},
		retry.Context(ctx),
		retry.Attempts(o.maxAttempts),
		retry.Delay(o.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(providers.IsTransient),
		retry.LastErrorOnly(true),
	)
	return tries, err
}

// ProviderHealth probes (or serves from cache) the availability of every
// registered provider, for the operational health endpoint.
func (o *Orchestrator) ProviderHealth(ctx context.Context) map[string]ProviderHealth {
	for _, p := range o.registry.All() {
		o.health.Available(ctx, p)
	}
	return o.health.Snapshot()
}

// RefreshHealth forces a re-probe of every registered provider.
func (o *Orchestrator) RefreshHealth(ctx context.Context) map[string]ProviderHealth {
	return o.health.Refresh(ctx, o.registry.All())
}

// ProviderInfo describes one configured provider for discovery.
type ProviderInfo struct {
	Name         string                 `json:"name"`
	Capabilities []providers.Capability `json:"capabilities"`
}

// AvailableProviders lists providers whose credential is configured,
// independent of live probe results. Sorted by name for stable output.
func (o *Orchestrator) AvailableProviders() []ProviderInfo {
	var out []ProviderInfo
	for _, p := range o.registry.All() {
		if !p.HasCredential() {
			continue
		}
		out = append(out, ProviderInfo{Name: p.Name(), Capabilities: p.Capabilities()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
