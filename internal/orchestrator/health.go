package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/docgate/docgate/internal/providers"
)

// DefaultHealthTTL bounds how long a probe result is trusted. Short
// enough that a recovered provider comes back quickly, long enough that
// the prober doesn't tax every request.
const DefaultHealthTTL = 2 * time.Minute

// ProviderHealth is one cached probe result.
type ProviderHealth struct {
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthCache caches per-provider availability with a TTL. It is the
// only state shared between concurrent requests and tolerates races: a
// stale or duplicate probe is harmless.
type HealthCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]ProviderHealth
	now     func() time.Time // injectable for tests
}

// NewHealthCache creates a cache with the given TTL (DefaultHealthTTL
// when zero).
func NewHealthCache(ttl time.Duration) *HealthCache {
	if ttl <= 0 {
		ttl = DefaultHealthTTL
	}
	return &HealthCache{
		ttl:     ttl,
		entries: make(map[string]ProviderHealth),
		now:     time.Now,
	}
}

// Available reports whether a provider is currently viable, probing on
// cache miss or expiry. Probe failures never propagate; the floor value
// is false.
func (h *HealthCache) Available(ctx context.Context, p providers.Provider) bool {
	name := p.Name()

	h.mu.RLock()
	entry, ok := h.entries[name]
	h.mu.RUnlock()
	if ok && h.now().Sub(entry.CheckedAt) < h.ttl {
		return entry.Available
	}

	available := p.Available(ctx)

	h.mu.Lock()
	h.entries[name] = ProviderHealth{Name: name, Available: available, CheckedAt: h.now()}
	h.mu.Unlock()

	return available
}

// Refresh forces a re-probe of every given provider, replacing cached
// entries, and returns the fresh snapshot.
func (h *HealthCache) Refresh(ctx context.Context, ps []providers.Provider) map[string]ProviderHealth {
	out := make(map[string]ProviderHealth, len(ps))
	for _, p := range ps {
		entry := ProviderHealth{
			Name:      p.Name(),
			Available: p.Available(ctx),
			CheckedAt: h.now(),
		}
		h.mu.Lock()
		h.entries[entry.Name] = entry
		h.mu.Unlock()
		out[entry.Name] = entry
	}
	return out
}

// Snapshot returns a copy of the current cache contents.
func (h *HealthCache) Snapshot() map[string]ProviderHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]ProviderHealth, len(h.entries))
	for name, entry := range h.entries {
		out[name] = entry
	}
	return out
}

// Invalidate drops a cached entry so the next check re-probes.
func (h *HealthCache) Invalidate(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.entries, name)
}
