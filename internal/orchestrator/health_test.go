package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/docgate/docgate/internal/providers"
)

func TestHealthCache_TTL(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewHealthCache(2 * time.Minute)
	cache.now = func() time.Time { return clock }

	p := providers.NewMockProvider("mock")
	ctx := context.Background()

	if !cache.Available(ctx, p) {
		t.Fatal("Available() = false, want true")
	}
	if got := p.ProbeCalls(); got != 1 {
		t.Fatalf("ProbeCalls() = %d, want 1", got)
	}

	// Within the TTL the cached value is served without a probe
	clock = clock.Add(time.Minute)
	cache.Available(ctx, p)
	if got := p.ProbeCalls(); got != 1 {
		t.Errorf("ProbeCalls() = %d, want 1 (cached)", got)
	}

	// Past the TTL the provider is probed again
	clock = clock.Add(90 * time.Second)
	cache.Available(ctx, p)
	if got := p.ProbeCalls(); got != 2 {
		t.Errorf("ProbeCalls() = %d, want 2 (expired)", got)
	}
}

func TestHealthCache_CachesNegativeResults(t *testing.T) {
	cache := NewHealthCache(time.Minute)
	p := providers.NewMockProvider("down")
	p.AvailableResult = false
	ctx := context.Background()

	if cache.Available(ctx, p) {
		t.Fatal("Available() = true, want false")
	}
	cache.Available(ctx, p)
	if got := p.ProbeCalls(); got != 1 {
		t.Errorf("ProbeCalls() = %d, want 1 (negative result cached)", got)
	}
}

func TestHealthCache_Invalidate(t *testing.T) {
	cache := NewHealthCache(time.Hour)
	p := providers.NewMockProvider("mock")
	ctx := context.Background()

	cache.Available(ctx, p)
	cache.Invalidate("mock")
	cache.Available(ctx, p)

	if got := p.ProbeCalls(); got != 2 {
		t.Errorf("ProbeCalls() = %d, want 2 after invalidation", got)
	}
}

func TestHealthCache_RefreshAndSnapshot(t *testing.T) {
	cache := NewHealthCache(time.Hour)
	up := providers.NewMockProvider("up")
	down := providers.NewMockProvider("down")
	down.AvailableResult = false

	got := cache.Refresh(context.Background(), []providers.Provider{up, down})
	if !got["up"].Available || got["down"].Available {
		t.Errorf("Refresh() = %+v", got)
	}

	snap := cache.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() has %d entries, want 2", len(snap))
	}
	if !snap["up"].Available || snap["down"].Available {
		t.Errorf("Snapshot() = %+v", snap)
	}
}
