package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docgate/docgate/internal/providers"
)

const testImageURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUg=="

func newTestOrchestrator(t *testing.T, order []string, mocks ...*providers.MockProvider) *Orchestrator {
	t.Helper()
	registry := providers.NewRegistry()
	for _, m := range mocks {
		registry.Register(m.ProviderName, m)
	}
	return New(Config{
		Registry:      registry,
		OCROrder:      order,
		AnalysisOrder: order,
		RetryDelay:    time.Millisecond,
	})
}

func TestOrchestrator_ExtractText(t *testing.T) {
	ctx := context.Background()

	t.Run("first provider succeeds", func(t *testing.T) {
		primary := providers.NewMockProvider("primary")
		primary.OCRText = "extracted text"
		fallback := providers.NewMockProvider("fallback")

		o := newTestOrchestrator(t, []string{"primary", "fallback"}, primary, fallback)

		result, err := o.ExtractText(ctx, testImageURI)
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if result.Text != "extracted text" {
			t.Errorf("Text = %q", result.Text)
		}
		if fallback.Calls() != 0 {
			t.Errorf("fallback received %d calls, want 0", fallback.Calls())
		}
	})

	t.Run("transient failure is retried in place", func(t *testing.T) {
		flaky := providers.NewMockProvider("flaky")
		flaky.Err = providers.FromStatus("flaky", 429, "slow down")
		flaky.FailFirst = 1
		fallback := providers.NewMockProvider("fallback")

		o := newTestOrchestrator(t, []string{"flaky", "fallback"}, flaky, fallback)

		result, err := o.ExtractText(ctx, testImageURI)
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if result.Text != "mock OCR text" {
			t.Errorf("Text = %q", result.Text)
		}
		if flaky.Calls() != 2 {
			t.Errorf("flaky received %d calls, want 2 (original + one retry)", flaky.Calls())
		}
		if fallback.Calls() != 0 {
			t.Errorf("fallback received %d calls, want 0", fallback.Calls())
		}
	})

	t.Run("transient exhaustion falls through to next provider", func(t *testing.T) {
		down := providers.NewMockProvider("down")
		down.Err = providers.FromStatus("down", 500, "boom")
		fallback := providers.NewMockProvider("fallback")
		fallback.OCRText = "fallback text"

		o := newTestOrchestrator(t, []string{"down", "fallback"}, down, fallback)

		result, err := o.ExtractText(ctx, testImageURI)
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if result.Text != "fallback text" {
			t.Errorf("Text = %q", result.Text)
		}
		if down.Calls() != 2 {
			t.Errorf("down received %d calls, want 2 (attempt budget)", down.Calls())
		}
	})

	t.Run("permanent failure is never retried", func(t *testing.T) {
		badKey := providers.NewMockProvider("bad-key")
		badKey.Err = providers.FromStatus("bad-key", 401, "invalid api key")
		fallback := providers.NewMockProvider("fallback")

		o := newTestOrchestrator(t, []string{"bad-key", "fallback"}, badKey, fallback)

		if _, err := o.ExtractText(ctx, testImageURI); err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if badKey.Calls() != 1 {
			t.Errorf("bad-key received %d calls, want 1 (no retry on permanent)", badKey.Calls())
		}
		if fallback.Calls() != 1 {
			t.Errorf("fallback received %d calls, want 1", fallback.Calls())
		}
	})

	t.Run("invalid input propagates without touching providers", func(t *testing.T) {
		primary := providers.NewMockProvider("primary")
		o := newTestOrchestrator(t, []string{"primary"}, primary)

		_, err := o.ExtractText(ctx, "not a data uri")
		if !providers.IsKind(err, providers.KindInvalidInput) {
			t.Errorf("error = %v, want invalid_input", err)
		}
		if primary.Calls() != 0 {
			t.Errorf("primary received %d calls, want 0", primary.Calls())
		}
		var agg *providers.AllProvidersFailedError
		if errors.As(err, &agg) {
			t.Error("invalid input must not be wrapped in the aggregate error")
		}
	})

	t.Run("unavailable provider is skipped without consuming attempts", func(t *testing.T) {
		offline := providers.NewMockProvider("offline")
		offline.AvailableResult = false
		fallback := providers.NewMockProvider("fallback")

		o := newTestOrchestrator(t, []string{"offline", "fallback"}, offline, fallback)

		if _, err := o.ExtractText(ctx, testImageURI); err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if offline.Calls() != 0 {
			t.Errorf("offline received %d operation calls, want 0", offline.Calls())
		}
	})

	t.Run("no-text sentinel fails that provider and the chain continues", func(t *testing.T) {
		blind := providers.NewMockProvider("blind")
		blind.OCRText = "No text found"
		sighted := providers.NewMockProvider("sighted")
		sighted.OCRText = "actual content"

		o := newTestOrchestrator(t, []string{"blind", "sighted"}, blind, sighted)

		result, err := o.ExtractText(ctx, testImageURI)
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}
		if result.Text != "actual content" {
			t.Errorf("Text = %q", result.Text)
		}
	})

	t.Run("exhaustion yields the aggregate error", func(t *testing.T) {
		a := providers.NewMockProvider("a")
		a.Err = providers.FromStatus("a", 500, "boom")
		b := providers.NewMockProvider("b")
		b.Err = providers.FromStatus("b", 401, "bad key")
		c := providers.NewMockProvider("c")
		c.AvailableResult = false

		o := newTestOrchestrator(t, []string{"a", "b", "c"}, a, b, c)

		_, err := o.ExtractText(ctx, testImageURI)
		if err == nil {
			t.Fatal("expected error")
		}

		var agg *providers.AllProvidersFailedError
		if !errors.As(err, &agg) {
			t.Fatalf("error type = %T, want *AllProvidersFailedError", err)
		}
		if !strings.HasPrefix(err.Error(), providers.AggregateMessage) {
			t.Errorf("Error() = %q, want prefix %q", err.Error(), providers.AggregateMessage)
		}
		if len(agg.Providers) != 3 {
			t.Fatalf("aggregate records %d providers, want 3", len(agg.Providers))
		}
		if agg.Providers[0].Attempts != 2 {
			t.Errorf("provider a attempts = %d, want 2", agg.Providers[0].Attempts)
		}
		if agg.Providers[1].Attempts != 1 {
			t.Errorf("provider b attempts = %d, want 1", agg.Providers[1].Attempts)
		}
		if !agg.Providers[2].Skipped {
			t.Error("provider c should be recorded as skipped")
		}
	})

	t.Run("no capable providers yields the aggregate error", func(t *testing.T) {
		o := newTestOrchestrator(t, []string{"nobody"})
		_, err := o.ExtractText(ctx, testImageURI)
		var agg *providers.AllProvidersFailedError
		if !errors.As(err, &agg) {
			t.Fatalf("error type = %T, want *AllProvidersFailedError", err)
		}
	})
}

func TestOrchestrator_AnalyzeDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("normalized result", func(t *testing.T) {
		p := providers.NewMockProvider("analyst")
		p.AnalysisContent = "```json\n{\"document_type\":\"invoice\",\"confidence\":1.4,\"suggested_form\":\"financial\",\"extracted_data\":{\"total\":\" 99.00 \",\"empty\":\"\"}}\n```"

		o := newTestOrchestrator(t, []string{"analyst"}, p)

		result, err := o.AnalyzeDocument(ctx, "Invoice #42")
		if err != nil {
			t.Fatalf("AnalyzeDocument() error = %v", err)
		}
		if result.DocumentType != "invoice" {
			t.Errorf("DocumentType = %q", result.DocumentType)
		}
		if result.Confidence != 1 {
			t.Errorf("Confidence = %v, want clamped to 1", result.Confidence)
		}
		if result.ExtractedData["total"] != "99.00" {
			t.Errorf("ExtractedData = %+v", result.ExtractedData)
		}
		if _, ok := result.ExtractedData["empty"]; ok {
			t.Error("empty field should be pruned")
		}
	})

	t.Run("empty text is invalid input", func(t *testing.T) {
		p := providers.NewMockProvider("analyst")
		o := newTestOrchestrator(t, []string{"analyst"}, p)

		_, err := o.AnalyzeDocument(ctx, "  \n ")
		if !providers.IsKind(err, providers.KindInvalidInput) {
			t.Errorf("error = %v, want invalid_input", err)
		}
		if p.Calls() != 0 {
			t.Errorf("analyst received %d calls, want 0", p.Calls())
		}
	})

	t.Run("unparseable response falls through to next provider", func(t *testing.T) {
		chatty := providers.NewMockProvider("chatty")
		chatty.AnalysisContent = "I'm sorry, I can't help with that."
		careful := providers.NewMockProvider("careful")
		careful.AnalysisContent = `{"document_type":"legal","confidence":0.7}`

		o := newTestOrchestrator(t, []string{"chatty", "careful"}, chatty, careful)

		result, err := o.AnalyzeDocument(ctx, "This agreement is made...")
		if err != nil {
			t.Fatalf("AnalyzeDocument() error = %v", err)
		}
		if result.DocumentType != "legal" {
			t.Errorf("DocumentType = %q", result.DocumentType)
		}
		// Malformed output is permanent for that provider: one call only
		if chatty.Calls() != 1 {
			t.Errorf("chatty received %d calls, want 1", chatty.Calls())
		}
	})

	t.Run("capability filtering skips OCR-only providers", func(t *testing.T) {
		ocrOnly := providers.NewMockProvider("ocr-only")
		ocrOnly.Caps = []providers.Capability{providers.CapabilityOCR}
		analyst := providers.NewMockProvider("analyst")

		o := newTestOrchestrator(t, []string{"ocr-only", "analyst"}, ocrOnly, analyst)

		if _, err := o.AnalyzeDocument(ctx, "some text"); err != nil {
			t.Fatalf("AnalyzeDocument() error = %v", err)
		}
		if ocrOnly.Calls() != 0 {
			t.Errorf("ocr-only received %d calls, want 0", ocrOnly.Calls())
		}
	})
}

func TestOrchestrator_ConcurrentRequests(t *testing.T) {
	p := providers.NewMockProvider("primary")
	p.Latency = 10 * time.Millisecond
	o := newTestOrchestrator(t, []string{"primary"}, p)

	const n = 3
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = o.ExtractText(context.Background(), testImageURI)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d: error = %v", i, err)
		}
	}
	if p.Calls() != n {
		t.Errorf("provider received %d calls, want %d", p.Calls(), n)
	}
	// Health was probed once and cached for the rest
	if p.ProbeCalls() > n {
		t.Errorf("ProbeCalls() = %d, want at most %d", p.ProbeCalls(), n)
	}
}

func TestOrchestrator_ProviderHealth(t *testing.T) {
	up := providers.NewMockProvider("up")
	down := providers.NewMockProvider("down")
	down.AvailableResult = false

	o := newTestOrchestrator(t, []string{"up", "down"}, up, down)

	health := o.ProviderHealth(context.Background())
	if len(health) != 2 {
		t.Fatalf("ProviderHealth() has %d entries, want 2", len(health))
	}
	if !health["up"].Available {
		t.Error("up should be available")
	}
	if health["down"].Available {
		t.Error("down should be unavailable")
	}
}

func TestOrchestrator_AvailableProviders(t *testing.T) {
	with := providers.NewMockProvider("with-key")
	without := providers.NewMockProvider("without-key")
	without.Credentialed = false

	o := newTestOrchestrator(t, []string{"with-key", "without-key"}, with, without)

	got := o.AvailableProviders()
	if len(got) != 1 {
		t.Fatalf("AvailableProviders() has %d entries, want 1", len(got))
	}
	if got[0].Name != "with-key" {
		t.Errorf("Name = %q", got[0].Name)
	}
}

func TestOrchestrator_SetRouting(t *testing.T) {
	a := providers.NewMockProvider("a")
	a.OCRText = "from a"
	b := providers.NewMockProvider("b")
	b.OCRText = "from b"

	o := newTestOrchestrator(t, []string{"a", "b"}, a, b)

	result, err := o.ExtractText(context.Background(), testImageURI)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if result.Text != "from a" {
		t.Errorf("Text = %q, want from a", result.Text)
	}

	o.SetRouting([]string{"b", "a"}, []string{"b", "a"})

	result, err = o.ExtractText(context.Background(), testImageURI)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if result.Text != "from b" {
		t.Errorf("Text = %q, want from b", result.Text)
	}
}
