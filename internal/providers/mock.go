package providers

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

// MockProvider is a configurable in-memory provider for testing the
// orchestrator without HTTP. Call counters are atomic so concurrent
// requests can assert invocation counts.
type MockProvider struct {
	// Identity
	ProviderName string
	Caps         []Capability

	// Configurable behavior
	Credentialed    bool
	AvailableResult bool
	Latency         time.Duration
	OCRText         string
	OCRConfidence   float64
	AnalysisContent string

	// Err is returned from every call; FailFirst limits the failures to
	// the first N calls, after which calls succeed.
	Err       error
	FailFirst int

	calls      atomic.Int64
	availCalls atomic.Int64
}

// NewMockProvider creates a mock supporting both capabilities with
// sensible defaults.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName:    name,
		Caps:            []Capability{CapabilityOCR, CapabilityAnalysis},
		Credentialed:    true,
		AvailableResult: true,
		OCRText:         "mock OCR text",
		OCRConfidence:   0.95,
		AnalysisContent: `{"document_type":"other","confidence":0.9,"suggested_form":"personal_information","extracted_data":{}}`,
	}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return m.ProviderName
}

// Capabilities returns the configured capability set.
func (m *MockProvider) Capabilities() []Capability {
	return m.Caps
}

// HasCredential reports the configured credential state.
func (m *MockProvider) HasCredential() bool {
	return m.Credentialed
}

// Available reports the configured probe result and counts the probe.
func (m *MockProvider) Available(ctx context.Context) bool {
	m.availCalls.Add(1)
	return m.Credentialed && m.AvailableResult
}

// ExtractText returns the configured OCR text or error.
func (m *MockProvider) ExtractText(ctx context.Context, imageDataURI string) (*RawOCR, error) {
	start := time.Now()

	if _, err := ParseDataURI(imageDataURI); err != nil {
		return nil, err
	}
	if err := m.call(ctx); err != nil {
		return nil, err
	}

	return &RawOCR{
		Text:       m.OCRText,
		Confidence: m.OCRConfidence,
		Provider:   m.ProviderName,
		ModelUsed:  "mock-model",
		Duration:   time.Since(start),
	}, nil
}

// AnalyzeDocument returns the configured analysis content or error.
func (m *MockProvider) AnalyzeDocument(ctx context.Context, text string) (*RawAnalysis, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, InvalidInput("document text is empty")
	}
	if err := m.call(ctx); err != nil {
		return nil, err
	}

	return &RawAnalysis{
		Content:   m.AnalysisContent,
		Provider:  m.ProviderName,
		ModelUsed: "mock-model",
		Duration:  time.Since(start),
	}, nil
}

// call counts the invocation, simulates latency, and applies the
// configured failure policy.
func (m *MockProvider) call(ctx context.Context) error {
	count := m.calls.Add(1)

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if m.Err != nil && (m.FailFirst == 0 || int(count) <= m.FailFirst) {
		return m.Err
	}
	return nil
}

// Calls returns the number of operation invocations (probes excluded).
func (m *MockProvider) Calls() int64 {
	return m.calls.Load()
}

// ProbeCalls returns the number of Available invocations.
func (m *MockProvider) ProbeCalls() int64 {
	return m.availCalls.Load()
}

// Reset zeroes the call counters.
func (m *MockProvider) Reset() {
	m.calls.Store(0)
	m.availCalls.Store(0)
}

// Verify interfaces
var (
	_ OCRProvider      = (*MockProvider)(nil)
	_ AnalysisProvider = (*MockProvider)(nil)
)
