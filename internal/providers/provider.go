package providers

import (
	"context"
	"time"
)

// Capability identifies an operation a provider can perform.
type Capability string

const (
	// CapabilityOCR marks providers that can extract text from images.
	CapabilityOCR Capability = "ocr"
	// CapabilityAnalysis marks providers that can extract structured data from text.
	CapabilityAnalysis Capability = "analysis"
)

// Provider is the common surface every upstream integration exposes.
// The orchestrator depends only on these interfaces, never on adapter
// internals, so vendors can be swapped without touching routing logic.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Capabilities returns the operations this provider supports.
	Capabilities() []Capability

	// HasCredential reports whether an API key is configured.
	// A provider without a credential is never probed or called.
	HasCredential() bool

	// Available performs a cheap round-trip to the upstream and reports
	// whether it is currently usable. It never returns an error; any
	// network failure or non-2xx response yields false.
	Available(ctx context.Context) bool
}

// OCRProvider extracts text from an image supplied as a data URI.
type OCRProvider interface {
	Provider

	// ExtractText runs OCR on a base64 data URI image. The input is
	// validated before any network call; malformed URIs fail with an
	// invalid-input error.
	ExtractText(ctx context.Context, imageDataURI string) (*RawOCR, error)
}

// AnalysisProvider extracts structured document data from plain text.
type AnalysisProvider interface {
	Provider

	// AnalyzeDocument asks the model to classify the document and pull
	// out field values. The returned content is the raw model output;
	// parsing and normalization happen downstream.
	AnalyzeDocument(ctx context.Context, text string) (*RawAnalysis, error)
}

// RawOCR is the unnormalized OCR output from a single adapter call.
// Text may still carry markdown code fences or a "no text" sentinel;
// the normalizer deals with both.
type RawOCR struct {
	Text       string
	Confidence float64
	Provider   string
	ModelUsed  string
	Duration   time.Duration
}

// RawAnalysis is the unnormalized analysis output from a single adapter
// call. Content is the raw model text and may wrap its JSON in fences.
type RawAnalysis struct {
	Content   string
	Provider  string
	ModelUsed string
	Duration  time.Duration
}

// HasCapability reports whether p supports the given capability.
func HasCapability(p Provider, c Capability) bool {
	for _, pc := range p.Capabilities() {
		if pc == c {
			return true
		}
	}
	return false
}
