package extraction

import (
	"encoding/json"
	"strings"

	"github.com/docgate/docgate/internal/providers"
)

// NormalizeOCR converts a raw adapter OCR result into the canonical
// shape. Code fences are stripped, whitespace trimmed, and empty or
// sentinel responses become a no-text-found failure for that provider;
// a different OCR engine may still succeed where this one saw nothing.
func NormalizeOCR(raw *providers.RawOCR) (*OCRResult, error) {
	text := strings.TrimSpace(StripCodeFences(raw.Text))
	if text == "" {
		return nil, providers.NewError(providers.KindNoTextFound, raw.Provider, "empty OCR response")
	}
	if noTextSentinels[strings.ToLower(text)] {
		return nil, providers.NewError(providers.KindNoTextFound, raw.Provider, "provider reported no readable text")
	}

	ms := raw.Duration.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	return &OCRResult{
		Text:             text,
		Confidence:       ClampConfidence(raw.Confidence),
		ProcessingTimeMs: ms,
	}, nil
}

// analysisPayload mirrors the JSON shape the analysis prompt requests.
// Confidence is a pointer so a missing value is distinguishable from 0.
type analysisPayload struct {
	DocumentType  string         `json:"document_type"`
	Confidence    *float64       `json:"confidence"`
	SuggestedForm string         `json:"suggested_form"`
	ExtractedData map[string]any `json:"extracted_data"`
}

// NormalizeAnalysis parses and validates a raw analysis response, then
// applies the canonical defaults, clamping, and pruning. Parse and shape
// failures are not swallowed into a default object; they surface as
// invalid-upstream-response so the orchestrator can fall back.
func NormalizeAnalysis(raw *providers.RawAnalysis) (*AnalysisResult, error) {
	extracted, err := ExtractJSON(raw.Content)
	if err != nil {
		return nil, providers.WrapError(providers.KindInvalidUpstreamResponse, raw.Provider, err)
	}
	if err := validateAnalysisJSON(extracted); err != nil {
		return nil, providers.WrapError(providers.KindInvalidUpstreamResponse, raw.Provider, err)
	}

	var payload analysisPayload
	if err := json.Unmarshal(extracted, &payload); err != nil {
		return nil, providers.WrapError(providers.KindInvalidUpstreamResponse, raw.Provider, err)
	}

	docType := strings.TrimSpace(payload.DocumentType)
	if docType == "" {
		docType = DefaultDocumentType
	}

	form := strings.TrimSpace(payload.SuggestedForm)
	if !recognizedForms[form] {
		form = DefaultSuggestedForm
	}

	confidence := NeutralConfidence
	if payload.Confidence != nil {
		confidence = ClampConfidence(*payload.Confidence)
	}

	return &AnalysisResult{
		DocumentType:  docType,
		Confidence:    confidence,
		SuggestedForm: form,
		ExtractedData: PruneExtractedData(payload.ExtractedData),
	}, nil
}

// PruneExtractedData removes nil and empty-string entries from a field
// map, trims string leaves, and recurses into nested maps and slices.
// The result is never nil and pruning is idempotent: pruning an already
// pruned map yields an identical map.
func PruneExtractedData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if pruned, keep := pruneValue(v); keep {
			out[k] = pruned
		}
	}
	return out
}

// pruneValue cleans a single value, reporting whether to keep it.
func pruneValue(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil, false
		}
		return trimmed, true
	case map[string]any:
		return PruneExtractedData(val), true
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if pruned, keep := pruneValue(item); keep {
				out = append(out, pruned)
			}
		}
		return out, true
	default:
		// Numbers, booleans, and anything json.Unmarshal produced stay.
		return val, true
	}
}
