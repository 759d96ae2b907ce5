// Package extraction turns raw provider output into the canonical result
// shapes callers see, regardless of which upstream produced it.
package extraction

// OCRResult is the canonical OCR output. Text is never empty or
// whitespace-only; an unreadable image is a failure, not an empty string.
type OCRResult struct {
	Text             string  `json:"text"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
}

// AnalysisResult is the canonical structured-extraction output.
// ExtractedData is never nil; no extractable fields yields an empty map.
type AnalysisResult struct {
	DocumentType  string         `json:"documentType"`
	Confidence    float64        `json:"confidence"`
	SuggestedForm string         `json:"suggestedForm"`
	ExtractedData map[string]any `json:"extractedData"`
}

const (
	// DefaultDocumentType substitutes for a missing document category.
	DefaultDocumentType = "other"

	// DefaultSuggestedForm substitutes for a missing or unrecognized
	// suggested form.
	DefaultSuggestedForm = "personal_information"

	// NeutralConfidence substitutes for a missing confidence value.
	// Mid-range rather than 0 or 1 so downstream thresholds stay honest.
	NeutralConfidence = 0.5
)

// recognizedForms is the set of suggested_form values accepted as-is.
// Anything else falls back to DefaultSuggestedForm.
var recognizedForms = map[string]bool{
	"personal_information": true,
	"financial":            true,
	"identity_document":    true,
	"medical":              true,
	"legal":                true,
}

// noTextSentinels are upstream phrases meaning "the image has no readable
// text". Matched case-insensitively after fence stripping and trimming.
var noTextSentinels = map[string]bool{
	"no text found":    true,
	"no text detected": true,
	"no readable text": true,
}

// ClampConfidence bounds a confidence value to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
