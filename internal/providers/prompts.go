package providers

import "fmt"

// ocrPrompt is the instruction sent alongside the image for vision OCR.
// Kept identical across adapters so results differ only by model quality.
const ocrPrompt = "Extract all text from this image. Preserve the structure " +
	"and formatting as much as possible. Output only the extracted text. " +
	"If the image contains no readable text, respond with exactly: No text found"

// analysisPromptFormat asks for the canonical extraction JSON. Upstreams
// that ignore the shape are caught by schema validation downstream.
const analysisPromptFormat = `Analyze the following document text and extract structured data.

Respond with ONLY a JSON object (no markdown, no commentary) of this shape:
{
  "document_type": "<category, e.g. passport, financial, other>",
  "confidence": <number between 0 and 1>,
  "suggested_form": "<one of: personal_information, financial, identity_document, medical, legal>",
  "extracted_data": { "<field name>": "<string value>", ... }
}

Omit fields you cannot determine rather than guessing.

Document text:
%s`

// AnalysisPrompt builds the structured-extraction prompt, truncating the
// document text to the adapter's character budget first.
func AnalysisPrompt(text string, maxChars int) string {
	return fmt.Sprintf(analysisPromptFormat, TruncateForPrompt(text, maxChars))
}
