package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// analysisSchemaJSON is the canonical shape every provider's analysis
// response must satisfy before normalization. Bounds are deliberately
// loose (confidence is just "number") because clamping and default
// substitution happen after validation.
const analysisSchemaJSON = `{
  "type": "object",
  "properties": {
    "document_type":  { "type": "string" },
    "confidence":     { "type": "number" },
    "suggested_form": { "type": "string" },
    "extracted_data": { "type": "object" }
  },
  "additionalProperties": true
}`

var (
	analysisSchemaOnce sync.Once
	analysisSchema     *jsonschema.Schema
	analysisSchemaErr  error
)

// validateAnalysisJSON checks parsed analysis JSON against the canonical
// schema. A violation means the upstream produced the wrong shape, which
// is permanent for that provider.
func validateAnalysisJSON(raw json.RawMessage) error {
	analysisSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analysis.json", strings.NewReader(analysisSchemaJSON)); err != nil {
			analysisSchemaErr = fmt.Errorf("failed to load analysis schema: %w", err)
			return
		}
		analysisSchema, analysisSchemaErr = compiler.Compile("analysis.json")
	})
	if analysisSchemaErr != nil {
		return analysisSchemaErr
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode analysis JSON for validation: %w", err)
	}
	if err := analysisSchema.Validate(doc); err != nil {
		return fmt.Errorf("analysis response does not match expected shape: %w", err)
	}
	return nil
}
