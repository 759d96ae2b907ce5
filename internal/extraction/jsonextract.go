package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// A jsonStrategy pulls a JSON candidate out of free-form model text.
// Strategies return "" when they don't apply; each is pure and
// independently testable.
type jsonStrategy func(string) string

// jsonStrategies are tried in order: a direct parse of the trimmed text,
// the body of a markdown code fence, then a brace-balanced scan for an
// embedded object or array.
var jsonStrategies = []jsonStrategy{
	rawCandidate,
	fencedCandidate,
	balancedCandidate,
}

// ExtractJSON finds and parses the first valid JSON document in content.
// Returns the re-marshaled canonical bytes so downstream consumers never
// see surrounding prose or fences.
func ExtractJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty content")
	}

	seen := make(map[string]struct{}, len(jsonStrategies))
	for _, strategy := range jsonStrategies {
		candidate := strings.TrimSpace(strategy(content))
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize extracted JSON: %w", err)
		}
		return normalized, nil
	}

	return nil, fmt.Errorf("no valid JSON found in content")
}

// rawCandidate is the trivial strategy: the content itself.
func rawCandidate(content string) string {
	return content
}

// fencedCandidate returns the body of a leading markdown code fence,
// tolerating a language tag (```json) and a missing closing fence.
func fencedCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// balancedCandidate scans for the first '{' or '[' and returns the
// substring through its matching close, honoring string literals and
// escapes. Catches JSON embedded in explanatory prose.
func balancedCandidate(content string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(content); i++ {
		if content[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if content[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// string contents are opaque
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

// StripCodeFences removes a wrapping markdown code fence from text,
// returning the trimmed body. Text without a fence is just trimmed.
func StripCodeFences(content string) string {
	if body := fencedCandidate(content); body != "" {
		return body
	}
	trimmed := strings.TrimSpace(content)
	// A fence wrapping empty content still counts as fenced.
	if strings.HasPrefix(trimmed, "```") {
		return ""
	}
	return trimmed
}
