package providers

import "strings"

// truncationMarker is appended when text has to be hard-cut mid-sentence.
const truncationMarker = "…"

// TruncateForPrompt cuts text down to at most maxChars characters before
// it is embedded in a prompt. The cut prefers the last sentence or newline
// boundary inside the tail 20% of the budget so the model sees complete
// sentences; when no boundary lands there it hard-cuts and appends an
// ellipsis marker.
func TruncateForPrompt(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	window := runes[:maxChars]
	floor := maxChars - maxChars/5

	if cut := lastBoundary(window); cut >= floor {
		return strings.TrimRight(string(window[:cut]), " \t\n")
	}
	return string(window) + truncationMarker
}

// lastBoundary returns how many runes of window to keep so the text ends
// at the last sentence or newline boundary, or -1 when there is none.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '\n':
			return i
		case '.', '!', '?':
			if i+1 == len(window) || window[i+1] == ' ' || window[i+1] == '\n' {
				return i + 1
			}
		}
	}
	return -1
}
