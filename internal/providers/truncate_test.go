package providers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateForPrompt(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		text := "A short document."
		if got := TruncateForPrompt(text, 100); got != text {
			t.Errorf("TruncateForPrompt() = %q, want unchanged", got)
		}
	})

	t.Run("zero budget disables truncation", func(t *testing.T) {
		text := strings.Repeat("x", 500)
		if got := TruncateForPrompt(text, 0); got != text {
			t.Error("expected text unchanged with zero budget")
		}
	})

	t.Run("cuts at sentence boundary in tail window", func(t *testing.T) {
		got := TruncateForPrompt("First sentence. Second sentence continues.", 18)
		if got != "First sentence." {
			t.Errorf("TruncateForPrompt() = %q, want %q", got, "First sentence.")
		}
	})

	t.Run("cuts at newline boundary", func(t *testing.T) {
		got := TruncateForPrompt("line one\nline two plus more", 10)
		if got != "line one" {
			t.Errorf("TruncateForPrompt() = %q, want %q", got, "line one")
		}
	})

	t.Run("hard cut appends marker when no boundary", func(t *testing.T) {
		got := TruncateForPrompt("abcdefghijklmnopqrstuvwxyz", 10)
		if got != "abcdefghij"+truncationMarker {
			t.Errorf("TruncateForPrompt() = %q", got)
		}
	})

	t.Run("early boundary is ignored", func(t *testing.T) {
		// The only sentence boundary sits outside the tail 20% of the
		// budget, so the cut falls back to a hard cut.
		got := TruncateForPrompt("Hi. "+strings.Repeat("x", 100), 50)
		if !strings.HasSuffix(got, truncationMarker) {
			t.Errorf("TruncateForPrompt() = %q, want hard cut with marker", got)
		}
	})

	t.Run("multibyte runes are not split", func(t *testing.T) {
		text := strings.Repeat("日本語のテキスト", 20)
		got := TruncateForPrompt(text, 30)
		if !utf8.ValidString(got) {
			t.Error("truncation produced invalid UTF-8")
		}
		gotRunes := []rune(strings.TrimSuffix(got, truncationMarker))
		if len(gotRunes) > 30 {
			t.Errorf("kept %d runes, budget 30", len(gotRunes))
		}
	})
}
