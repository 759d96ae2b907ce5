package providers

import (
	"strings"
)

// DataURI is a parsed `data:<mime>;base64,<payload>` image reference.
type DataURI struct {
	MIME    string
	Payload string // base64-encoded bytes, not decoded here
}

// ParseDataURI validates and splits a data URI. Validation happens before
// any network call so malformed input fails fast with an invalid-input
// error instead of burning a provider attempt.
func ParseDataURI(s string) (*DataURI, error) {
	const prefix = "data:"
	if !strings.HasPrefix(s, prefix) {
		return nil, InvalidInput("image must be a data URI (data:<mime>;base64,<payload>)")
	}
	meta, payload, ok := strings.Cut(s[len(prefix):], ",")
	if !ok {
		return nil, InvalidInput("data URI has no payload separator")
	}
	if strings.TrimSpace(payload) == "" {
		return nil, InvalidInput("data URI payload is empty")
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || !strings.EqualFold(strings.TrimSpace(enc), "base64") {
		return nil, InvalidInput("data URI must be base64 encoded")
	}
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = "image/png"
	}
	return &DataURI{MIME: mime, Payload: payload}, nil
}
