package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind tags a provider-call failure with its place in the error taxonomy.
// The orchestrator's retry/fallback decisions key off the kind, never off
// message text.
type Kind string

const (
	// KindInvalidInput means caller-supplied data failed a precondition.
	// Propagated immediately; never retried, never triggers fallback.
	KindInvalidInput Kind = "invalid_input"
	// KindInvalidCredential means the provider has no usable API key or
	// the upstream rejected it (401/403).
	KindInvalidCredential Kind = "invalid_credential"
	// KindRateLimited is an upstream 429.
	KindRateLimited Kind = "rate_limited"
	// KindUpstreamServerError is an upstream 5xx or a network-level fault.
	KindUpstreamServerError Kind = "upstream_server_error"
	// KindPayloadTooLarge is an upstream 413.
	KindPayloadTooLarge Kind = "payload_too_large"
	// KindNoTextFound means OCR succeeded technically but the image has
	// no readable content.
	KindNoTextFound Kind = "no_text_found"
	// KindInvalidUpstreamResponse means the response body could not be
	// parsed into the expected shape.
	KindInvalidUpstreamResponse Kind = "invalid_upstream_response"
)

// Classification says whether retrying the same provider with the same
// input could plausibly succeed.
type Classification int

const (
	// Permanent failures fall through to the next provider without retry.
	Permanent Classification = iota
	// Transient failures are retried in place up to the attempt budget.
	Transient
)

// Error is a classified provider-call failure.
type Error struct {
	Kind     Kind
	Provider string
	Status   int // upstream HTTP status, 0 if not status-driven
	Message  string
	cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Provider != "" {
		b.WriteString(" (")
		b.WriteString(e.Provider)
		if e.Status != 0 {
			fmt.Fprintf(&b, ", status %d", e.Status)
		}
		b.WriteString(")")
	} else if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a classified error without an upstream status.
func NewError(kind Kind, provider, message string) *Error {
	return &Error{Kind: kind, Provider: provider, Message: message}
}

// WrapError builds a classified error around an underlying cause.
func WrapError(kind Kind, provider string, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Provider: provider, Message: msg, cause: cause}
}

// InvalidInput reports a caller precondition failure. No provider is
// attached because no provider was ever involved.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// FromStatus maps an upstream HTTP status code onto the taxonomy.
// Bodies are carried verbatim in the message for diagnostics.
func FromStatus(provider string, status int, body string) *Error {
	body = strings.TrimSpace(body)
	var kind Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindInvalidCredential
	case status == http.StatusRequestEntityTooLarge:
		kind = KindPayloadTooLarge
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 500:
		kind = KindUpstreamServerError
	default:
		// Remaining 4xx are client-side mistakes; retrying won't help.
		kind = KindInvalidUpstreamResponse
	}
	return &Error{Kind: kind, Provider: provider, Status: status, Message: body}
}

// Classify derives the retry classification for a provider-call failure.
// Typed errors classify by kind; anything else is a network-level fault
// (connection refused, timeout, DNS) and counts as transient.
func Classify(err error) Classification {
	var pe *Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case KindRateLimited, KindUpstreamServerError:
			return Transient
		default:
			return Permanent
		}
	}
	return Transient
}

// IsTransient is a convenience predicate over Classify, shaped for
// retry-go's RetryIf option.
func IsTransient(err error) bool {
	return Classify(err) == Transient
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

// AggregateMessage is the stable, user-visible message of the final
// failure when every candidate provider has been exhausted.
const AggregateMessage = "All AI providers failed"

// ProviderAttempt records the outcome of one provider in the fallback
// chain, for the aggregate error's diagnostic detail.
type ProviderAttempt struct {
	Provider string `json:"provider"`
	Attempts int    `json:"attempts"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Err      error  `json:"-"`
}

// AllProvidersFailedError is the aggregate failure for one logical
// request. Every per-provider failure is recorded here even though none
// of them surfaces individually.
type AllProvidersFailedError struct {
	Operation string
	Providers []ProviderAttempt
}

// Error implements the error interface with the stable aggregate message
// followed by per-provider detail.
func (e *AllProvidersFailedError) Error() string {
	var parts []string
	for _, a := range e.Providers {
		switch {
		case a.Skipped:
			parts = append(parts, fmt.Sprintf("%s: skipped (%s)", a.Provider, a.Reason))
		case a.Err != nil:
			parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
		default:
			parts = append(parts, a.Provider)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s: no providers support %s", AggregateMessage, e.Operation)
	}
	return fmt.Sprintf("%s: %s: %s", AggregateMessage, e.Operation, strings.Join(parts, "; "))
}
