package provider

import "fmt"

// Kind is the module-wide error taxonomy (§7). Every package that surfaces
// provider-originated failures wraps them in an *Error carrying one of
// these values rather than inventing package-local sentinel errors.
type Kind string

const (
	KindAuth           Kind = "auth"
	KindRateLimit      Kind = "rate_limit"
	KindNetwork        Kind = "network"
	KindStreaming      Kind = "streaming"
	KindProvider       Kind = "provider"
	KindInvalidRequest Kind = "invalid_request"
	KindSession        Kind = "session"
	KindWidget         Kind = "widget"
	KindPatch          Kind = "patch"
	KindInternal       Kind = "internal"
)

// Error is the module's typed error: a Kind plus a human-readable message
// and, for provider-attributed failures, the originating provider name.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// AuthError reports a rejected credential.
func AuthError(message string) *Error { return &Error{Kind: KindAuth, Message: message} }

// RateLimitError reports an upstream backoff hint.
func RateLimitError(message string) *Error { return &Error{Kind: KindRateLimit, Message: message} }

// NetworkError reports a transport-level failure.
func NetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), Cause: err}
}

// StreamingError reports a mid-stream transport or parse failure.
func StreamingError(message string) *Error { return &Error{Kind: KindStreaming, Message: message} }

// ProviderError reports a non-fatal structured error from a named provider.
func ProviderError(provider, message string) *Error {
	return &Error{Kind: KindProvider, Provider: provider, Message: message}
}

// InvalidRequestError reports a request field unsupported by the provider.
func InvalidRequestError(message string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message}
}

// InternalError reports an invariant violation.
func InternalError(message string) *Error { return &Error{Kind: KindInternal, Message: message} }

// PatchError reports a failure parsing or applying an apply_patch payload.
func PatchError(message string) *Error { return &Error{Kind: KindPatch, Message: message} }
