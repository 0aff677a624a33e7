package llm

import (
	"context"
	"errors"
	"fmt"
)

// ProviderError is returned when an LLM provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int   // HTTP-like status code (401, 429, 500, etc.); 0 for transport failures
	Err      error // underlying cause, if any
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StatusCode reports the provider's HTTP-like status.
func (e *ProviderError) StatusCode() int { return e.Code }

// RateLimited reports whether the provider refused the call with 429.
func (e *ProviderError) RateLimited() bool { return e.Code == 429 }

// transportError wraps a failure that happened before a status was received.
// Context errors stay reachable through errors.Is.
func transportError(provider string, err error) *ProviderError {
	msg := "request failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	} else if errors.Is(err, context.Canceled) {
		msg = "request canceled"
	}
	return &ProviderError{Provider: provider, Message: msg + ": " + err.Error(), Err: err}
}

// statusError builds a ProviderError from a non-200 HTTP response.
func statusError(provider string, code int, body []byte) *ProviderError {
	msg := string(body)
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return &ProviderError{Provider: provider, Code: code, Message: msg}
}
