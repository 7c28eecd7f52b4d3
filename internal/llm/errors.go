package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyResponse    = errors.New("llm: empty response from model")
	ErrMissingAPIKey    = errors.New("llm: API key is not set")
	ErrUnknownProvider  = errors.New("llm: unknown provider")
	ErrClientNotStarted = errors.New("llm: client is not initialised")
)

// ErrorKind buckets provider failures.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindNetwork   ErrorKind = "network"
	KindRateLimit ErrorKind = "rate_limit"
	KindMalformed ErrorKind = "malformed"
	KindUnknown   ErrorKind = "unknown"
)

// APIError is a failed model call. Generation records it as a failed result;
// it never aborts a run.
type APIError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed later.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindRateLimit, KindUnknown:
		return true
	}
	return false
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pErr *PermanentError
	if errors.As(err, &pErr) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// Classify wraps a provider error as *APIError using its status code when
// known, otherwise the message text.
func Classify(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	kind := kindFromStatus(status)
	if kind == KindUnknown {
		kind = kindFromMessage(err)
	}
	return &APIError{Kind: kind, Provider: provider, Err: err}
}

// Malformed wraps err as a malformed-response APIError.
func Malformed(provider string, err error) error {
	return &APIError{Kind: KindMalformed, Provider: provider, Err: err}
}

func kindFromStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	case status == 408 || status >= 500:
		return KindNetwork
	case status >= 400:
		return KindMalformed
	}
	return KindUnknown
}

func kindFromMessage(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	if errors.Is(err, ErrEmptyResponse) {
		return KindMalformed
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "403", "unauthenticated", "permission_denied", "api key", "api_key", "invalid x-api-key"):
		return KindAuth
	case containsAny(msg, "429", "resource_exhausted", "quota", "rate limit", "rate_limit", "overloaded"):
		return KindRateLimit
	case containsAny(msg, "timeout", "deadline", "connection", "no such host", "eof", "unavailable", "500", "502", "503", "504"):
		return KindNetwork
	case containsAny(msg, "invalid_argument", "malformed", "unmarshal", "400"):
		return KindMalformed
	}
	return KindUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
