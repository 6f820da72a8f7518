package codeforces

import (
	"errors"
	"fmt"

	"cfstats/internal/common"
)

// TransportError is a network-level failure: the request could not be sent,
// the body could not be read, or the upstream answered a non-JSON 5xx/429.
// It is retried.
type TransportError struct {
	Method     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("codeforces %s: transport failure (HTTP %d): %v", e.Method, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("codeforces %s: transport failure: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == common.ErrServiceUnavailable }

// RateLimitError means the upstream reported "Call limit exceeded". It is
// retried.
type RateLimitError struct {
	Method  string
	Comment string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("codeforces %s: rate limited: %s", e.Method, e.Comment)
}

func (e *RateLimitError) Is(target error) bool { return target == common.ErrRateLimited }

// NotFoundError means the handle does not exist. It is never retried.
type NotFoundError struct {
	Handle  string
	Comment string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("codeforces: handle %q not found", e.Handle)
}

func (e *NotFoundError) Is(target error) bool { return target == common.ErrNotFound }

// UpstreamError is any other FAILED response or an unusable OK response. It is
// never retried.
type UpstreamError struct {
	Method     string
	StatusCode int
	Comment    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("codeforces %s: upstream error (HTTP %d): %s", e.Method, e.StatusCode, e.Comment)
}

func (e *UpstreamError) Is(target error) bool { return target == common.ErrUpstream }

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var te *TransportError
	var rl *RateLimitError
	return errors.As(err, &te) || errors.As(err, &rl)
}
