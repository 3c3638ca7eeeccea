package http

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by APIError.Unwrap.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("permission denied")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrBadRequest   = errors.New("bad request")
	ErrServerError  = errors.New("server error")
)

// APIError is a non-2xx response from a remote service.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Endpoint   string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("status %d", e.StatusCode)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s API error (%d) at %s [%s]: %s",
			e.Service, e.StatusCode, e.Endpoint, e.RequestID, msg)
	}
	return fmt.Sprintf("%s API error (%d) at %s: %s",
		e.Service, e.StatusCode, e.Endpoint, msg)
}

// Unwrap returns the sentinel for the status code.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	default:
		if e.StatusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// AuthError means credentials could not be attached to a request.
type AuthError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.Service, e.Reason)
}

// Unwrap returns ErrUnauthorized.
func (e *AuthError) Unwrap() error {
	return ErrUnauthorized
}

// IsRetryable reports whether the error is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerError)
}
