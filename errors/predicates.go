package errors

import (
	"errors"
	"strings"

	"github.com/randalmurphal/scrumsim/board"
	"github.com/randalmurphal/scrumsim/http"
	"github.com/randalmurphal/scrumsim/script"
)

// IsAuthError reports whether err means credentials were missing or refused.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range authSentinels {
		if errors.Is(err, target) {
			return true
		}
	}
	return containsAny(strings.ToLower(err.Error()), "unauthenticated", "unauthorized", "401")
}

// IsPermissionError reports whether err means the credentials lack scope.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, http.ErrForbidden) || errors.Is(err, board.ErrForbidden) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()), "forbidden", "403")
}

// IsConnectionError reports whether err is a network failure, including TLS
// errors and timeouts.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionFailed) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()),
		"connection refused", "no such host", "network is unreachable", "dial tcp",
		"certificate", "tls", "x509",
		"timeout", "deadline exceeded")
}

// IsScriptError reports whether err is a script integrity problem.
func IsScriptError(err error) bool {
	for _, target := range []error{
		script.ErrEmptyScript,
		script.ErrDuplicateSegment,
		script.ErrInvalidSegment,
		script.ErrDuplicateParticipant,
		script.ErrUnknownSpeaker,
		script.ErrUnboundSideEffect,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
