package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/scrumsim/auth"
	"github.com/randalmurphal/scrumsim/board"
	"github.com/randalmurphal/scrumsim/config"
	"github.com/randalmurphal/scrumsim/http"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/transcript"
)

// CLIError wraps an error with user-facing context and a suggestion.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message says what went wrong
	Message string

	// Suggestion is an actionable hint
	Suggestion string

	// Details adds context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}
	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger supplies messages and suggestions for each failure.
type ErrorMessenger interface {
	ScriptNotFoundMessage(name string) (message, suggestion string)
	InvalidScriptMessage(name string) (message, suggestion string)
	NotAuthenticatedMessage(service string) (message, suggestion string)
	PermissionDeniedMessage(service string) (message, suggestion string)
	ConnectionErrorMessage(serverURL string) (message, suggestion string)
	TLSErrorMessage(serverURL string) (message, suggestion string)
	TimeoutErrorMessage(serverURL string) (message, suggestion string)
	MeetingNotFoundMessage(sessionID string) (message, suggestion string)
	BadConfigMessage() (message, suggestion string)
}

// DefaultMessenger provides scrumsim's messages.
type DefaultMessenger struct{}

func (DefaultMessenger) ScriptNotFoundMessage(name string) (string, string) {
	return fmt.Sprintf("No meeting script named %q.", name),
		"Run 'scrumsim scripts list' to see available scripts,\nor add a directory with --scripts-dir."
}

func (DefaultMessenger) InvalidScriptMessage(name string) (string, string) {
	return fmt.Sprintf("Meeting script %q is not valid.", name),
		fmt.Sprintf("Run 'scrumsim scripts check %s' for every problem in the file.", name)
}

func (DefaultMessenger) NotAuthenticatedMessage(service string) (string, string) {
	return fmt.Sprintf("%s rejected the configured credentials.", service),
		"Check the token with 'scrumsim doctor' and update it with 'scrumsim config set'."
}

func (DefaultMessenger) PermissionDeniedMessage(service string) (string, string) {
	return fmt.Sprintf("The %s token lacks permission for this action.", service),
		"Grant the token write access to issues and labels."
}

func (DefaultMessenger) ConnectionErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Cannot connect to %s", serverURL),
		"Check that:\n  - The service is running\n  - The URL is correct\n  - Your network connection is working"
}

func (DefaultMessenger) TLSErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("TLS/certificate error connecting to %s", serverURL),
		"Check that the server certificate is valid."
}

func (DefaultMessenger) TimeoutErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Connection to %s timed out", serverURL),
		"The service may be overloaded or unreachable.\nTry again in a moment."
}

func (DefaultMessenger) MeetingNotFoundMessage(sessionID string) (string, string) {
	return fmt.Sprintf("No archived meeting %q.", sessionID),
		"Run 'scrumsim transcripts list' to see archived meetings."
}

func (DefaultMessenger) BadConfigMessage() (string, string) {
	return "The scrumsim configuration is invalid.",
		"Run 'scrumsim doctor' to see each setting and where it came from."
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

func getMessenger(opts []Option) ErrorMessenger {
	cfg := &WrapConfig{Messenger: DefaultMessenger{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg.Messenger
}

// WrapScriptError explains script lookup and validation failures.
func WrapScriptError(err error, name string, opts ...Option) error {
	if err == nil {
		return nil
	}
	m := getMessenger(opts)

	switch {
	case errors.Is(err, script.ErrScriptNotFound):
		msg, suggestion := m.ScriptNotFoundMessage(name)
		return &CLIError{Err: err, Message: msg, Suggestion: suggestion}
	case IsScriptError(err):
		msg, suggestion := m.InvalidScriptMessage(name)
		return &CLIError{Err: err, Message: msg, Details: err.Error(), Suggestion: suggestion}
	}
	return err
}

// WrapServiceError explains failures talking to the speech gateway or a
// board service.
func WrapServiceError(err error, service, serverURL string, opts ...Option) error {
	if err == nil {
		return nil
	}
	m := getMessenger(opts)

	if IsAuthError(err) {
		msg, suggestion := m.NotAuthenticatedMessage(service)
		return &CLIError{Err: errors.Join(ErrNotAuthenticated, err), Message: msg, Suggestion: suggestion}
	}
	if IsPermissionError(err) {
		msg, suggestion := m.PermissionDeniedMessage(service)
		return &CLIError{Err: errors.Join(ErrPermissionDenied, err), Message: msg, Suggestion: suggestion}
	}
	return WrapConnectionError(err, serverURL, opts...)
}

// WrapConnectionError explains network failures.
func WrapConnectionError(err error, serverURL string, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	m := getMessenger(opts)

	if containsAny(errStr, "connection refused", "no such host", "network is unreachable", "dial tcp") {
		msg, suggestion := m.ConnectionErrorMessage(serverURL)
		return &CLIError{Err: ErrConnectionFailed, Message: msg, Suggestion: suggestion}
	}
	if containsAny(errStr, "certificate", "tls", "x509") {
		msg, suggestion := m.TLSErrorMessage(serverURL)
		return &CLIError{Err: ErrConnectionFailed, Message: msg, Details: err.Error(), Suggestion: suggestion}
	}
	if containsAny(errStr, "timeout", "deadline exceeded") {
		msg, suggestion := m.TimeoutErrorMessage(serverURL)
		return &CLIError{Err: ErrConnectionFailed, Message: msg, Suggestion: suggestion}
	}
	return err
}

// WrapArchiveError explains missing archived meetings.
func WrapArchiveError(err error, sessionID string, opts ...Option) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, transcript.ErrSessionNotFound) {
		msg, suggestion := getMessenger(opts).MeetingNotFoundMessage(sessionID)
		return &CLIError{Err: err, Message: msg, Suggestion: suggestion}
	}
	return err
}

// WrapConfigError explains settings that failed to parse.
func WrapConfigError(err error, opts ...Option) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, config.ErrInvalidSetting) || errors.Is(err, config.ErrUnknownKey) {
		msg, suggestion := getMessenger(opts).BadConfigMessage()
		return &CLIError{Err: errors.Join(ErrBadConfig, err), Message: msg, Details: err.Error(), Suggestion: suggestion}
	}
	return err
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// authSentinels are domain errors meaning credentials were missing or refused.
var authSentinels = []error{
	ErrNotAuthenticated,
	http.ErrUnauthorized,
	auth.ErrInvalidToken,
	auth.ErrTokenExpired,
	auth.ErrInvalidAPIKey,
	auth.ErrNoCredentials,
	board.ErrUnauthorized,
}
