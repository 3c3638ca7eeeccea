package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates a request missing its speaker or text.
	ErrInvalidRequest = errors.New("invalid audio request")

	// ErrProviderUnavailable indicates a provider is not configured or its
	// backing tool is missing.
	ErrProviderUnavailable = errors.New("audio provider unavailable")

	// ErrEmptyAudio indicates a provider produced no audio bytes.
	ErrEmptyAudio = errors.New("provider returned empty audio")

	// ErrUnsupportedFormat indicates audio in a format that cannot be measured.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// ProviderError records a failed provider attempt.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("audio provider %s: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
