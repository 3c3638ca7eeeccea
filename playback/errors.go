package playback

import "errors"

var (
	// ErrStartFailed wraps a player failure to start a stream.
	ErrStartFailed = errors.New("playback failed to start")

	// ErrStopped is returned by Play when the handle was stopped before it
	// finished.
	ErrStopped = errors.New("playback stopped")

	// ErrUnknownHandle indicates a handle not issued by this controller.
	ErrUnknownHandle = errors.New("handle not issued by this controller")

	// ErrHandleClosed indicates a handle that already played or was stopped.
	ErrHandleClosed = errors.New("handle already closed")

	// ErrPauseUnsupported indicates the player cannot pause in place.
	ErrPauseUnsupported = errors.New("pause not supported by player")

	// ErrNoAudio indicates a clip with nothing to play.
	ErrNoAudio = errors.New("clip has no audio")
)
