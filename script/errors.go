package script

import "errors"

// Script errors
var (
	ErrEmptyScript          = errors.New("script has no segments")
	ErrDuplicateSegment     = errors.New("duplicate segment id")
	ErrInvalidSegment       = errors.New("invalid segment")
	ErrDuplicateParticipant = errors.New("duplicate participant id")
	ErrUnknownSpeaker       = errors.New("unknown speaker")
	ErrUnboundSideEffect    = errors.New("side effect has no binding")
	ErrScriptNotFound       = errors.New("script not found")
)
