package transcript

import "time"

// Archive stores finished and in-progress meetings.
type Archive interface {
	// Lifecycle
	StartSession(sessionID string, meta SessionMetadata) error
	RecordEntry(sessionID string, e Entry) error
	RecordSideEffect(sessionID string, r EffectRecord) error
	EndSession(sessionID string, status Status) error
	EndSessionWithError(sessionID string, err error) error

	// Retrieval
	Load(sessionID string) (*Meeting, error)
	LoadMetadata(sessionID string) (*Meta, error)
	List(filter ListFilter) ([]Meta, error)

	// Maintenance
	Delete(sessionID string) error
}

// ListFilter filters archive listing.
type ListFilter struct {
	ScriptID string
	Status   Status
	After    time.Time
	Before   time.Time
	Limit    int
}
