package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore archives meetings as JSON files under BaseDir/sessions.
type FileStore struct {
	baseDir string
	now     func() time.Time

	mu     sync.RWMutex
	active map[string]*Meeting
}

// StoreConfig holds configuration for the file store.
type StoreConfig struct {
	BaseDir string
}

var _ Archive = (*FileStore)(nil)

// NewFileStore creates a file-based archive.
func NewFileStore(config StoreConfig) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(config.BaseDir, "sessions"), 0o755); err != nil {
		return nil, err
	}

	return &FileStore{
		baseDir: config.BaseDir,
		now:     time.Now,
		active:  make(map[string]*Meeting),
	}, nil
}

// StartSession begins archiving a session.
func (s *FileStore) StartSession(sessionID string, meta SessionMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[sessionID]; exists {
		return ErrSessionAlreadyExists
	}

	dir := sessionDir(s.baseDir, sessionID)
	if _, err := os.Stat(dir); err == nil {
		return ErrSessionAlreadyExists
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	m := &Meeting{
		SessionID: sessionID,
		Metadata: Meta{
			SessionID:    sessionID,
			ScriptID:     meta.ScriptID,
			Title:        meta.Title,
			Kind:         meta.Kind,
			Participants: meta.Participants,
			StartedAt:    s.now(),
			Status:       StatusRunning,
		},
		Entries: make([]Entry, 0),
	}

	if err := s.writeMetadata(sessionID, &m.Metadata); err != nil {
		return err
	}

	s.active[sessionID] = m
	return nil
}

// RecordEntry appends an entry to an active session.
func (s *FileStore) RecordEntry(sessionID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.active[sessionID]
	if !ok {
		return ErrSessionNotStarted
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	m.Entries = append(m.Entries, e)
	m.Metadata.EntryCount = len(m.Entries)
	return nil
}

// RecordSideEffect records a side effect firing for an active session.
func (s *FileStore) RecordSideEffect(sessionID string, r EffectRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.active[sessionID]
	if !ok {
		return ErrSessionNotStarted
	}
	m.SideEffects = append(m.SideEffects, r)
	return nil
}

// EndSession completes a session with status.
func (s *FileStore) EndSession(sessionID string, status Status) error {
	return s.end(sessionID, status, "")
}

// EndSessionWithError completes a session as failed.
func (s *FileStore) EndSessionWithError(sessionID string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return s.end(sessionID, StatusFailed, msg)
}

func (s *FileStore) end(sessionID string, status Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.active[sessionID]
	if !ok {
		return ErrSessionNotStarted
	}

	m.Metadata.Status = status
	m.Metadata.EndedAt = s.now()
	m.Metadata.Error = errMsg

	if err := m.Save(s.baseDir); err != nil {
		return err
	}
	if err := s.writeMetadata(sessionID, &m.Metadata); err != nil {
		return err
	}

	delete(s.active, sessionID)
	return nil
}

// Load retrieves a meeting. Active sessions return a snapshot.
func (s *FileStore) Load(sessionID string) (*Meeting, error) {
	s.mu.RLock()
	if m, ok := s.active[sessionID]; ok {
		data, err := json.Marshal(m)
		s.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		var snap Meeting
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, err
		}
		return &snap, nil
	}
	s.mu.RUnlock()

	return LoadMeeting(s.baseDir, sessionID)
}

// LoadMetadata retrieves just the metadata.
func (s *FileStore) LoadMetadata(sessionID string) (*Meta, error) {
	s.mu.RLock()
	if m, ok := s.active[sessionID]; ok {
		meta := m.Metadata
		s.mu.RUnlock()
		return &meta, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(sessionDir(s.baseDir, sessionID), "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns metadata for sessions matching filter, newest first.
func (s *FileStore) List(filter ListFilter) ([]Meta, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "sessions"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []Meta
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.LoadMetadata(entry.Name())
		if err != nil {
			continue
		}

		if filter.ScriptID != "" && meta.ScriptID != filter.ScriptID {
			continue
		}
		if filter.Status != "" && meta.Status != filter.Status {
			continue
		}
		if !filter.After.IsZero() && meta.StartedAt.Before(filter.After) {
			continue
		}
		if !filter.Before.IsZero() && meta.StartedAt.After(filter.Before) {
			continue
		}

		results = append(results, *meta)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// Delete removes a session.
func (s *FileStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, sessionID)

	if err := os.RemoveAll(sessionDir(s.baseDir, sessionID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListActive returns the IDs of sessions still being recorded.
func (s *FileStore) ListActive() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BaseDir returns the base directory for the store.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

func (s *FileStore) writeMetadata(sessionID string, meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(sessionDir(s.baseDir, sessionID), "metadata.json"), data, 0o644)
}
