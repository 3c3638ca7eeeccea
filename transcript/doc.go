// Package transcript records what was said in a meeting.
//
// Core types:
//   - Entry: one spoken turn, keyed by its segment ID
//   - Recorder: the live, append-only log for a session
//   - Meeting: an archived session with metadata and entries
//   - Archive: interface for meeting archive lifecycle
//   - FileStore: file-based archive implementation
//   - Searcher: phrase search across archived meetings
//   - Viewer: transcript display and export
//
// Example usage:
//
//	rec := transcript.NewRecorder()
//	rec.Begin()
//	_, _ = rec.Append(transcript.Entry{ID: "r01", SpeakerID: "sarah", SpeakerName: "Sarah", Text: "Morning!"})
//	entries := rec.All()
//	rec.End()
//
//	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: dataDir})
//	err = store.StartSession("session-1", transcript.SessionMetadata{ScriptID: "refinement"})
//	err = store.RecordEntry("session-1", entries[0])
//	err = store.EndSession("session-1", transcript.StatusCompleted)
package transcript
