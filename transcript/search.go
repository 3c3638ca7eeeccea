package transcript

import (
	"strings"

	"golang.org/x/text/cases"
)

// Searcher finds phrases in archived meetings.
type Searcher struct {
	archive Archive
}

// NewSearcher creates a searcher over archive.
func NewSearcher(archive Archive) *Searcher {
	return &Searcher{archive: archive}
}

// SearchOptions configures a search.
type SearchOptions struct {
	CaseSensitive bool
	Speaker       string
	ScriptID      string
	MaxResults    int
}

// SearchResult is one matching entry.
type SearchResult struct {
	SessionID string `json:"sessionId"`
	ScriptID  string `json:"scriptId"`
	Entry     Entry  `json:"entry"`
}

// Search returns entries containing query, newest session first.
func (s *Searcher) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	metas, err := s.archive.List(ListFilter{ScriptID: opts.ScriptID})
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := query
	if !opts.CaseSensitive {
		needle = fold.String(query)
	}

	var results []SearchResult
	for _, meta := range metas {
		m, err := s.archive.Load(meta.SessionID)
		if err != nil {
			continue
		}
		for _, e := range m.Entries {
			if opts.Speaker != "" && e.SpeakerID != opts.Speaker && !strings.EqualFold(e.SpeakerName, opts.Speaker) {
				continue
			}
			hay := e.Text
			if !opts.CaseSensitive {
				hay = fold.String(hay)
			}
			if !strings.Contains(hay, needle) {
				continue
			}
			results = append(results, SearchResult{SessionID: meta.SessionID, ScriptID: meta.ScriptID, Entry: e})
			if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
				return results, nil
			}
		}
	}
	return results, nil
}
