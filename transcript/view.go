package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Viewer displays meetings.
type Viewer struct {
	colorEnabled bool
	header       lipgloss.Style
	speaker      lipgloss.Style
	dim          lipgloss.Style
}

// NewViewer creates a viewer. Color styles speaker names and headers.
func NewViewer(colorEnabled bool) *Viewer {
	v := &Viewer{colorEnabled: colorEnabled}
	if colorEnabled {
		v.header = lipgloss.NewStyle().Bold(true)
		v.speaker = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
		v.dim = lipgloss.NewStyle().Faint(true)
	}
	return v
}

func (v *Viewer) style(s lipgloss.Style, text string) string {
	if !v.colorEnabled {
		return text
	}
	return s.Render(text)
}

// ViewFull displays the complete meeting.
func (v *Viewer) ViewFull(w io.Writer, m *Meeting) error {
	v.writeHeader(w, m)

	fmt.Fprintln(w)
	for _, e := range m.Entries {
		v.writeEntry(w, e)
	}

	if len(m.SideEffects) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, v.style(v.header, "Board changes:"))
		for _, r := range m.SideEffects {
			status := "ok"
			if r.Error != "" {
				status = "failed: " + r.Error
			}
			fmt.Fprintf(w, "  %s (after %s) %s\n", r.EffectID, r.SegmentID, status)
		}
	}
	return nil
}

// ViewSummary displays the header and one line per entry.
func (v *Viewer) ViewSummary(w io.Writer, m *Meeting) error {
	v.writeHeader(w, m)

	fmt.Fprintln(w, "\nEntries:")
	for _, e := range m.Entries {
		preview := strings.ReplaceAll(e.Text, "\n", " ")
		fmt.Fprintf(w, "  [%s] %s: %s\n", e.ID, e.SpeakerName, truncate(preview, 80))
	}
	return nil
}

func (v *Viewer) writeHeader(w io.Writer, m *Meeting) {
	sep := strings.Repeat("=", 60)

	fmt.Fprintln(w, sep)
	title := m.Metadata.Title
	if title == "" {
		title = m.Metadata.ScriptID
	}
	fmt.Fprintln(w, v.style(v.header, "Meeting: "+title))
	fmt.Fprintf(w, "Session: %s | Status: %s\n", m.SessionID, m.Metadata.Status)
	fmt.Fprintf(w, "Started: %s | Duration: %s\n",
		m.Metadata.StartedAt.Format("2006-01-02 15:04:05"),
		m.Duration().Round(time.Second))
	fmt.Fprintf(w, "Entries: %d | Speakers: %s\n", len(m.Entries), strings.Join(m.Speakers(), ", "))
	if m.Metadata.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", m.Metadata.Error)
	}
	fmt.Fprintln(w, sep)
}

func (v *Viewer) writeEntry(w io.Writer, e Entry) {
	fmt.Fprintf(w, "%s %s: %s\n",
		v.style(v.dim, e.Timestamp.Format("15:04:05")),
		v.style(v.speaker, e.SpeakerName),
		e.Text)
}

// ExportMarkdown exports the meeting as Markdown.
func (v *Viewer) ExportMarkdown(w io.Writer, m *Meeting) error {
	title := m.Metadata.Title
	if title == "" {
		title = m.Metadata.ScriptID
	}
	fmt.Fprintf(w, "# %s\n\n", title)

	fmt.Fprintf(w, "| Field | Value |\n")
	fmt.Fprintf(w, "|-------|-------|\n")
	fmt.Fprintf(w, "| Session | %s |\n", m.SessionID)
	fmt.Fprintf(w, "| Script | %s |\n", m.Metadata.ScriptID)
	fmt.Fprintf(w, "| Status | %s |\n", m.Metadata.Status)
	fmt.Fprintf(w, "| Started | %s |\n", m.Metadata.StartedAt.Format(time.RFC3339))
	if !m.Metadata.EndedAt.IsZero() {
		fmt.Fprintf(w, "| Ended | %s |\n", m.Metadata.EndedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "| Duration | %s |\n", m.Duration().Round(time.Second))
	if m.Metadata.Error != "" {
		fmt.Fprintf(w, "| Error | %s |\n", m.Metadata.Error)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "## Transcript\n\n")
	for _, e := range m.Entries {
		fmt.Fprintf(w, "**%s** (%s): %s\n\n", e.SpeakerName, e.Timestamp.Format("15:04:05"), e.Text)
	}

	if len(m.SideEffects) > 0 {
		fmt.Fprintf(w, "## Board Changes\n\n")
		for _, r := range m.SideEffects {
			if r.Error != "" {
				fmt.Fprintf(w, "- `%s` after `%s`: failed (%s)\n", r.EffectID, r.SegmentID, r.Error)
				continue
			}
			fmt.Fprintf(w, "- `%s` after `%s`\n", r.EffectID, r.SegmentID)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// ExportJSON exports the meeting as indented JSON.
func (v *Viewer) ExportJSON(w io.Writer, m *Meeting) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(m)
}

// FormatMetaList formats archived sessions as a table.
func (v *Viewer) FormatMetaList(w io.Writer, metas []Meta) error {
	if len(metas) == 0 {
		fmt.Fprintln(w, "No meetings found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-18s %-10s %-17s %7s\n", "SESSION", "SCRIPT", "STATUS", "STARTED", "ENTRIES")
	fmt.Fprintln(w, strings.Repeat("-", 92))

	for _, m := range metas {
		fmt.Fprintf(w, "%-36s %-18s %-10s %-17s %7d\n",
			truncate(m.SessionID, 36),
			truncate(m.ScriptID, 18),
			m.Status,
			m.StartedAt.Format("2006-01-02 15:04"),
			m.EntryCount)
	}

	fmt.Fprintf(w, "\nTotal: %d meetings\n", len(metas))
	return nil
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
