// Package output formats command results for the terminal.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/randalmurphal/scrumsim"
	"github.com/randalmurphal/scrumsim/board"
	"github.com/randalmurphal/scrumsim/config"
	"github.com/randalmurphal/scrumsim/meeting"
	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) Section(title string) {
	fmt.Fprintf(f.w, "\n%s:\n", title)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

// Detail prints an indented line under a check.
func (f *Formatter) Detail(msg string) {
	fmt.Fprintf(f.w, "      - %s\n", msg)
}

// MeetingStarted prints the header of a plain playback.
func (f *Formatter) MeetingStarted(title string, segments int) {
	fmt.Fprintf(f.w, "🎬 %s (%d turns)\n\n", title, segments)
}

// Entry prints one transcript line.
func (f *Formatter) Entry(e transcript.Entry) {
	fmt.Fprintf(f.w, "[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.SpeakerName, e.Text)
}

// SideEffect prints a fired side effect under the line that triggered it.
func (f *Formatter) SideEffect(r sideeffect.Result) {
	if !r.OK() {
		fmt.Fprintf(f.w, "    ⚠️  %s failed: %s\n", r.EffectID, r.Error)
		return
	}
	if item, ok := r.Value.(board.Item); ok {
		fmt.Fprintf(f.w, "    📋 %s → %s\n", item.ID, item.Column)
		return
	}
	fmt.Fprintf(f.w, "    📋 %s\n", r.EffectID)
}

// MeetingEnded prints the closing line for report.
func (f *Formatter) MeetingEnded(report meeting.Report) {
	d := formatDuration(time.Duration(report.DurationSeconds * float64(time.Second)))
	if report.Cancelled {
		fmt.Fprintf(f.w, "\n⏹️  Meeting cancelled after %d turns (%s)\n", len(report.Transcript), d)
	} else {
		fmt.Fprintf(f.w, "\n🏁 Meeting complete: %d turns, %d board changes (%s)\n",
			len(report.Transcript), len(report.SideEffects), d)
	}
	fmt.Fprintf(f.w, "📁 Session: %s\n", report.SessionID)
}

// ScriptListItem prints one available script.
func (f *Formatter) ScriptListItem(name, title string, turns int) {
	fmt.Fprintf(f.w, "  %-20s %s (%d turns)\n", name, title, turns)
}

// Pregen prints the outcome for one utterance.
func (f *Formatter) Pregen(r scrumsim.PregenResult) {
	switch r.Status {
	case scrumsim.PregenCached:
		fmt.Fprintf(f.w, "  ⏭️  %s %s: cached\n", r.SegmentID, r.Speaker)
	case scrumsim.PregenGenerated:
		fmt.Fprintf(f.w, "  ✅ %s %s: generated\n", r.SegmentID, r.Speaker)
	default:
		fmt.Fprintf(f.w, "  ❌ %s %s: %v\n", r.SegmentID, r.Speaker, r.Err)
	}
}

// PregenSummary prints the totals of a pre-generation run.
func (f *Formatter) PregenSummary(s scrumsim.PregenSummary) {
	fmt.Fprintf(f.w, "\n%d generated, %d already cached, %d failed\n", s.Generated, s.Cached, s.Failed)
}

// ConfigValue prints a key with its value and where it came from.
func (f *Formatter) ConfigValue(key, value string, src config.Source) {
	if value == "" {
		value = "(unset)"
	}
	fmt.Fprintf(f.w, "  %-22s %-40s [%s]\n", key, value, src)
}

// SearchResult prints one transcript search hit.
func (f *Formatter) SearchResult(r transcript.SearchResult) {
	fmt.Fprintf(f.w, "%s  %-16s %s: %s\n", shortID(r.SessionID), r.ScriptID, r.Entry.SpeakerName, r.Entry.Text)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
