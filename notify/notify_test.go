package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder is an httptest handler that keeps request bodies.
type recorder struct {
	mu       sync.Mutex
	bodies   [][]byte
	headers  []http.Header
	statuses []int
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.bodies = append(rec.bodies, body)
	rec.headers = append(rec.headers, r.Header.Clone())
	status := http.StatusOK
	if n := len(rec.bodies) - 1; n < len(rec.statuses) {
		status = rec.statuses[n]
	}
	w.WriteHeader(status)
}

func (rec *recorder) requests() ([][]byte, []http.Header) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.bodies, rec.headers
}

func newRecorder(t *testing.T, statuses ...int) (*recorder, string) {
	t.Helper()
	rec := &recorder{statuses: statuses}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return rec, srv.URL
}

func TestEvent_Failed(t *testing.T) {
	tests := []struct {
		typ  EventType
		want bool
	}{
		{EventMeetingStarted, false},
		{EventMeetingCompleted, false},
		{EventMeetingCancelled, false},
		{EventMeetingFailed, true},
		{EventSideEffectFailed, true},
	}
	for _, tt := range tests {
		if got := (Event{Type: tt.typ}).Failed(); got != tt.want {
			t.Errorf("Event{%s}.Failed() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	err := n.Notify(context.Background(), Event{
		Type:      EventSideEffectFailed,
		SessionID: "sess-123",
		ScriptID:  "refinement",
		SegmentID: "r07",
		Message:   "board move failed",
		Severity:  SeverityWarning,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Errorf("Notify() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"board move failed", "event=side_effect_failed", "session=sess-123", "segment=r07", "level=WARN"} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q: %s", want, output)
		}
	}
}

func TestLogNotifier_Severity(t *testing.T) {
	tests := []struct {
		severity string
		wantLog  string
	}{
		{"", "level=INFO"},
		{SeverityInfo, "level=INFO"},
		{SeverityWarning, "level=WARN"},
		{SeverityError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLog+tt.severity, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

			_ = n.Notify(context.Background(), Event{Type: EventMeetingStarted, Message: "test", Severity: tt.severity})
			if !strings.Contains(buf.String(), tt.wantLog) {
				t.Errorf("log output = %q, want %q", buf.String(), tt.wantLog)
			}
		})
	}

	if NewLogNotifier(nil).Logger == nil {
		t.Error("NewLogNotifier(nil) should fall back to the default logger")
	}
}

func TestWebhookNotifier(t *testing.T) {
	rec, url := newRecorder(t)
	n := NewWebhookNotifier(url, map[string]string{"Authorization": "Bearer hook-token"})

	err := n.Notify(context.Background(), Event{
		Type:      EventMeetingCompleted,
		SessionID: "sess-123",
		ScriptID:  "sprint-planning",
		Message:   "Meeting completed",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	bodies, headers := rec.requests()
	if len(bodies) != 1 {
		t.Fatalf("requests = %d, want 1", len(bodies))
	}
	if ct := headers[0].Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if auth := headers[0].Get("Authorization"); auth != "Bearer hook-token" {
		t.Errorf("Authorization = %q", auth)
	}

	var payload WebhookPayload
	if err := json.Unmarshal(bodies[0], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Source != WebhookSource {
		t.Errorf("Source = %q, want %q", payload.Source, WebhookSource)
	}
	if payload.Event.SessionID != "sess-123" || payload.Event.Type != EventMeetingCompleted {
		t.Errorf("Event = %+v", payload.Event)
	}
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	rec, url := newRecorder(t, http.StatusServiceUnavailable)

	if err := NewWebhookNotifier(url, nil).Notify(context.Background(), Event{Type: EventMeetingStarted}); err != nil {
		t.Fatalf("Notify() error = %v, want success after retry", err)
	}
	if bodies, _ := rec.requests(); len(bodies) != 2 {
		t.Errorf("requests = %d, want 2", len(bodies))
	}
}

func TestWebhookNotifier_Errors(t *testing.T) {
	_, url := newRecorder(t, http.StatusBadRequest)
	if err := NewWebhookNotifier(url, nil).Notify(context.Background(), Event{Type: EventMeetingStarted}); err == nil {
		t.Error("Notify() should fail on a 400 response")
	}

	if err := NewWebhookNotifier("http://localhost:99999", nil).Notify(context.Background(), Event{}); err == nil {
		t.Error("Notify() should fail when the endpoint is unreachable")
	}
}

func TestSlackNotifier(t *testing.T) {
	rec, url := newRecorder(t)
	n := NewSlackNotifier(url, WithSlackChannel("#standup"), WithSlackUsername("testbot"))

	err := n.Notify(context.Background(), Event{
		Type:      EventMeetingCancelled,
		SessionID: "sess-123",
		ScriptID:  "refinement",
		Message:   "Cancelled after 4 turns",
		Metadata:  map[string]any{"turns": 4, "duration": "42s"},
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	bodies, _ := rec.requests()
	var msg slackMessage
	if err := json.Unmarshal(bodies[0], &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.Channel != "#standup" || msg.Username != "testbot" {
		t.Errorf("channel/username = %q/%q", msg.Channel, msg.Username)
	}
	if msg.Text != "refinement was cancelled: Cancelled after 4 turns" {
		t.Errorf("Text = %q", msg.Text)
	}
	if len(msg.Blocks) != 3 {
		t.Fatalf("Blocks = %d, want section, fields and context", len(msg.Blocks))
	}
	if !strings.HasPrefix(msg.Blocks[0].Text.Text, ":stop_button: *refinement was cancelled*") {
		t.Errorf("headline = %q", msg.Blocks[0].Text.Text)
	}
	if f := msg.Blocks[1].Fields; len(f) != 2 || !strings.HasPrefix(f[0].Text, "*duration*") {
		t.Errorf("Fields = %+v, want sorted metadata", f)
	}
	if ctx := msg.Blocks[2].Elements[0].Text; ctx != "session `sess-123`" {
		t.Errorf("context = %q", ctx)
	}
}

func TestSlackNotifier_Message(t *testing.T) {
	n := NewSlackNotifier("http://unused")

	tests := []struct {
		event        Event
		wantHeadline string
		wantContext  string
	}{
		{Event{Type: EventMeetingStarted, ScriptID: "daily"}, ":studio_microphone: *daily started*", "session ``"},
		{Event{Type: EventMeetingCompleted}, ":white_check_mark: *meeting finished*", "session ``"},
		{Event{Type: EventMeetingFailed, ScriptID: "daily", SessionID: "s1", Severity: SeverityError}, ":x: *daily failed*", "session `s1` · error"},
		{Event{Type: EventSideEffectFailed, ScriptID: "daily", SessionID: "s1", SegmentID: "t4", Severity: SeverityWarning}, ":warning: *Board update failed in daily*", "session `s1` · turn `t4` · warning"},
		{Event{Type: "other"}, ":loudspeaker: *other*", "session ``"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type), func(t *testing.T) {
			msg := n.message(tt.event)
			if got := msg.Blocks[0].Text.Text; got != tt.wantHeadline {
				t.Errorf("headline = %q, want %q", got, tt.wantHeadline)
			}
			last := msg.Blocks[len(msg.Blocks)-1]
			if got := last.Elements[0].Text; got != tt.wantContext {
				t.Errorf("context = %q, want %q", got, tt.wantContext)
			}
		})
	}
}

func TestMultiNotifier(t *testing.T) {
	var calls []string
	multi := NewMultiNotifier(record("n1", &calls, nil), record("n2", &calls, nil))

	if err := multi.Notify(context.Background(), Event{Type: EventMeetingStarted}); err != nil {
		t.Errorf("Notify() error = %v", err)
	}
	if strings.Join(calls, ",") != "n1,n2" {
		t.Errorf("calls = %v, want [n1 n2]", calls)
	}
}

func TestMultiNotifier_JoinsErrors(t *testing.T) {
	var calls []string
	var logBuf bytes.Buffer
	errSlack := errors.New("slack down")

	multi := NewMultiNotifier(
		record("n1", &calls, context.DeadlineExceeded),
		record("n2", &calls, nil),
		record("n3", &calls, errSlack),
	)
	multi.Logger = slog.New(slog.NewTextHandler(&logBuf, nil))

	err := multi.Notify(context.Background(), Event{Type: EventMeetingStarted})
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, errSlack) {
		t.Errorf("Notify() error = %v, want both failures", err)
	}
	if len(calls) != 3 {
		t.Errorf("calls = %d, want 3", len(calls))
	}
	if strings.Count(logBuf.String(), "notifier failed") != 2 {
		t.Errorf("want two warnings, got %q", logBuf.String())
	}
}

func TestOnly(t *testing.T) {
	var calls []string
	n := Only(record("failures", &calls, nil), EventMeetingFailed, EventSideEffectFailed)

	for _, typ := range []EventType{EventMeetingStarted, EventSideEffectFailed, EventMeetingCompleted, EventMeetingFailed} {
		if err := n.Notify(context.Background(), Event{Type: typ}); err != nil {
			t.Errorf("Notify(%s) error = %v", typ, err)
		}
	}
	if len(calls) != 2 {
		t.Errorf("forwarded %d events, want 2", len(calls))
	}

	if err := (NopNotifier{}).Notify(context.Background(), Event{}); err != nil {
		t.Errorf("NopNotifier error = %v", err)
	}
}

func record(name string, calls *[]string, err error) Notifier {
	return NotifierFunc(func(context.Context, Event) error {
		*calls = append(*calls, name)
		return err
	})
}
