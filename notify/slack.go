package notify

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/randalmurphal/scrumsim/http"
)

// SlackNotifier posts events to a Slack incoming webhook as a short block
// message.
type SlackNotifier struct {
	client   *http.Client
	channel  string
	username string
}

// SlackOption configures a SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSlackChannel overrides the webhook's default channel.
func WithSlackChannel(channel string) SlackOption {
	return func(n *SlackNotifier) { n.channel = channel }
}

// WithSlackUsername sets the name shown on messages.
func WithSlackUsername(username string) SlackOption {
	return func(n *SlackNotifier) { n.username = username }
}

// NewSlackNotifier creates a notifier for webhookURL.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		client:   http.NewClient(http.ClientConfig{BaseURL: webhookURL, ServiceName: "slack"}),
		username: "scrumsim",
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	return n.client.PostJSON(ctx, "", n.message(event), nil)
}

func (n *SlackNotifier) message(event Event) slackMessage {
	headline := fmt.Sprintf("%s *%s*", eventEmoji(event.Type), eventTitle(event))
	body := headline
	if event.Message != "" {
		body += "\n" + event.Message
	}

	blocks := []slackBlock{{Type: "section", Text: &slackText{Type: "mrkdwn", Text: body}}}
	if fields := metadataFields(event.Metadata); len(fields) > 0 {
		blocks = append(blocks, slackBlock{Type: "section", Fields: fields})
	}
	blocks = append(blocks, slackBlock{
		Type:     "context",
		Elements: []slackText{{Type: "mrkdwn", Text: contextLine(event)}},
	})

	return slackMessage{
		Text:     eventTitle(event) + ": " + event.Message,
		Channel:  n.channel,
		Username: n.username,
		Blocks:   blocks,
	}
}

func eventEmoji(t EventType) string {
	switch t {
	case EventMeetingStarted:
		return ":studio_microphone:"
	case EventMeetingCompleted:
		return ":white_check_mark:"
	case EventMeetingCancelled:
		return ":stop_button:"
	case EventMeetingFailed:
		return ":x:"
	case EventSideEffectFailed:
		return ":warning:"
	}
	return ":loudspeaker:"
}

func eventTitle(event Event) string {
	script := event.ScriptID
	if script == "" {
		script = "meeting"
	}
	switch event.Type {
	case EventMeetingStarted:
		return script + " started"
	case EventMeetingCompleted:
		return script + " finished"
	case EventMeetingCancelled:
		return script + " was cancelled"
	case EventMeetingFailed:
		return script + " failed"
	case EventSideEffectFailed:
		return "Board update failed in " + script
	}
	return string(event.Type)
}

func contextLine(event Event) string {
	parts := []string{"session `" + event.SessionID + "`"}
	if event.SegmentID != "" {
		parts = append(parts, "turn `"+event.SegmentID+"`")
	}
	if event.Severity != "" && event.Severity != SeverityInfo {
		parts = append(parts, event.Severity)
	}
	return strings.Join(parts, " · ")
}

func metadataFields(metadata map[string]any) []slackText {
	if len(metadata) == 0 {
		return nil
	}
	fields := make([]slackText, 0, len(metadata))
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%v", k, metadata[k])})
	}
	return fields
}

type slackMessage struct {
	Text     string       `json:"text"`
	Channel  string       `json:"channel,omitempty"`
	Username string       `json:"username,omitempty"`
	Blocks   []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
