// Package notify delivers meeting lifecycle events.
//
// A Notifier receives an Event when a meeting starts, completes, is
// cancelled or fails, and when a board side effect returns an error.
//
// Implementations:
//   - SlackNotifier: posts a block message to a Slack incoming webhook
//   - WebhookNotifier: posts the event in a JSON envelope to any URL
//   - LogNotifier: logs through slog
//   - MultiNotifier: fans out to several notifiers
//   - NopNotifier: discards events
//
// Only wraps a notifier so it sees a subset of event types. Slack and webhook
// delivery retry rate limits and server errors through the http package.
//
// Example usage:
//
//	notifier := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(logger),
//	    notify.NewSlackNotifier(webhookURL, notify.WithSlackChannel("#standup")),
//	)
//	err := notifier.Notify(ctx, notify.Event{
//	    Type:    notify.EventMeetingCompleted,
//	    Message: "Refinement finished",
//	})
package notify
