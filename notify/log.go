package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes events to a slog logger at a level matching their
// severity.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	attrs := make([]slog.Attr, 0, 5)
	attrs = append(attrs,
		slog.String("event", string(event.Type)),
		slog.String("session", event.SessionID),
		slog.String("script", event.ScriptID),
	)
	if event.SegmentID != "" {
		attrs = append(attrs, slog.String("segment", event.SegmentID))
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", event.Metadata))
	}
	n.Logger.LogAttrs(ctx, severityLevel(event.Severity), event.Message, attrs...)
	return nil
}

func severityLevel(severity string) slog.Level {
	switch severity {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
