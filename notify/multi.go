package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// MultiNotifier delivers each event to every notifier in order. A failing
// notifier does not stop the ones after it.
type MultiNotifier struct {
	Notifiers []Notifier
	Logger    *slog.Logger
}

// NewMultiNotifier creates a fan-out over notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{Notifiers: notifiers, Logger: slog.Default()}
}

// Notify implements Notifier. The returned error joins every failure.
func (m *MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for i, n := range m.Notifiers {
		err := n.Notify(ctx, event)
		if err == nil {
			continue
		}
		errs = append(errs, fmt.Errorf("notifier %d (%T): %w", i, n, err))
		if m.Logger != nil {
			m.Logger.Warn("notifier failed", "notifier", fmt.Sprintf("%T", n), "event", event.Type, "session", event.SessionID, "error", err)
		}
	}
	return errors.Join(errs...)
}
