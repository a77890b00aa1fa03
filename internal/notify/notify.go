// Package notify delivers "task resurfaced" alerts: an in-process toast log,
// a desktop notification and browser web push.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Notification is one user-facing alert.
type Notification struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Notifier delivers a notification. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Nop discards notifications.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, Notification) error { return nil }

// Toast logs the notification; it is the in-panel toast of a headless run.
type Toast struct {
	Logger *slog.Logger
}

// Notify logs n at info level.
func (t Toast) Notify(_ context.Context, n Notification) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(n.Title, "task_id", n.TaskID, "preview", n.Body)
	return nil
}

// Multi fans a notification out to every notifier. All are attempted; the
// errors are joined.
type Multi []Notifier

// Notify delivers n to each notifier in order.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
