// Package notify presents local notifications. Delivery is best-effort:
// callers never wait on it and never see its failures.
package notify

import (
	"context"
	"log/slog"
)

// Notifier is the local notification presentation service.
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}

// SlogNotifier logs notifications instead of presenting them. Used when
// the process runs without a platform notification service attached.
type SlogNotifier struct {
	log *slog.Logger
}

// NewSlogNotifier constructs a logging notifier.
func NewSlogNotifier(log *slog.Logger) *SlogNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &SlogNotifier{log: log}
}

// Notify writes the notification to the log.
func (n *SlogNotifier) Notify(ctx context.Context, title, body string) {
	n.log.Info("notification",
		slog.String("title", title),
		slog.String("body", body),
	)
}

// Detach fires the notification in a detached goroutine. Panics are
// swallowed and logged; the caller's flow must never depend on delivery.
func Detach(log *slog.Logger, notifier Notifier, title, body string) {
	if notifier == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil && log != nil {
				log.Warn("notification delivery panicked", slog.Any("panic", r))
			}
		}()

		notifier.Notify(context.Background(), title, body)
	}()
}
