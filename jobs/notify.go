package jobs

import (
	"context"
	"log/slog"
)

// Notification is a message addressed to a single user.
type Notification struct {
	UserID  string
	Email   string
	Subject string
	Body    string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		slog.String("user_id", n.UserID),
		slog.String("email", n.Email),
		slog.String("subject", n.Subject))
	return nil
}
