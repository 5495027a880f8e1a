// Package notify delivers leaderboard notifications to users. Delivery is
// best-effort and asynchronous; nothing on a score-mutation path waits for
// it.
package notify

import (
	"context"

	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/pkg/logger"
)

// Notifier sends one notification to one user.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n model.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n model.Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to the structured log. It is the
// default sink; real push delivery plugs in behind the same interface.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier constructs a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.Named("notify")}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, note model.Notification) error {
	n.log.Info(ctx, "notification",
		logger.String("id", note.ID),
		logger.String("user_id", note.UserID),
		logger.String("kind", note.Kind),
		logger.Any("payload", note.Payload))
	return nil
}
