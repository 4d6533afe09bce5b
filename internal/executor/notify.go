package executor

import (
	"context"

	"github.com/vk/synnia/internal/ctxlog"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a short message for the user about a finished run.
type Notification struct {
	Level   Level
	NodeID  string
	Title   string
	Message string
}

// Notifier shows notifications, typically as toasts.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the context logger.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) {
	logger := ctxlog.FromContext(ctx)
	switch n.Level {
	case LevelError:
		logger.Error("❌ "+n.Title, "node", n.NodeID, "message", n.Message)
	default:
		logger.Info("✅ "+n.Title, "node", n.NodeID, "message", n.Message)
	}
}
