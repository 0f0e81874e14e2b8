package infrastructure

import (
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/domain"
)

// NotificationService posts desktop notifications for job lifecycle
// events. It satisfies the scheduler's Notifier interface.
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NotificationService) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}
	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NotificationService) sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}
	return nil
}

// NotifyJobStarted sends a notification when a job begins running
func (n *NotificationService) NotifyJobStarted(job *domain.Job) {
	n.Send("Download Started", jobLabel(job))
}

// NotifyJobFinished sends a notification when a job reaches a terminal state
func (n *NotificationService) NotifyJobFinished(job *domain.Job) {
	switch job.Status {
	case domain.StatusSucceeded:
		n.Send("Download Completed", jobLabel(job))
	case domain.StatusFailed:
		n.Send("Download Failed", jobLabel(job))
	case domain.StatusCancelled:
		n.Send("Download Cancelled", jobLabel(job))
	}
}

// jobLabel prefers the title over the raw URL when one is known
func jobLabel(job *domain.Job) string {
	if job.Spec.Title != "" {
		return truncateString(job.Spec.Title, 60)
	}
	return truncateString(job.Spec.URL, 60)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
