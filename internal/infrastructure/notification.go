package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/soundclip-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending desktop notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if n.config == nil || !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.run("osascript", "-e", osascriptCommand(title, message, n.config.Sound))
	case "notify-send":
		return n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

func (n *NotificationService) run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", name),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent", zap.String("method", name))
	return nil
}

// osascriptCommand builds an AppleScript display notification statement
func osascriptCommand(title, message string, sound bool) string {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, appleScriptEscape(message), appleScriptEscape(title))
	if sound {
		script += ` sound name "Glass"`
	}
	return script
}

func appleScriptEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// NotifyJobFinished announces the terminal outcome of a download job
func (n *NotificationService) NotifyJobFinished(url string, outcome domain.TerminalOutcome) {
	var title, message string
	switch outcome.Kind {
	case domain.OutcomeSuccess:
		title = "Download Completed"
		message = fmt.Sprintf("Saved audio from %s", truncateString(url, 40))
	case domain.OutcomeCancelled:
		title = "Download Cancelled"
		message = truncateString(url, 40)
	default:
		title = "Download Failed"
		message = fmt.Sprintf("%s (exit code %d)", truncateString(url, 40), outcome.ExitCode)
	}
	n.Send(title, message)
}

// NotifyToolInstalled announces a finished yt-dlp update or ffmpeg install
func (n *NotificationService) NotifyToolInstalled(tool, version string) {
	message := fmt.Sprintf("%s is ready", tool)
	if version != "" {
		message = fmt.Sprintf("%s %s is ready", tool, version)
	}
	n.Send("Update Installed", message)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
