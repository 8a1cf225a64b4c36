package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// DesktopSender shows notifications through the OS notification daemon.
type DesktopSender struct {
	appName string
	icon    string
	notify  func(title, message string, icon any) error
	logger  *slog.Logger
}

func NewDesktopSender(appName, icon string, logger *slog.Logger) *DesktopSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications.desktop")
	}
	if strings.TrimSpace(appName) != "" {
		beeep.AppName = appName
	}

	return &DesktopSender{
		appName: appName,
		icon:    icon,
		notify:  beeep.Notify,
		logger:  logger,
	}
}

func (s *DesktopSender) Send(payload Payload) {
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		title = s.appName
	}
	var icon any
	if s.icon != "" {
		icon = s.icon
	}
	if err := s.notify(title, strings.TrimSpace(payload.Content), icon); err != nil {
		s.logger.Warn("desktop notification failed", "title", title, "error", err)
	}
}
