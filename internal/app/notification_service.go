package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/connectors"
	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/notifications"
)

const (
	notificationTitleCarrierChanged  = "Carrier changed"
	notificationTitleServiceLost     = "No service"
	notificationTitleServiceRestored = "Service restored"
)

// NotificationService listens to bus events and emits user-facing notifications.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	sender        notifications.Sender
	logger        *slog.Logger

	servingMu    sync.Mutex
	lastServing  string
	servingKnown bool

	connStatusMu  sync.Mutex
	lastConnState map[string]connectors.ConnectionState
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		sender:        sender,
		logger:        logger,
		lastConnState: make(map[string]connectors.ConnectionState),
	}
}

func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	snapshotSub := s.bus.Subscribe(connectors.TopicSignalSnapshot)
	connSub := s.bus.Subscribe(connectors.TopicConnStatus)

	go func() {
		defer s.bus.Unsubscribe(snapshotSub, connectors.TopicSignalSnapshot)
		defer s.bus.Unsubscribe(connSub, connectors.TopicConnStatus)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-snapshotSub:
				if !ok {
					return
				}
				state, ok := raw.(SignalState)
				if !ok {
					continue
				}
				s.handleSnapshot(state)
			case raw, ok := <-connSub:
				if !ok {
					return
				}
				status, ok := raw.(connectors.ConnectionStatus)
				if !ok {
					continue
				}
				s.handleConnectionStatus(status)
			}
		}
	}()
}

// handleSnapshot compares the set of serving carriers with the previous
// snapshot. The first snapshot only records the baseline.
func (s *NotificationService) handleSnapshot(state SignalState) {
	if state.Error != "" || !state.HasPermission {
		return
	}
	current := servingCarriers(state.Providers)

	s.servingMu.Lock()
	previous, known := s.lastServing, s.servingKnown
	s.lastServing = current
	s.servingKnown = true
	s.servingMu.Unlock()

	if !known || previous == current {
		return
	}

	prefs := s.notificationPrefs()
	switch {
	case current == "":
		if s.shouldNotify(prefs, prefs.Events.ServiceLost) {
			s.send(notifications.Payload{
				Title:   notificationTitleServiceLost,
				Content: fmt.Sprintf("Lost registration on %s", previous),
			})
		}
	case previous == "":
		if s.shouldNotify(prefs, prefs.Events.ServiceLost) {
			s.send(notifications.Payload{
				Title:   notificationTitleServiceRestored,
				Content: fmt.Sprintf("Registered on %s", current),
			})
		}
	default:
		if s.shouldNotify(prefs, prefs.Events.CarrierChanged) {
			s.send(notifications.Payload{
				Title:   notificationTitleCarrierChanged,
				Content: fmt.Sprintf("%s -> %s", previous, current),
			})
		}
	}
}

func (s *NotificationService) handleConnectionStatus(status connectors.ConnectionStatus) {
	if status.State == "" {
		return
	}

	s.connStatusMu.Lock()
	if last, ok := s.lastConnState[status.Modem]; ok && last == status.State {
		s.connStatusMu.Unlock()

		return
	}
	s.lastConnState[status.Modem] = status.State
	s.connStatusMu.Unlock()

	if status.State != connectors.ConnectionStateConnected &&
		status.State != connectors.ConnectionStateDisconnected {
		return
	}
	prefs := s.notificationPrefs()
	if !s.shouldNotify(prefs, prefs.Events.ConnectionStatus) {
		return
	}

	subject := strings.TrimSpace(status.Modem)
	if subject == "" {
		subject = notificationTransportName(status.TransportName)
	}
	if subject == "" {
		subject = "Modem"
	}
	details := strings.TrimSpace(status.Target)
	if details == "" {
		details = "No connection details"
	}
	if transport := notificationTransportName(status.TransportName); transport != "" {
		details = fmt.Sprintf("%s via %s", details, transport)
	}
	if status.State == connectors.ConnectionStateDisconnected {
		if errText := strings.TrimSpace(status.Err); errText != "" {
			details = fmt.Sprintf("%s (error: %s)", details, errText)
		}
	}

	s.send(notifications.Payload{
		Title:   fmt.Sprintf("%s - %s", subject, status.State),
		Content: details,
	})
}

func (s *NotificationService) shouldNotify(prefs config.NotificationConfig, kindEnabled bool) bool {
	return prefs.Enabled && kindEnabled
}

func (s *NotificationService) notificationPrefs() config.NotificationConfig {
	cfg := config.Default()
	if s.currentConfig != nil {
		cfg = s.currentConfig()
	}

	return cfg.Notifications
}

func (s *NotificationService) send(notification notifications.Payload) {
	title := strings.TrimSpace(notification.Title)
	content := strings.TrimSpace(notification.Content)
	if title == "" && content == "" {
		return
	}
	s.logger.Debug("sending notification", "title", title)
	s.sender.Send(notifications.Payload{
		Title:   title,
		Content: content,
	})
}

// servingCarriers names every carrier with a registered cell, sorted so
// dual-SIM snapshots compare stably.
func servingCarriers(providers []domain.ProviderSignals) string {
	names := lo.FilterMap(providers, func(p domain.ProviderSignals, _ int) (string, bool) {
		return p.OperatorName, p.IsRegistered
	})
	sort.Strings(names)

	return strings.Join(lo.Uniq(names), ", ")
}

func notificationTransportName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ip":
		return "TCP"
	case "serial":
		return "Serial"
	case "websocket":
		return "WebSocket"
	default:
		return strings.TrimSpace(name)
	}
}
