package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/radio"
	"github.com/detekto/cellwatch/internal/telephony"
	"github.com/detekto/cellwatch/internal/transport"
)

// RadioSource is one configured set of radios: a default radio plus the
// subscription manager that exposes the rest.
type RadioSource struct {
	Radio         telephony.Radio
	Subscriptions telephony.SubscriptionManager
	close         func() error
}

func (s *RadioSource) Close() error {
	if s == nil || s.close == nil {
		return nil
	}

	return s.close()
}

// NewRadioSource builds the radios described by cfg. Modems publish their
// link status and AT traffic on b.
func NewRadioSource(cfg config.SourceConfig, b bus.MessageBus, logger *slog.Logger) (*RadioSource, error) {
	if logger == nil {
		logger = slog.Default().With("component", "radio")
	}

	switch cfg.Kind {
	case config.SourceFixture:
		path := strings.TrimSpace(cfg.FixturePath)
		if path == "" {
			return nil, errors.New("fixture path is required")
		}
		fixture := telephony.NewFixtureSource(path)

		return &RadioSource{Radio: fixture.Radio(), Subscriptions: fixture}, nil
	case config.SourceModem, "":
		modems := make([]*radio.Modem, 0, len(cfg.Modems))
		for _, modemCfg := range cfg.Modems {
			tr, err := NewTransportForModem(modemCfg)
			if err != nil {
				return nil, fmt.Errorf("modem %q: %w", modemCfg.Name, err)
			}
			modems = append(modems, radio.NewModem(modemCfg.Name, tr, b, logger))
		}
		set, err := radio.NewModemSet(modems...)
		if err != nil {
			return nil, err
		}

		return &RadioSource{Radio: set.Default(), Subscriptions: set, close: set.Close}, nil
	default:
		return nil, fmt.Errorf("unknown source kind: %q", cfg.Kind)
	}
}

func NewTransportForModem(cfg config.ModemConfig) (transport.Transport, error) {
	switch cfg.Connector {
	case config.ConnectorIP:
		port := cfg.Port
		if port <= 0 {
			port = config.DefaultModemPort
		}

		return transport.NewIPTransport(cfg.Host, port), nil
	case config.ConnectorSerial:
		return transport.NewSerialTransport(cfg.SerialPort, cfg.SerialBaud), nil
	case config.ConnectorWebSocket:
		return transport.NewWebSocketTransport(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown connector: %q", cfg.Connector)
	}
}

// SwitchableSource wraps the active RadioSource and lets runtime swap it on
// config updates. It is both the default radio and the subscription manager
// handed to the collector, so a swap takes effect on the next poll.
type SwitchableSource struct {
	mu sync.RWMutex

	cfg    config.SourceConfig
	source *RadioSource
	bus    bus.MessageBus
	logger *slog.Logger
}

func NewSwitchableSource(cfg config.SourceConfig, b bus.MessageBus, logger *slog.Logger) (*SwitchableSource, error) {
	source, err := NewRadioSource(cfg, b, logger)
	if err != nil {
		return nil, err
	}

	return &SwitchableSource{
		cfg:    cfg,
		source: source,
		bus:    b,
		logger: logger,
	}, nil
}

// Apply replaces the radios when cfg differs from the active configuration.
func (s *SwitchableSource) Apply(cfg config.SourceConfig) error {
	if s.sameConfig(cfg) {
		return nil
	}
	next, err := NewRadioSource(cfg, s.bus, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	current := s.source
	s.source = next
	s.cfg = cfg
	s.mu.Unlock()

	return current.Close()
}

func (s *SwitchableSource) sameConfig(cfg config.SourceConfig) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg.Kind != cfg.Kind || s.cfg.FixturePath != cfg.FixturePath || len(s.cfg.Modems) != len(cfg.Modems) {
		return false
	}
	for i := range cfg.Modems {
		if s.cfg.Modems[i] != cfg.Modems[i] {
			return false
		}
	}

	return true
}

func (s *SwitchableSource) Name() string {
	source := s.current()
	if source == nil || source.Radio == nil {
		return "unknown"
	}

	return source.Radio.Name()
}

func (s *SwitchableSource) AllCellInfo(ctx context.Context) ([]telephony.Cell, error) {
	source := s.current()
	if source == nil || source.Radio == nil {
		return nil, errors.New("radio is not configured")
	}

	return source.Radio.AllCellInfo(ctx)
}

func (s *SwitchableSource) ActiveSubscriptions(ctx context.Context) ([]telephony.Subscription, error) {
	source := s.current()
	if source == nil || source.Subscriptions == nil {
		return nil, nil
	}

	return source.Subscriptions.ActiveSubscriptions(ctx)
}

func (s *SwitchableSource) RadioForSubscription(sub telephony.Subscription) (telephony.Radio, error) {
	source := s.current()
	if source == nil || source.Subscriptions == nil {
		return nil, fmt.Errorf("unknown subscription %d", sub.ID)
	}

	return source.Subscriptions.RadioForSubscription(sub)
}

func (s *SwitchableSource) Config() config.SourceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg
}

func (s *SwitchableSource) Close() error {
	return s.current().Close()
}

func (s *SwitchableSource) current() *RadioSource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.source
}
