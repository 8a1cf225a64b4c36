package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SourceKind selects where cell measurements come from.
type SourceKind string

// ConnectorType identifies which transport backend reaches a modem.
type ConnectorType string

const (
	SourceModem   SourceKind = "modem"
	SourceFixture SourceKind = "fixture"

	ConnectorIP        ConnectorType = "ip"
	ConnectorSerial    ConnectorType = "serial"
	ConnectorWebSocket ConnectorType = "websocket"

	DefaultSerialBaud     = 115200
	DefaultModemPort      = 2000
	DefaultAPILevel       = 34
	DefaultPollIntervalMS = 3000
	MinPollIntervalMS     = 250
	DefaultAPIListen      = "127.0.0.1:8787"
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// ModemConfig contains connector-specific parameters of one modem.
type ModemConfig struct {
	Name       string        `json:"name"`
	Connector  ConnectorType `json:"connector"`
	SerialPort string        `json:"serial_port"`
	SerialBaud int           `json:"serial_baud"`
	Host       string        `json:"host"`
	Port       int           `json:"port"`
	URL        string        `json:"url"`
}

// SourceConfig selects the radio backend.
type SourceConfig struct {
	Kind        SourceKind    `json:"kind"`
	FixturePath string        `json:"fixture_path"`
	APILevel    int           `json:"api_level"`
	Modems      []ModemConfig `json:"modems"`
}

// PermissionsConfig stores the runtime grants checked before every poll.
type PermissionsConfig struct {
	FineLocation   bool `json:"fine_location"`
	ReadPhoneState bool `json:"read_phone_state"`
}

// PollingConfig controls the stream cadence.
type PollingConfig struct {
	IntervalMS int `json:"interval_ms"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	Enabled bool                     `json:"enabled"`
	Events  NotificationEventsConfig `json:"events"`
}

// NotificationEventsConfig stores per-event notification toggles.
type NotificationEventsConfig struct {
	CarrierChanged   bool `json:"carrier_changed"`
	ServiceLost      bool `json:"service_lost"`
	ConnectionStatus bool `json:"connection_status"`
}

// APIConfig controls the local HTTP/websocket API.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"`
}

// OperatorsConfig controls learning carrier names from broadcasting cells.
type OperatorsConfig struct {
	LearnNames bool `json:"learn_names"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Source        SourceConfig       `json:"source"`
	Permissions   PermissionsConfig  `json:"permissions"`
	Polling       PollingConfig      `json:"polling"`
	Logging       LoggingConfig      `json:"logging"`
	Notifications NotificationConfig `json:"notifications"`
	API           APIConfig          `json:"api"`
	Operators     OperatorsConfig    `json:"operators"`
}

func Default() AppConfig {
	return AppConfig{
		Source: SourceConfig{
			Kind:     SourceModem,
			APILevel: DefaultAPILevel,
			Modems: []ModemConfig{{
				Name:       "modem0",
				Connector:  ConnectorSerial,
				SerialPort: "",
				SerialBaud: DefaultSerialBaud,
			}},
		},
		Permissions: PermissionsConfig{
			FineLocation:   true,
			ReadPhoneState: true,
		},
		Polling: PollingConfig{
			IntervalMS: DefaultPollIntervalMS,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Events: NotificationEventsConfig{
				CarrierChanged:   true,
				ServiceLost:      true,
				ConnectionStatus: true,
			},
		},
		API: APIConfig{
			Enabled: false,
			Listen:  DefaultAPIListen,
		},
		Operators: OperatorsConfig{
			LearnNames: true,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	// Decoding into a pre-filled slice merges elements; start from nil.
	defaultModems := cfg.Source.Modems
	cfg.Source.Modems = nil
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}
	if cfg.Source.Modems == nil {
		cfg.Source.Modems = defaultModems
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = SourceModem
	}
	if c.Source.APILevel <= 0 {
		c.Source.APILevel = DefaultAPILevel
	}
	for i := range c.Source.Modems {
		c.Source.Modems[i] = normalizeModem(c.Source.Modems[i], i)
	}
	if c.Polling.IntervalMS <= 0 {
		c.Polling.IntervalMS = DefaultPollIntervalMS
	}
	if c.Polling.IntervalMS < MinPollIntervalMS {
		c.Polling.IntervalMS = MinPollIntervalMS
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.API.Listen) == "" {
		c.API.Listen = DefaultAPIListen
	}
}

func normalizeModem(m ModemConfig, index int) ModemConfig {
	if strings.TrimSpace(m.Name) == "" {
		m.Name = fmt.Sprintf("modem%d", index)
	}
	if m.Connector == "" {
		m.Connector = ConnectorSerial
	}
	if m.SerialBaud <= 0 {
		m.SerialBaud = DefaultSerialBaud
	}
	if m.Connector == ConnectorIP && m.Port <= 0 {
		m.Port = DefaultModemPort
	}

	return m
}

func (c AppConfig) Validate() error {
	switch c.Source.Kind {
	case SourceFixture:
		if strings.TrimSpace(c.Source.FixturePath) == "" {
			return errors.New("fixture path is required")
		}
	case SourceModem:
		if len(c.Source.Modems) == 0 {
			return errors.New("at least one modem is required")
		}
		seen := make(map[string]struct{}, len(c.Source.Modems))
		for _, m := range c.Source.Modems {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("modem %q: %w", m.Name, err)
			}
			if _, dup := seen[m.Name]; dup {
				return fmt.Errorf("duplicate modem name: %q", m.Name)
			}
			seen[m.Name] = struct{}{}
		}
	default:
		return fmt.Errorf("unknown source kind: %s", c.Source.Kind)
	}
	if c.Polling.IntervalMS <= 0 {
		return errors.New("polling interval must be positive")
	}
	if c.API.Enabled && strings.TrimSpace(c.API.Listen) == "" {
		return errors.New("api listen address is required")
	}

	return nil
}

func (m ModemConfig) Validate() error {
	switch m.Connector {
	case ConnectorIP:
		if strings.TrimSpace(m.Host) == "" {
			return errors.New("ip host is required")
		}
		if m.Port <= 0 || m.Port > 65535 {
			return errors.New("ip port is out of range")
		}
	case ConnectorSerial:
		if strings.TrimSpace(m.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if m.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	case ConnectorWebSocket:
		url := strings.TrimSpace(m.URL)
		if url == "" {
			return errors.New("websocket url is required")
		}
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			return errors.New("websocket url must start with ws:// or wss://")
		}
	default:
		return fmt.Errorf("unknown connector: %s", m.Connector)
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
