package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/telephony"
	"github.com/detekto/cellwatch/internal/transport"
)

const singleCellFixture = `
default:
  cells:
    - type: lte
      mcc: "405"
      mnc: "860"
      alpha_long: Jio 4G
      dbm: -95
      level: 3
      registered: true
subscriptions:
  - id: 1
    name: SIM2
    cells:
      - type: gsm
        mcc: "404"
        mnc: "10"
        dbm: -90
        level: 4
`

func writeTestFixture(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "cells.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return path
}

func TestNewTransportForModem(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ModemConfig
		want string
	}{
		{name: "serial", cfg: config.ModemConfig{Connector: config.ConnectorSerial, SerialPort: "/dev/ttyUSB2", SerialBaud: 115200}, want: "serial"},
		{name: "ip", cfg: config.ModemConfig{Connector: config.ConnectorIP, Host: "192.168.8.1"}, want: "ip"},
		{name: "websocket", cfg: config.ModemConfig{Connector: config.ConnectorWebSocket, URL: "ws://127.0.0.1/at"}, want: "websocket"},
	}
	for _, tt := range tests {
		tr, err := NewTransportForModem(tt.cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if tr.Name() != tt.want {
			t.Fatalf("%s: expected %q transport, got %q", tt.name, tt.want, tr.Name())
		}
	}

	tr, err := NewTransportForModem(config.ModemConfig{Connector: config.ConnectorIP, Host: "192.168.8.1"})
	if err != nil {
		t.Fatalf("ip transport: %v", err)
	}
	if target := tr.(transport.StatusTargetResolver).StatusTarget(); target != "192.168.8.1:2000" {
		t.Fatalf("expected default modem port in target, got %q", target)
	}

	if _, err := NewTransportForModem(config.ModemConfig{Connector: "bluetooth"}); err == nil {
		t.Fatalf("expected unknown connector error")
	}
}

func TestNewRadioSourceModems(t *testing.T) {
	source, err := NewRadioSource(config.SourceConfig{
		Kind: config.SourceModem,
		Modems: []config.ModemConfig{
			{Name: "sim1", Connector: config.ConnectorSerial, SerialPort: "/dev/ttyUSB2", SerialBaud: 115200},
			{Name: "sim2", Connector: config.ConnectorIP, Host: "192.168.8.1", Port: 2000},
		},
	}, newTestMessageBus(t), nil)
	if err != nil {
		t.Fatalf("new radio source: %v", err)
	}
	defer func() { _ = source.Close() }()

	if source.Radio.Name() != "sim1" {
		t.Fatalf("expected first modem as default radio, got %q", source.Radio.Name())
	}
	subs, err := source.Subscriptions.ActiveSubscriptions(context.Background())
	if err != nil || len(subs) != 1 || subs[0].Name != "sim2" {
		t.Fatalf("unexpected subscriptions: %+v %v", subs, err)
	}

	if _, err := NewRadioSource(config.SourceConfig{Kind: config.SourceModem}, nil, nil); err == nil {
		t.Fatalf("expected error without modems")
	}
}

func TestSwitchableSourceFixtureAndApply(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFixture(t, dir, singleCellFixture)
	cfg := config.SourceConfig{Kind: config.SourceFixture, FixturePath: path}

	source, err := NewSwitchableSource(cfg, newTestMessageBus(t), nil)
	if err != nil {
		t.Fatalf("new switchable source: %v", err)
	}
	defer func() { _ = source.Close() }()

	collector := telephony.NewCollector(telephony.StaticPermissions{FineLocation: true, ReadPhoneState: true}, source, source, nil)
	cells, err := collector.CollectRawMeasurements(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("expected default and subscription cells, got %d", len(cells))
	}
	if source.Name() != "fixture:default" {
		t.Fatalf("unexpected radio name: %q", source.Name())
	}

	same := source.current()
	if err := source.Apply(cfg); err != nil {
		t.Fatalf("apply same config: %v", err)
	}
	if source.current() != same {
		t.Fatalf("expected unchanged config to keep the active source")
	}

	other := writeTestFixture(t, t.TempDir(), "default:\n  access_denied: true\n")
	if err := source.Apply(config.SourceConfig{Kind: config.SourceFixture, FixturePath: other}); err != nil {
		t.Fatalf("apply new fixture: %v", err)
	}
	if source.Config().FixturePath != other {
		t.Fatalf("expected config to switch, got %+v", source.Config())
	}
	cells, err = collector.CollectRawMeasurements(context.Background())
	if err != nil || len(cells) != 0 {
		t.Fatalf("expected access denied fixture to yield zero cells, got %d %v", len(cells), err)
	}

	if err := source.Apply(config.SourceConfig{Kind: "sdr"}); err == nil {
		t.Fatalf("expected invalid source to be rejected")
	}
	if source.Config().FixturePath != other {
		t.Fatalf("expected failed apply to keep the previous source")
	}
}
