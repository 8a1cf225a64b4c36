package app

import (
	"testing"

	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/connectors"
)

func TestTransportNameFromConnector(t *testing.T) {
	tests := []struct {
		name      string
		connector config.ConnectorType
		want      string
	}{
		{name: "ip", connector: config.ConnectorIP, want: "ip"},
		{name: "serial", connector: config.ConnectorSerial, want: "serial"},
		{name: "websocket", connector: config.ConnectorWebSocket, want: "websocket"},
		{name: "unknown", connector: "custom", want: "custom"},
		{name: "empty", connector: "", want: "unknown"},
	}

	for _, tc := range tests {
		if got := TransportNameFromConnector(tc.connector); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestModemTarget(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ModemConfig
		want string
	}{
		{name: "ip with port", cfg: config.ModemConfig{Connector: config.ConnectorIP, Host: "192.168.8.1", Port: 2000}, want: "192.168.8.1:2000"},
		{name: "ip without host", cfg: config.ModemConfig{Connector: config.ConnectorIP, Port: 2000}, want: ""},
		{name: "serial", cfg: config.ModemConfig{Connector: config.ConnectorSerial, SerialPort: "/dev/ttyUSB2"}, want: "/dev/ttyUSB2"},
		{name: "websocket", cfg: config.ModemConfig{Connector: config.ConnectorWebSocket, URL: " ws://10.0.0.3/at "}, want: "ws://10.0.0.3/at"},
		{name: "unknown", cfg: config.ModemConfig{Connector: "custom"}, want: ""},
	}

	for _, tc := range tests {
		if got := ModemTarget(tc.cfg); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestInitialModemStatus(t *testing.T) {
	status := InitialModemStatus(config.ModemConfig{
		Name:       "sim1",
		Connector:  config.ConnectorSerial,
		SerialPort: "/dev/ttyUSB2",
		SerialBaud: 115200,
	})

	if status.State != connectors.ConnectionStateConnecting {
		t.Fatalf("expected connecting state, got %q", status.State)
	}
	if status.Modem != "sim1" || status.TransportName != "serial" || status.Target != "/dev/ttyUSB2" {
		t.Fatalf("unexpected status: %+v", status)
	}

	if got := InitialModemStatus(config.ModemConfig{Connector: config.ConnectorSerial}).State; got != connectors.ConnectionStateDisconnected {
		t.Fatalf("expected disconnected without target, got %q", got)
	}
}
