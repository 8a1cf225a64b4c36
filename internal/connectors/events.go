package connectors

import "time"

// ConnectionState describes the modem link lifecycle.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateReconnecting ConnectionState = "reconnecting"
)

// ConnectionStatus is a bus event snapshot of one modem link.
type ConnectionStatus struct {
	State         ConnectionState `json:"state"`
	Err           string          `json:"error,omitempty"`
	Modem         string          `json:"modem"`
	TransportName string          `json:"transport"`
	Target        string          `json:"target,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// RawLine carries AT traffic for debug logging.
type RawLine struct {
	Modem string
	Text  string
}
