package app

import (
	"fmt"
	"strings"

	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/connectors"
)

func TransportNameFromConnector(connector config.ConnectorType) string {
	switch connector {
	case config.ConnectorIP:
		return "ip"
	case config.ConnectorSerial:
		return "serial"
	case config.ConnectorWebSocket:
		return "websocket"
	default:
		if value := strings.TrimSpace(string(connector)); value != "" {
			return value
		}

		return "unknown"
	}
}

func ModemTarget(cfg config.ModemConfig) string {
	switch cfg.Connector {
	case config.ConnectorIP:
		host := strings.TrimSpace(cfg.Host)
		if host == "" {
			return ""
		}
		if cfg.Port > 0 {
			return fmt.Sprintf("%s:%d", host, cfg.Port)
		}

		return host
	case config.ConnectorSerial:
		return strings.TrimSpace(cfg.SerialPort)
	case config.ConnectorWebSocket:
		return strings.TrimSpace(cfg.URL)
	default:
		return ""
	}
}

// InitialModemStatus is the status shown for a modem before its first poll.
func InitialModemStatus(cfg config.ModemConfig) connectors.ConnectionStatus {
	status := connectors.ConnectionStatus{
		State:         connectors.ConnectionStateDisconnected,
		Modem:         cfg.Name,
		TransportName: TransportNameFromConnector(cfg.Connector),
		Target:        ModemTarget(cfg),
	}
	if status.Target != "" {
		status.State = connectors.ConnectionStateConnecting
	}

	return status
}
