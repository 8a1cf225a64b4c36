package radio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/connectors"
	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/telephony"
	"github.com/detekto/cellwatch/internal/transport"
)

const defaultCommandTimeout = 5 * time.Second

// SIM states reported through +CME ERROR that mean the radio cannot be read.
var simLockedResults = []string{
	"SIM NOT INSERTED",
	"SIM PIN REQUIRED",
	"SIM PUK REQUIRED",
	"SIM FAILURE",
	"SIM BUSY",
	"SIM WRONG",
	"10", "11", "12", "13", "14", "15",
}

// Modem is a telephony.Radio backed by an AT-command modem. Every poll runs
// a short command sequence; the link is opened lazily and reopened after
// I/O failures.
type Modem struct {
	name           string
	transport      transport.Transport
	bus            bus.MessageBus
	logger         *slog.Logger
	commandTimeout time.Duration

	mu        sync.Mutex
	connected bool
	noMONSC   bool
}

func NewModem(name string, tr transport.Transport, b bus.MessageBus, logger *slog.Logger) *Modem {
	if logger == nil {
		logger = slog.Default().With("component", "radio.modem")
	}

	return &Modem{
		name:           name,
		transport:      tr,
		bus:            b,
		logger:         logger.With("modem", name),
		commandTimeout: defaultCommandTimeout,
	}
}

func (m *Modem) Name() string {
	return m.name
}

// AllCellInfo returns the serving cell followed by its neighbors.
func (m *Modem) AllCellInfo(ctx context.Context) ([]telephony.Cell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(ctx); err != nil {
		return nil, err
	}

	cells, err := m.poll(ctx)
	if err != nil {
		if isLinkError(err) {
			m.disconnect(err)
		}

		return nil, err
	}

	return cells, nil
}

func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil
	}
	m.disconnect(nil)

	return nil
}

func (m *Modem) ensureConnected(ctx context.Context) error {
	if m.connected {
		return nil
	}
	m.publishConnStatus(connectors.ConnectionStateConnecting, nil)
	if err := m.transport.Connect(ctx); err != nil {
		m.publishConnStatus(connectors.ConnectionStateReconnecting, err)

		return fmt.Errorf("connect modem %s: %w", m.name, err)
	}
	m.connected = true

	// Echo off and verbose errors make responses predictable.
	for _, cmd := range []string{"ATE0", "AT+CMEE=2"} {
		if _, err := m.exec(ctx, cmd); err != nil {
			var cmdErr *transport.CommandError
			if errors.As(err, &cmdErr) {
				m.logger.Debug("init command rejected", "command", cmd, "error", err)

				continue
			}
			m.disconnect(err)

			return fmt.Errorf("init modem %s: %w", m.name, err)
		}
	}
	m.publishConnStatus(connectors.ConnectionStateConnected, nil)

	return nil
}

func (m *Modem) disconnect(cause error) {
	_ = m.transport.Close()
	m.connected = false
	m.publishConnStatus(connectors.ConnectionStateDisconnected, cause)
}

func (m *Modem) poll(ctx context.Context) ([]telephony.Cell, error) {
	op, err := m.operator(ctx)
	if err != nil {
		return nil, err
	}

	serving, err := m.servingCell(ctx, op)
	if err != nil {
		return nil, err
	}
	cells := make([]telephony.Cell, 0, 8)
	if serving != nil {
		cells = append(cells, serving)
	}
	if m.noMONSC {
		return cells, nil
	}

	lines, err := m.exec(ctx, "AT^MONNC")
	if err != nil {
		var cmdErr *transport.CommandError
		if errors.As(err, &cmdErr) {
			m.logger.Debug("neighbor report unavailable", "error", err)

			return cells, nil
		}

		return nil, err
	}
	for _, payload := range transport.ResponseValues(lines, "^MONNC:") {
		if cell, ok := decodeMONNC(payload); ok {
			cells = append(cells, cell)
		}
	}

	return cells, nil
}

// operator reads the registered PLMN in numeric and long alpha form.
func (m *Modem) operator(ctx context.Context) (Operator, error) {
	var op Operator
	for _, step := range []struct {
		format string
		assign func(oper string, act int)
	}{
		{format: "2", assign: func(oper string, act int) { op.Numeric, op.AcT = oper, act }},
		{format: "0", assign: func(oper string, _ int) { op.Alpha = oper }},
	} {
		if _, err := m.exec(ctx, "AT+COPS=3,"+step.format); err != nil {
			return Operator{}, m.simError(err)
		}
		lines, err := m.exec(ctx, "AT+COPS?")
		if err != nil {
			return Operator{}, m.simError(err)
		}
		payload, ok := transport.ResponseValue(lines, "+COPS:")
		if !ok {
			continue
		}
		if _, oper, act, ok := decodeCOPS(payload); ok {
			step.assign(oper, act)
		}
	}

	return op, nil
}

func (m *Modem) servingCell(ctx context.Context, op Operator) (telephony.Cell, error) {
	if !m.noMONSC {
		lines, err := m.exec(ctx, "AT^MONSC")
		if err == nil {
			payload, ok := transport.ResponseValue(lines, "^MONSC:")
			if !ok {
				return nil, nil
			}
			serving, ok, err := decodeMONSC(payload)
			if err != nil || !ok {
				return nil, err
			}

			return withIdentity(serving, op), nil
		}
		var cmdErr *transport.CommandError
		if !errors.As(err, &cmdErr) {
			return nil, err
		}
		if accessErr := m.simError(err); errors.Is(accessErr, telephony.ErrAccessDenied) {
			return nil, accessErr
		}
		m.logger.Info("^MONSC unsupported, falling back to ^HCSQ", "error", err)
		m.noMONSC = true
	}

	lines, err := m.exec(ctx, "AT^HCSQ?")
	if err != nil {
		return nil, m.simError(err)
	}
	payload, ok := transport.ResponseValue(lines, "^HCSQ:")
	if !ok {
		return nil, nil
	}
	tech, dbm, ok := decodeHCSQ(payload)
	if !ok {
		return nil, nil
	}

	return withIdentity(servingCell{tech: tech, cell: placeholderCell(tech, dbm)}, op), nil
}

func placeholderCell(tech domain.NetworkType, dbm int) telephony.Cell {
	strength := strengthFor(tech, dbm)
	switch tech {
	case domain.NetworkGSM:
		return telephony.GSMCell{LAC: telephony.Unavailable, CID: telephony.Unavailable, ARFCN: telephony.Unavailable, BSIC: telephony.Unavailable, Strength: strength}
	case domain.NetworkWCDMA:
		return telephony.WCDMACell{LAC: telephony.Unavailable, CID: telephony.Unavailable, UARFCN: telephony.Unavailable, PSC: telephony.Unavailable, Strength: strength}
	default:
		return telephony.LTECell{TAC: telephony.Unavailable, CI: telephony.Unavailable, PCI: telephony.Unavailable, EARFCN: telephony.Unavailable, Strength: strength}
	}
}

// withIdentity fills the PLMN of the serving cell. +COPS wins over the
// ^MONSC digits because it keeps the MNC's leading zero.
func withIdentity(serving servingCell, op Operator) telephony.Cell {
	id := telephony.UnknownPLMN()
	switch {
	case op.MCC() != "":
		id.MCC, id.MNC = op.MCC(), op.MNC()
	case serving.mcc != "" && serving.mnc != "":
		id.MCC, id.MNC = serving.mcc, serving.mnc
	}
	id.LegacyMCC = atoiOr(id.MCC, telephony.Unavailable)
	id.LegacyMNC = atoiOr(id.MNC, telephony.Unavailable)
	id.AlphaLong = op.Alpha
	registered := op.Numeric != ""

	switch c := serving.cell.(type) {
	case telephony.GSMCell:
		c.Identity, c.Registered = id, registered

		return c
	case telephony.WCDMACell:
		c.Identity, c.Registered = id, registered

		return c
	case telephony.LTECell:
		c.Identity, c.Registered = id, registered

		return c
	case telephony.NRCell:
		c.Identity, c.Registered = id, registered

		return c
	default:
		return serving.cell
	}
}

// simError maps SIM lock and absence results to telephony.ErrAccessDenied.
func (m *Modem) simError(err error) error {
	var cmdErr *transport.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	detail := strings.ToUpper(cmdErr.Detail())
	for _, locked := range simLockedResults {
		if detail == locked {
			return fmt.Errorf("modem %s: %s: %w", m.name, cmdErr.Detail(), telephony.ErrAccessDenied)
		}
	}

	return err
}

// isLinkError reports failures of the link itself, as opposed to the modem
// answering with an error result.
func isLinkError(err error) bool {
	var cmdErr *transport.CommandError

	return !errors.As(err, &cmdErr) && !errors.Is(err, telephony.ErrAccessDenied)
}

func (m *Modem) exec(ctx context.Context, cmd string) ([]string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, m.commandTimeout)
	defer cancel()

	m.publishRaw(connectors.TopicRawLineOut, cmd)
	lines, err := transport.Command(cmdCtx, m.transport, cmd)
	for _, line := range lines {
		m.publishRaw(connectors.TopicRawLineIn, line)
	}
	if err != nil {
		m.logger.Debug("command failed", "command", cmd, "error", err)
	}

	return lines, err
}

func (m *Modem) publishRaw(topic, line string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(topic, connectors.RawLine{Modem: m.name, Text: line})
}

func (m *Modem) publishConnStatus(state connectors.ConnectionState, err error) {
	if m.bus == nil {
		return
	}
	status := connectors.ConnectionStatus{
		State:         state,
		Modem:         m.name,
		TransportName: m.transport.Name(),
		Timestamp:     time.Now(),
	}
	if resolver, ok := m.transport.(transport.StatusTargetResolver); ok {
		status.Target = resolver.StatusTarget()
	}
	if err != nil {
		status.Err = err.Error()
	}
	m.bus.Publish(connectors.TopicConnStatus, status)
}
