package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/connectors"
	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/signal"
	"github.com/detekto/cellwatch/internal/telephony"
)

const (
	monitorMinBackoff = time.Second
	monitorMaxBackoff = 15 * time.Second
)

// SignalState is the latest result held for readers of the stream.
type SignalState struct {
	Signals       []domain.SignalInfo      `json:"signals"`
	Providers     []domain.ProviderSignals `json:"providers"`
	Loading       bool                     `json:"loading"`
	HasPermission bool                     `json:"has_permission"`
	Error         string                   `json:"error,omitempty"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Session       string                   `json:"session,omitempty"`
}

// SignalObserver is the stream the monitor consumes.
type SignalObserver interface {
	Observe(ctx context.Context) <-chan signal.Update
}

// Monitor consumes the signal stream, keeps the latest SignalState and
// publishes each state on TopicSignalSnapshot. A terminal stream error is
// recorded and the monitor re-subscribes after a backoff.
type Monitor struct {
	source      SignalObserver
	permissions telephony.PermissionChecker
	bus         bus.MessageBus
	learnNames  func() bool
	logger      *slog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration

	mu    sync.RWMutex
	state SignalState
}

func NewMonitor(
	source SignalObserver,
	permissions telephony.PermissionChecker,
	messageBus bus.MessageBus,
	learnNames func() bool,
	logger *slog.Logger,
) *Monitor {
	if logger == nil {
		logger = slog.Default().With("component", "app.monitor")
	}

	return &Monitor{
		source:      source,
		permissions: permissions,
		bus:         messageBus,
		learnNames:  learnNames,
		logger:      logger,
		minBackoff:  monitorMinBackoff,
		maxBackoff:  monitorMaxBackoff,
		state:       SignalState{Loading: true},
	}
}

// State returns a copy of the latest state.
func (m *Monitor) State() SignalState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

func (m *Monitor) Start(ctx context.Context) {
	go m.Run(ctx)
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	backoff := m.minBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		m.beginObservation()

		delivered, err := m.consume(ctx, m.source.Observe(ctx))
		if ctx.Err() != nil {
			return
		}
		if delivered {
			backoff = m.minBackoff
		}
		m.logger.Warn("signal observation ended, resubscribing", "error", err, "backoff", backoff)
		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, m.maxBackoff)
	}
}

// consume applies updates until the stream closes and reports whether any
// successful snapshot arrived along with the terminal error, if one did.
func (m *Monitor) consume(ctx context.Context, updates <-chan signal.Update) (bool, error) {
	delivered := false
	for {
		select {
		case <-ctx.Done():
			return delivered, nil
		case update, ok := <-updates:
			if !ok {
				return delivered, nil
			}
			if update.Err != nil {
				m.applyError(update)

				return delivered, update.Err
			}
			delivered = true
			m.applySnapshot(update)
		}
	}
}

func (m *Monitor) beginObservation() {
	m.mu.Lock()
	m.state.Loading = true
	m.state.HasPermission = m.hasPermission()
	m.mu.Unlock()
}

func (m *Monitor) applySnapshot(update signal.Update) {
	state := SignalState{
		Signals:       update.Signals,
		Providers:     domain.GroupByProvider(update.Signals),
		HasPermission: m.hasPermission(),
		UpdatedAt:     update.At,
		Session:       update.Session,
	}
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	m.logger.Debug("signal snapshot", "session", update.Session, "signals", len(state.Signals), "providers", len(state.Providers))
	m.publish(connectors.TopicSignalSnapshot, state)

	if m.learnNames == nil || !m.learnNames() {
		return
	}
	for _, sighting := range update.Sightings {
		m.publish(connectors.TopicOperatorSighted, sighting)
	}
}

// applyError keeps the last good signals so readers still see them next to
// the error.
func (m *Monitor) applyError(update signal.Update) {
	m.mu.Lock()
	m.state.Loading = false
	m.state.Error = update.Err.Error()
	m.state.UpdatedAt = update.At
	m.state.Session = update.Session
	state := m.state
	m.mu.Unlock()

	m.publish(connectors.TopicSignalSnapshot, state)
}

func (m *Monitor) hasPermission() bool {
	return m.permissions != nil && m.permissions.HasFineLocation()
}

func (m *Monitor) publish(topic string, msg any) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(topic, msg)
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}

	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
