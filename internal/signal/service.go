package signal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/telephony"
)

const DefaultInterval = 3 * time.Second

// RawCollector is the acquisition step of the pipeline.
type RawCollector interface {
	CollectRawMeasurements(ctx context.Context) ([]telephony.Cell, error)
}

// Update is one element of an observation stream. A non-nil Err is terminal:
// it is the last value before the channel closes.
type Update struct {
	Session   string
	Signals   []domain.SignalInfo
	Sightings []domain.OperatorSighting
	At        time.Time
	Err       error
}

// ProviderUpdate is Update grouped per carrier.
type ProviderUpdate struct {
	Session   string
	Providers []domain.ProviderSignals
	At        time.Time
	Err       error
}

// Service turns periodic radio reads into ranked signal snapshots.
type Service struct {
	collector RawCollector
	parser    telephony.Parser
	interval  time.Duration
	logger    *slog.Logger
}

func NewService(collector RawCollector, parser telephony.Parser, interval time.Duration, logger *slog.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default().With("component", "signal.service")
	}

	return &Service{
		collector: collector,
		parser:    parser,
		interval:  interval,
		logger:    logger,
	}
}

// Fetch runs one collect, parse, filter and rank cycle.
func (s *Service) Fetch(ctx context.Context) ([]domain.SignalInfo, error) {
	signals, _, err := s.fetch(ctx)

	return signals, err
}

func (s *Service) fetch(ctx context.Context) ([]domain.SignalInfo, []domain.OperatorSighting, error) {
	cells, err := s.collector.CollectRawMeasurements(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("collect cells: %w", err)
	}
	sightings := lo.FilterMap(cells, func(cell telephony.Cell, _ int) (domain.OperatorSighting, bool) {
		return s.parser.BroadcastName(cell)
	})

	return domain.Rank(s.parser.ParseAll(cells)), sightings, nil
}

// Observe starts an independent polling loop for this caller. The channel
// closes when ctx is cancelled or after a terminal error update.
func (s *Service) Observe(ctx context.Context) <-chan Update {
	out := make(chan Update)
	session := uuid.NewString()
	logger := s.logger.With("session", session)

	go func() {
		defer close(out)
		logger.Debug("observation started", "interval", s.interval)
		defer logger.Debug("observation stopped")

		for {
			if ctx.Err() != nil {
				return
			}

			update := s.cycle(ctx, session)
			if update.Err != nil && ctx.Err() != nil {
				return
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
			if update.Err != nil {
				logger.Warn("observation failed", "error", update.Err)

				return
			}
			if !sleepWithContext(ctx, s.interval) {
				return
			}
		}
	}()

	return out
}

// ObserveProviders is Observe grouped per carrier.
func (s *Service) ObserveProviders(ctx context.Context) <-chan ProviderUpdate {
	out := make(chan ProviderUpdate)
	in := s.Observe(ctx)

	go func() {
		defer close(out)
		for update := range in {
			mapped := ProviderUpdate{Session: update.Session, At: update.At, Err: update.Err}
			if update.Err == nil {
				mapped.Providers = domain.GroupByProvider(update.Signals)
			}
			select {
			case out <- mapped:
			case <-ctx.Done():
				// Drain so the producer can observe cancellation and exit.
				for range in {
				}

				return
			}
		}
	}()

	return out
}

// cycle runs one fetch, converting a panic into a terminal error.
func (s *Service) cycle(ctx context.Context, session string) (update Update) {
	update = Update{Session: session}
	defer func() {
		if r := recover(); r != nil {
			update = Update{Session: session, At: time.Now(), Err: fmt.Errorf("signal cycle panic: %v", r)}
		}
	}()

	signals, sightings, err := s.fetch(ctx)
	update.At = time.Now()
	if err != nil {
		update.Err = err

		return update
	}
	update.Signals = signals
	update.Sightings = sightings

	return update
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
