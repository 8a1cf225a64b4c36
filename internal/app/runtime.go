package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/connectors"
	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/logging"
	"github.com/detekto/cellwatch/internal/notifications"
	"github.com/detekto/cellwatch/internal/persistence"
	"github.com/detekto/cellwatch/internal/signal"
	"github.com/detekto/cellwatch/internal/telephony"
)

const shutdownFlushTimeout = 2 * time.Second

// Options tune Initialize. The zero value resolves paths from the user
// config dir and sends desktop notifications.
type Options struct {
	Paths *Paths
	// Override adjusts the loaded config without persisting it (CLI flags).
	Override func(*config.AppConfig)
	Sender   notifications.Sender
}

type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB

	OperatorRepo *persistence.OperatorRepo
	WriterQueue  *persistence.WriterQueue
	Operators    *domain.OperatorDirectory

	Source        *SwitchableSource
	Signals       *signal.Service
	Monitor       *Monitor
	Notifications *NotificationService

	connStatusMu sync.RWMutex
	connStatus   map[string]connectors.ConnectionStatus
}

// Initialize wires the runtime but starts no polling; call Start for that.
func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	var paths Paths
	if opts.Paths != nil {
		paths = *opts.Paths
	} else {
		resolved, err := ResolvePaths()
		if err != nil {
			return nil, err
		}
		paths = resolved
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Override != nil {
		opts.Override(&cfg)
		cfg.FillMissingDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", paths.ConfigFile, err)
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:        ctx,
		cancel:     cancel,
		Paths:      paths,
		Config:     cfg,
		connStatus: make(map[string]connectors.ConnectionStatus),
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()

		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting cellwatch runtime", "version", BuildVersion(), "build_date", BuildDateYMD(), "source", cfg.Source.Kind)

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		_ = rt.Close()

		return nil, err
	}
	rt.DB = db
	rt.OperatorRepo = persistence.NewOperatorRepo(db)

	operators := domain.NewOperatorDirectory()
	if err := domain.LoadDirectoryFromRepository(ctx, operators, rt.OperatorRepo); err != nil {
		_ = rt.Close()

		return nil, err
	}
	rt.Operators = operators

	b := bus.New(logMgr.Logger("bus"), bus.WithQuietTopics(connectors.TopicRawLineIn, connectors.TopicRawLineOut))
	rt.Bus = b
	if cfg.Source.Kind == config.SourceModem {
		for _, modem := range cfg.Source.Modems {
			rt.setConnStatus(InitialModemStatus(modem))
		}
	}

	rt.WriterQueue = persistence.NewWriterQueue(logMgr.Logger("persistence"), WriterQueueCapacity)

	source, err := NewSwitchableSource(cfg.Source, b, logMgr.Logger("radio"))
	if err != nil {
		_ = rt.Close()

		return nil, fmt.Errorf("initialize radio source: %w", err)
	}
	rt.Source = source

	// A typed nil directory must not reach the parser as a NameLookup.
	var names domain.NameLookup
	if cfg.Operators.LearnNames {
		names = operators
	}
	permissions := NewConfigPermissions(rt.CurrentConfig)
	collector := telephony.NewCollector(permissions, source, source, logMgr.Logger("telephony"))
	parser := telephony.Parser{APILevel: cfg.Source.APILevel, Names: names}
	interval := time.Duration(cfg.Polling.IntervalMS) * time.Millisecond
	rt.Signals = signal.NewService(collector, parser, interval, logMgr.Logger("signal"))
	rt.Monitor = NewMonitor(rt.Signals, permissions, b, rt.learnNames, logMgr.Logger("monitor"))

	sender := opts.Sender
	if sender == nil {
		sender = notifications.NewDesktopSender(Name, "", logMgr.Logger("notifications"))
	}
	rt.Notifications = NewNotificationService(b, rt.CurrentConfig, sender, logMgr.Logger("notifications"))

	return rt, nil
}

// Start launches the background workers and the polling monitor.
func (r *Runtime) Start() {
	ctx := r.Ctx
	connSub := r.Bus.Subscribe(connectors.TopicConnStatus)
	go r.captureConnStatus(ctx, connSub)

	r.WriterQueue.Start(ctx)
	r.Operators.Start(ctx, r.Bus)
	domain.StartPersistenceProjection(ctx, r.Bus, r.WriterQueue, r.OperatorRepo)
	r.Notifications.Start(ctx)
	r.Monitor.Start(ctx)
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

func (r *Runtime) learnNames() bool {
	return r.CurrentConfig().Operators.LearnNames
}

func (r *Runtime) captureConnStatus(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(connectors.ConnectionStatus)
			if !ok {
				continue
			}
			r.setConnStatus(status)
		}
	}
}

func (r *Runtime) setConnStatus(status connectors.ConnectionStatus) {
	r.connStatusMu.Lock()
	r.connStatus[status.Modem] = status
	r.connStatusMu.Unlock()
}

// ConnStatuses lists the last known status of every modem, by modem name.
func (r *Runtime) ConnStatuses() []connectors.ConnectionStatus {
	r.connStatusMu.RLock()
	out := make([]connectors.ConnectionStatus, 0, len(r.connStatus))
	for _, status := range r.connStatus {
		out = append(out, status)
	}
	r.connStatusMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Modem < out[j].Modem })

	return out
}

// SaveAndApplyConfig persists cfg and applies what can change live: logging,
// permissions, notification toggles, name learning and the radio source.
// The polling interval and API level take effect on the next start.
func (r *Runtime) SaveAndApplyConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()

		return err
	}
	r.Config = cfg
	r.mu.Unlock()

	if err := r.LogManager.Configure(cfg.Logging, r.Paths.LogFile); err != nil {
		return err
	}
	if r.Source != nil {
		if err := r.Source.Apply(cfg.Source); err != nil {
			return fmt.Errorf("apply radio source: %w", err)
		}
	}

	return nil
}

// ClearDatabase forgets every learned operator name.
func (r *Runtime) ClearDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := persistence.ClearDatabase(ctx, r.DB); err != nil {
		return err
	}
	if r.Operators != nil {
		r.Operators.Reset()
	}
	slog.Info("database cleared")

	return nil
}

func (r *Runtime) Close() error {
	if r.WriterQueue != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
		if err := r.WriterQueue.Wait(flushCtx); err != nil {
			slog.Warn("pending database writes dropped", "error", err)
		}
		cancel()
	}
	if r.cancel != nil {
		r.cancel()
	}
	// Modems publish their final status while closing.
	if r.Source != nil {
		_ = r.Source.Close()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.DB != nil {
		_ = r.DB.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}

	return nil
}
