package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/detekto/cellwatch/internal/api"
	"github.com/detekto/cellwatch/internal/app"
	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/config"
	"github.com/detekto/cellwatch/internal/connectors"
	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/platform"
)

const onceTimeout = 30 * time.Second

type options struct {
	configPath string
	fixture    string
	once       bool
	listenFor  time.Duration
	apiListen  string
	logLevel   string
	logFile    bool
	traceAT    bool
	version    bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("run cellwatch", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet(app.Name, flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "config file path (default: user config dir)")
	fs.StringVar(&opts.fixture, "fixture", "", "read cells from a YAML fixture instead of modems")
	fs.BoolVar(&opts.once, "once", false, "print one ranked snapshot and exit")
	fs.DurationVar(&opts.listenFor, "listen-for", 0, "stop after this duration, e.g. 30s")
	fs.StringVar(&opts.apiListen, "api", "", "serve the HTTP/websocket API on this address")
	fs.StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	fs.BoolVar(&opts.logFile, "log-file", false, "also append logs to the log file in the data dir")
	fs.BoolVar(&opts.traceAT, "trace-at", false, "log raw AT command traffic")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.listenFor < 0 {
		return options{}, errors.New("listen-for must not be negative")
	}

	return opts, nil
}

// apply overlays command-line flags on the loaded config.
func (o options) apply(cfg *config.AppConfig) {
	if fixture := strings.TrimSpace(o.fixture); fixture != "" {
		cfg.Source.Kind = config.SourceFixture
		cfg.Source.FixturePath = fixture
	}
	if listen := strings.TrimSpace(o.apiListen); listen != "" {
		cfg.API.Enabled = true
		cfg.API.Listen = listen
	}
	if o.once {
		// Keep stdout readable for the table.
		cfg.Logging.Level = "warn"
	}
	if level := strings.TrimSpace(o.logLevel); level != "" {
		cfg.Logging.Level = level
	}
	if o.logFile {
		cfg.Logging.LogToFile = true
	}
	if o.traceAT {
		cfg.Logging.Level = "debug"
	}
}

func resolvePaths(configPath string) (app.Paths, error) {
	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		return app.ResolvePaths()
	}
	paths, err := app.PathsIn(filepath.Dir(configPath))
	if err != nil {
		return app.Paths{}, err
	}
	paths.ConfigFile = configPath

	return paths, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		_, err := fmt.Fprintln(stdout, app.CurrentBuildInfo())

		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.listenFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.listenFor)
		defer cancel()
	}

	paths, err := resolvePaths(opts.configPath)
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	lock, err := platform.AcquireDirLock(app.Name, paths.RootDir)
	if err != nil {
		return fmt.Errorf("lock %s: %w", paths.RootDir, err)
	}
	defer func() { _ = lock.Release() }()

	rt, err := app.Initialize(ctx, app.Options{Paths: &paths, Override: opts.apply})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close runtime", "error", closeErr)
		}
	}()
	logger := rt.LogManager.Logger("cli")

	if opts.once {
		fetchCtx, cancel := context.WithTimeout(ctx, onceTimeout)
		defer cancel()
		signals, err := rt.Signals.Fetch(fetchCtx)
		if err != nil {
			return fmt.Errorf("fetch signals: %w", err)
		}

		return printSignals(stdout, signals)
	}

	watch(rt.Ctx, rt.Bus, logger, opts.traceAT)
	rt.Start()

	cfg := rt.CurrentConfig()
	if cfg.API.Enabled {
		server := api.NewServer(rt.Monitor, rt, rt.Bus, rt.LogManager.Logger("api"))
		apiErr := make(chan error, 1)
		go func() { apiErr <- server.ListenAndServe(ctx, cfg.API.Listen) }()
		select {
		case err := <-apiErr:
			if err != nil {
				return fmt.Errorf("api server: %w", err)
			}
		case <-ctx.Done():
			<-apiErr
		}

		return nil
	}

	logger.Info("watching signals until interrupt", "source", cfg.Source.Kind, "interval_ms", cfg.Polling.IntervalMS)
	<-ctx.Done()

	return nil
}

// watch is the log view: one line per carrier on every snapshot. The returned
// channel closes once the view stops, on cancel or when the bus shuts down.
func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger, traceAT bool) <-chan struct{} {
	snapshotSub := b.Subscribe(connectors.TopicSignalSnapshot)
	connSub := b.Subscribe(connectors.TopicConnStatus)
	learnedSub := b.Subscribe(connectors.TopicOperatorLearned)
	var rawInSub, rawOutSub bus.Subscription
	if traceAT {
		rawInSub = b.Subscribe(connectors.TopicRawLineIn)
		rawOutSub = b.Subscribe(connectors.TopicRawLineOut)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var lastGood time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-snapshotSub:
				if !ok {
					return
				}
				state, ok := raw.(app.SignalState)
				if !ok {
					continue
				}
				if state.Error != "" {
					logger.Warn("signal poll failed", "error", state.Error, "last_update", lastUpdate(lastGood))

					continue
				}
				lastGood = state.UpdatedAt
				logSnapshot(logger, state)
			case raw, ok := <-connSub:
				if !ok {
					return
				}
				if status, ok := raw.(connectors.ConnectionStatus); ok {
					logger.Info("modem", "name", status.Modem, "state", status.State, "transport", status.TransportName, "target", status.Target, "error", status.Err)
				}
			case raw, ok := <-learnedSub:
				if !ok {
					return
				}
				if learned, ok := raw.(domain.LearnedOperator); ok {
					logger.Info("learned operator name", "code", learned.Code, "name", learned.Name)
				}
			case raw, ok := <-rawOutSub:
				if !ok {
					return
				}
				if line, ok := raw.(connectors.RawLine); ok {
					logger.Debug("at-out", "modem", line.Modem, "line", line.Text)
				}
			case raw, ok := <-rawInSub:
				if !ok {
					return
				}
				if line, ok := raw.(connectors.RawLine); ok {
					logger.Debug("at-in", "modem", line.Modem, "line", line.Text)
				}
			}
		}
	}()

	return done
}

func logSnapshot(logger *slog.Logger, state app.SignalState) {
	if !state.HasPermission {
		logger.Warn("location permission not granted, no cells read")

		return
	}
	if len(state.Providers) == 0 {
		logger.Info("no cells visible")

		return
	}
	for _, provider := range state.Providers {
		techs := make([]string, 0, len(provider.NetworkSignals))
		for _, s := range provider.NetworkSignals {
			techs = append(techs, fmt.Sprintf("%s %d%%", domain.NetworkGeneration(s.NetworkType), s.SignalStrengthPercent))
		}
		logger.Info(
			"carrier",
			"name", provider.OperatorName,
			"code", provider.OperatorCode,
			"registered", provider.IsRegistered,
			"best_percent", provider.BestSignalPercent(),
			"quality", provider.Quality(),
			"networks", strings.Join(techs, ", "),
		)
	}
}

func lastUpdate(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return humanize.Time(t)
}

func printSignals(w io.Writer, signals []domain.SignalInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "OPERATOR\tCODE\tNETWORK\tDBM\tSIGNAL\tSERVING"); err != nil {
		return err
	}
	for _, s := range signals {
		serving := ""
		if s.IsRegistered {
			serving = "yes"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d%%\t%s\n",
			s.OperatorName, s.OperatorCode, s.NetworkType, s.SignalStrengthDbm, s.SignalStrengthPercent, serving); err != nil {
			return err
		}
	}

	return tw.Flush()
}
