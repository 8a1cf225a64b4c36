package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/detekto/cellwatch/internal/config"
)

// Manager owns the process logger and the optional log file. Every logger it
// hands out reads the same LevelVar, so a reconfigure also changes the level
// of component loggers created earlier.
type Manager struct {
	mu     sync.RWMutex
	level  slog.LevelVar
	logger *slog.Logger
	file   *os.File
}

func NewManager() *Manager {
	m := &Manager{}
	m.logger = m.newLogger(os.Stdout)

	return m
}

// Discard returns a logger that drops everything, for tests and one-shot tools.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Configure applies cfg and installs the result as the slog default. With
// LogToFile the output also goes to filePath, appended across runs.
func (m *Manager) Configure(cfg config.LoggingConfig, filePath string) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var file *os.File
	if cfg.LogToFile {
		// #nosec G304 -- path is resolved by the app runtime inside the data dir.
		file, err = os.OpenFile(filepath.Clean(filePath), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		_ = m.file.Close()
	}
	m.file = file

	var out io.Writer = os.Stdout
	if file != nil {
		out = teeWriter{os.Stdout, file}
	}
	m.level.Set(level)
	m.logger = m.newLogger(out)
	slog.SetDefault(m.logger)

	return nil
}

func (m *Manager) newLogger(out io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: &m.level}))
}

func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger.With("component", component)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil

	return err
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	switch value := strings.ToLower(strings.TrimSpace(raw)); value {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	default:
		if err := level.UnmarshalText([]byte(value)); err != nil {
			return 0, fmt.Errorf("unsupported log level: %q", raw)
		}
	}

	return level, nil
}

// teeWriter writes to every sink and only fails when none accepted the
// record, so a closed stdout under a service manager does not stop the file.
type teeWriter []io.Writer

func (t teeWriter) Write(p []byte) (int, error) {
	var errs []error
	for _, sink := range t {
		if _, err := sink.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(t) && len(errs) > 0 {
		return 0, errs[0]
	}

	return len(p), nil
}
