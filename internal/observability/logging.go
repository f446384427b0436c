// Package observability builds the structured logger and the optional
// OpenTelemetry tracing pipeline.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/musher-dev/dtt/internal/paths"
)

const (
	redactedValue = "[REDACTED]"

	maxLogBytes  = 10 << 20
	maxLogFiles  = 3
	stderrAuto   = "auto"
	formatJSON   = "json"
	formatText   = "text"
	defaultLevel = "info"
)

type contextKey struct{}

// Config holds the configuration for the observability logger.
type Config struct {
	Level      string
	Format     string
	LogFile    string
	StderrMode string
	// InteractiveTTY disables stderr logging in auto mode; the log then goes
	// to the default log file unless LogFile is set.
	InteractiveTTY bool
	SessionID      string
	CommandPath    string
	Version        string
	Commit         string
}

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from ctx, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return slog.Default()
}

// NewLogger creates a structured logger from the given configuration. The
// returned cleanup closes the log file, if any.
func NewLogger(cfg *Config) (*slog.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	stderrEnabled, err := shouldEnableStderr(cfg.StderrMode, cfg.InteractiveTTY)
	if err != nil {
		return nil, nil, err
	}

	logFile := strings.TrimSpace(cfg.LogFile)
	if !stderrEnabled && logFile == "" {
		logFile, err = paths.DefaultLogFile()
		if err != nil {
			return nil, nil, fmt.Errorf("no log sinks configured: set --log-file or enable --log-stderr: %w", err)
		}
	}

	writers := make([]io.Writer, 0, 2)
	closers := make([]io.Closer, 0, 1)

	if stderrEnabled {
		writers = append(writers, os.Stderr)
	}

	if logFile != "" {
		file, openErr := openLogFile(logFile)
		if openErr != nil {
			return nil, nil, openErr
		}

		writers = append(writers, file)
		closers = append(closers, file)
	}

	cleanup := func() error {
		var errs []error
		for _, closer := range closers {
			errs = append(errs, closer.Close())
		}

		return errors.Join(errs...)
	}

	handler, err := newHandler(cfg.Format, io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	})
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	logger := slog.New(handler).With(
		slog.String("session.id", cfg.SessionID),
		slog.String("command.path", cfg.CommandPath),
		slog.String("dtt.version", cfg.Version),
		slog.String("dtt.commit", cfg.Commit),
	)

	return logger, cleanup, nil
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", formatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case formatText:
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("invalid log format: %q (allowed: json, text)", format)
	}
}

func openLogFile(path string) (*os.File, error) {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return nil, fmt.Errorf("create log file directory: %w", err)
	}

	if err := rotateLogFile(cleanPath, maxLogBytes, maxLogFiles); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(cleanPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

// rotateLogFile renames path to path.1 once it reaches maxBytes, shifting
// older backups up and dropping anything past keep.
func rotateLogFile(path string, maxBytes int64, keep int) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}

	if info.Size() < maxBytes {
		return nil
	}

	for i := keep - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", path, i)
		to := fmt.Sprintf("%s.%d", path, i+1)

		if err := os.Rename(from, to); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("rotate log file: %w", err)
		}
	}

	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}

	return nil
}

func shouldEnableStderr(mode string, interactiveTTY bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", stderrAuto:
		return !interactiveTTY, nil
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --log-stderr value %q (allowed: auto, on, off)", mode)
	}
}

func parseLevel(level string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", defaultLevel:
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("invalid log level: %q (allowed: error, warn, info, debug)", level)
	}
}

func redactAttr(_ []string, attr slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(attr.Key)) {
		return slog.String(attr.Key, redactedValue)
	}

	return attr
}

func isSensitiveKey(key string) bool {
	if key == "authorization" {
		return true
	}

	for _, pattern := range []string{"token", "api_key", "apikey", "secret", "credential", "password"} {
		if strings.Contains(key, pattern) {
			return true
		}
	}

	return false
}
