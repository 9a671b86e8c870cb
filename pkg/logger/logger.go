// Package logger builds the *slog.Logger used by the shoptet CLI and adapts it
// to the shoptet.Logger interface.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New creates a *slog.Logger configured with the given level and format.
// Level: "debug", "info", "warn", "error" (default: "info").
// Format: "json", "console" or "text" (default: "text").
// Output goes to stderr.
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a *slog.Logger writing to w.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler

	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatConsole:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		})
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level string to slog.Level.
// Recognized values: "debug", "warn", "error". Everything else returns LevelInfo.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Adapter exposes a *slog.Logger as a shoptet.Logger.
type Adapter struct {
	logger *slog.Logger
}

// NewAdapter wraps l. A nil l uses slog.Default().
func NewAdapter(l *slog.Logger) *Adapter {
	if l == nil {
		l = slog.Default()
	}

	return &Adapter{logger: l}
}

// Debug implements shoptet.Logger.
func (a *Adapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, attrs(fields)...)
}

// Info implements shoptet.Logger.
func (a *Adapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, attrs(fields)...)
}

// Warn implements shoptet.Logger.
func (a *Adapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, attrs(fields)...)
}

// Error implements shoptet.Logger.
func (a *Adapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, attrs(fields)...)
}

func attrs(fields map[string]interface{}) []any {
	out := make([]any, 0, len(fields))
	for key, value := range fields {
		out = append(out, slog.Any(key, value))
	}

	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

var _ shoptet.Logger = (*Adapter)(nil)
