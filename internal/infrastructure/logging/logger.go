package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
)

// serviceName is attached to every record.
const serviceName = "raspicam"

// Logger is a slog.Logger carrying the bridge's service and version fields.
// It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger for cfg. Output "stderr" selects standard error;
// anything else writes to standard output.
func New(cfg config.LoggingConfig, version string) *Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		w = os.Stderr
	}
	return NewWithWriter(cfg, version, w)
}

// NewWithWriter is New with an explicit destination. cfg.Output is ignored.
// Format "text" selects slog's text handler; JSON is the default.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(h).With("service", serviceName, "version", version)}
}

// parseLevel maps a configured level name to slog. "warning" is accepted as
// an alias of "warn"; unrecognised names mean info.
func parseLevel(name string) slog.Level {
	name = strings.ToLower(name)
	if name == "warning" {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if name == "" || lvl.UnmarshalText([]byte(name)) != nil {
		return slog.LevelInfo
	}
	return lvl
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the logger used until the configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json"}, "dev")
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}
