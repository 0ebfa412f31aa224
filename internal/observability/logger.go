package observability

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/couchcryptid/disdro-l0/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the run logger from LOG_LEVEL and LOG_FORMAT. When a log
// file is configured, output is also written to a size-rotated file. The
// returned closer flushes and closes that file.
func NewLogger(cfg *config.Config) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    50, // megabytes
				MaxBackups: 5,
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, lj)
			closer = lj
		}
	}
	return slog.New(newHandler(out, cfg.LogLevel, cfg.LogFormat)), closer
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.ToLower(format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
