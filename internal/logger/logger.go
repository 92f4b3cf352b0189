package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	defaultLogger *slog.Logger
)

// Init sets up the global logger on stdout.
func Init(level string, json bool) {
	InitWithWriter(os.Stdout, level, json)
}

// InitWithWriter is Init with an explicit sink; tests pass io.Discard.
func InitWithWriter(w io.Writer, level string, json bool) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
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

// Get returns the global logger, initialising it at info level on first use.
func Get() *slog.Logger {
	if defaultLogger == nil {
		Init("info", false)
	}
	return defaultLogger
}

// ForRoom scopes the logger to one room code.
func ForRoom(code string) *slog.Logger {
	return Get().With("room", code)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// Fatal logs at error level and exits.
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
