package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the process logger. level is a zerolog level name
// ("debug", "info", ...); format "json" writes structured lines, anything
// else writes human-readable console output to stderr.
// It ensures that the logger is initialized only once.
func Init(level, format string) {
	once.Do(func() {
		defaultLogger = New(os.Stderr, level, format)
		defaultLogger.Debug().Msg("Logger initialized")
	})
}

// New builds a standalone logger writing to w.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if !strings.EqualFold(format, "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Get returns the initialized default logger.
// It calls Init() with defaults when nothing initialized it yet.
func Get() zerolog.Logger {
	Init("info", "text")
	return defaultLogger
}

// Info logs an informational message using the default logger.
func Info(msg string, fields map[string]any) {
	l := Get()
	l.Info().Fields(fields).Msg(msg)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, fields map[string]any) {
	l := Get()
	l.Warn().Fields(fields).Msg(msg)
}

// Error logs an error message using the default logger.
func Error(msg string, err error, fields map[string]any) {
	l := Get()
	l.Error().Err(err).Fields(fields).Msg(msg)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, fields map[string]any) {
	l := Get()
	l.Debug().Fields(fields).Msg(msg)
}
