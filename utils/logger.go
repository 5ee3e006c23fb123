package utils

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides leveled logging throughout the application. It wraps
// zerolog behind a small printf-style API so components never touch the
// logging backend directly.
type Logger struct {
	z zerolog.Logger
}

// NewLogger creates a Logger writing human-readable output to stderr.
// Unknown level strings fall back to info.
func NewLogger(level string) *Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}
	return &Logger{
		z: zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger(),
	}
}

// NewNopLogger returns a Logger that discards all output. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{z: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.z.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.z.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.z.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.z.Debug().Msgf(format, args...)
}
