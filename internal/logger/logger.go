// Package logger provides leveled structured logging.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(io.Discard)

// Init initializes the default logger with the specified level and format.
// Format "text" selects a human-readable console writer; anything else emits JSON.
func Init(level string, format string) {
	InitWriter(os.Stderr, level, format)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level string, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if strings.ToLower(format) == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.StampMicro}
	}
	log = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Level returns the active level.
func Level() zerolog.Level { return log.GetLevel() }

// With returns a child logger carrying component as a field, for callers that
// want structured fields instead of printf messages.
func With(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func Debug(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

func Info(format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}

func Warn(format string, args ...interface{}) {
	log.Warn().Msgf(format, args...)
}

func Error(format string, args ...interface{}) {
	log.Error().Msgf(format, args...)
}

func Fatal(format string, args ...interface{}) {
	log.WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	os.Exit(1)
}
