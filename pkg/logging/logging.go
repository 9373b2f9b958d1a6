// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logWriter is the destination for all configured loggers. Tests swap it
// to capture output.
var logWriter io.Writer = os.Stderr

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// SetLogWriter overrides the destination used by Configure.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Configure sets the global logger to the given level and format. Format
// "json" emits structured JSON; anything else gets a console writer.
// An unknown level falls back to info.
func Configure(levelStr, format string) {
	level := parseLogLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	w := logWriter
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: logWriter, TimeFormat: time.RFC3339}
	}

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger
}

func parseLogLevel(levelStr string) zerolog.Level {
	if levelStr == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		log.Error().Err(err).Str("logLevel", levelStr).Msg("Invalid log level provided. Defaulting to info level.")
		return zerolog.InfoLevel
	}
	return level
}
