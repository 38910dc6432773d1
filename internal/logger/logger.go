package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns the service logger. Output is JSON with a "severity" level field so Cloud Logging
// parses levels; development switches to the console writer and debug level.
func New(environment string) zerolog.Logger {
	return NewWithWriter(os.Stderr, environment)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, environment string) zerolog.Logger {
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(w).With().Timestamp().Str("app", "creatorhub").Logger()

	if environment == "development" {
		return logger.Output(zerolog.ConsoleWriter{Out: w}).Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}
