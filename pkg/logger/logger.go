package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New — логгер по умолчанию, до чтения конфигурации.
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", "lesson-service").
		Logger().
		Level(zerolog.InfoLevel)
}

// NewWithConfig строит логгер по секции logging конфигурации.
func NewWithConfig(level string, pretty, noColor bool) zerolog.Logger {
	var log zerolog.Logger

	if pretty {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
		log = zerolog.New(output).With().Timestamp().Str("service", "lesson-service").Logger()
	} else {
		log = zerolog.New(os.Stdout).With().Timestamp().Str("service", "lesson-service").Logger()
	}

	switch level {
	case "debug":
		log = log.Level(zerolog.DebugLevel)
	case "info":
		log = log.Level(zerolog.InfoLevel)
	case "warn":
		log = log.Level(zerolog.WarnLevel)
	case "error":
		log = log.Level(zerolog.ErrorLevel)
	default:
		log = log.Level(zerolog.InfoLevel)
	}

	return log
}
