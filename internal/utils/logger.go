package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the root logger for a flight. Every entry carries the
// flight ID so runs can be told apart in aggregated logs.
func NewLogger(config LogConfig, out io.Writer, flightID string) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if config.Level != "" {
		parsed, err := zerolog.ParseLevel(config.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
		level = parsed
	}

	switch config.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", config.Format)
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("flight_id", flightID).
		Logger(), nil
}
