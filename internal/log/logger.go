package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production output is plain JSON so log
// shippers can parse it; everything else gets the console writer.
func New(environment, service string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if environment != "production" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	level := zerolog.InfoLevel
	if environment != "production" {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("env", environment).
		Str("service", service).
		Logger()
}

// Component tags a logger with the subsystem name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
