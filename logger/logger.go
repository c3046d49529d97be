package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development gets a console writer, anything else JSON.
func New(service, level, environment string) zerolog.Logger {
	return NewWithWriter(os.Stdout, service, level, environment)
}

func NewWithWriter(w io.Writer, service, level, environment string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if environment == "development" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", service).Logger()
}
