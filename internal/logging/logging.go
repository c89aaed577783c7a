// Package logging configures the zerolog logger shared by the CLI and
// server.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger writing to out. Format "text" produces a
// human-readable console stream; anything else produces JSON lines.
func New(out io.Writer, level, format string) zerolog.Logger {
	lvl := parseLevel(level)

	if format == "text" || format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
