package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Level strings follow zerolog's naming;
// anything unrecognized falls back to info.
func New(levelStr string) zerolog.Logger {
	levelStr = strings.ToLower(strings.TrimSpace(levelStr))
	level := zerolog.InfoLevel
	switch levelStr {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	case "panic":
		level = zerolog.PanicLevel
	case "info":
		fallthrough
	default:
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "medcouncil").
		Logger().
		Level(level)

	return logger
}
