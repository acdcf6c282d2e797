package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a level name onto a zerolog level. "warning" and "critical"
// are accepted as aliases of warn and error.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error", "critical":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
}

// Setup configures the global logger. Console output is meant for local
// development; everything else gets JSON on stderr.
func Setup(level string, console bool) error {
	return SetupWriter(os.Stderr, level, console)
}

// SetupWriter is Setup with an explicit destination
func SetupWriter(w io.Writer, level string, console bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}

// WithLevel returns a copy of logger at the requested level. An empty or
// unknown name keeps the logger's own level.
func WithLevel(logger zerolog.Logger, name string) zerolog.Logger {
	if strings.TrimSpace(name) == "" {
		return logger
	}
	lvl, err := ParseLevel(name)
	if err != nil {
		logger.Warn().Str("log_lvl", name).Msg("ignoring unknown log level")
		return logger
	}
	return logger.Level(lvl)
}
