// internal/config/logging.go

package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global zerolog logger from c.Log.
// Unknown levels fall back to info.
func SetupLogging(c Config) {
	SetupLoggingTo(os.Stdout, c)
}

// SetupLoggingTo is SetupLogging with an explicit sink.
func SetupLoggingTo(w io.Writer, c Config) {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if c.Log.Format == "text" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: c.Env != "dev"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("env", c.Env).Logger()
}
