package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to stderr.
// env dev (or development) uses a human-friendly console writer; level is
// parsed with zerolog.ParseLevel and defaults to info.
func NewLogger(env, level string) zerolog.Logger {
	var w io.Writer = os.Stderr
	if env == "dev" || env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
