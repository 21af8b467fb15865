package backend

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewConsoleLogger builds a human-readable zerolog.Logger suitable for a
// Config.Logger field in local development or a demo driver. Production
// callers that already have a configured zerolog.Logger should set
// Config.Logger directly instead of going through this helper.
func NewConsoleLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}
