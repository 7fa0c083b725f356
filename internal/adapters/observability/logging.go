package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide logger: JSON lines on stdout for
// production, a human-friendly console writer when APP_ENV says dev.
// Supplier tokens and card numbers must never reach log fields; callers
// log hashes and masked forms only.
func NewLogger(appEnv string) zerolog.Logger {
	if appEnv == "dev" || appEnv == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
