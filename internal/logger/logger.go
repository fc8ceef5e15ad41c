// Package logger constructs the process-wide zerolog handle. The logger is
// built exactly once at startup and handed to every component that emits
// diagnostics; nothing in the codebase logs through package-level state.
package logger

import (
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to stderr at the given level.
// Unknown level strings fall back to info rather than failing startup.
func New(level string) zerolog.Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter is New with an explicit output, used by tests to capture
// log lines.
func NewWithWriter(level string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	w := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ErrorChain logs err at error level followed by one line per wrapped
// cause, so the full context of an internal failure is visible. Both the
// 404-vs-500 classifier and top-level error reporting use the same chain.
func ErrorChain(log zerolog.Logger, msg string, err error) {
	log.Error().Err(err).Msg(msg)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		log.Error().Msgf("caused by: %s", cause)
	}
}
