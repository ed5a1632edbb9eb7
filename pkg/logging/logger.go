// Package logging provides structured logging for the services tooling using zerolog.
// It offers human-readable console output when attached to a terminal and
// structured JSON output everywhere else (CI, cron, pipes).
//
// Components never log through a package global. The CLI builds a logger
// from Config and hands it to the reconciler explicitly:
//
//	logger := logging.NewLoggerFromConfig(cfg)
//	r := reconciler.New(reconciler.WithLogger(&logger))
//
// Loggers can also travel through a context:
//
//	ctx := logging.WithLogger(context.Background(), &logger)
//	logging.FromContext(ctx).Info().Str("service", "youtube").Msg("Restored")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// defaultLogger is used by FromContext when a context carries no logger.
var defaultLogger = New(os.Stderr)

// Default returns the fallback logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// New creates a new logger with the given writer.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// NewConsole creates a new console logger for human-readable output.
func NewConsole(w io.Writer, noColor bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

// NewNop returns a pointer to a logger that discards everything.
func NewNop() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// isTerminal checks if the writer is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
