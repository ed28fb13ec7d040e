// Package logger wraps zerolog setup for the CLI.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a console logger writing to stderr. Commands that own the
// terminal with a TUI pass quiet so only errors interleave with the
// interface.
func New(quiet bool) zerolog.Logger {
	level := zerolog.DebugLevel
	if quiet {
		level = zerolog.ErrorLevel
	}
	writer := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})
	return zerolog.New(writer).With().Timestamp().Logger().Level(level)
}
