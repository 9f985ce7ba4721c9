// Package logging configures the zerolog logger shared by the shelve
// commands.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Verbose enables debug level.
	Verbose bool

	// JSON forces JSON lines even on a terminal.
	JSON bool

	// Out defaults to os.Stderr.
	Out io.Writer
}

// New returns a logger writing human-readable lines to a terminal and JSON
// lines otherwise.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if !opts.JSON && isTerminal(out) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Discard returns a logger that drops everything.
func Discard() zerolog.Logger {
	return zerolog.Nop()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
