// Package logging builds the charmbracelet loggers used across graphlens.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Params controls logger construction.
type Params struct {
	Debug bool
	// File receives log output when set. Otherwise output goes to the writer
	// passed to New.
	File string
}

// New creates a logger with timestamps writing to w.
func New(w io.Writer, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}

// Open returns a logger for p. With no file configured it writes to
// fallback. The returned closer must be called on shutdown.
func Open(p Params, fallback io.Writer) (*log.Logger, io.Closer, error) {
	if p.File == "" {
		return New(fallback, p.Debug), nopCloser{}, nil
	}
	f, err := os.OpenFile(p.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return New(f, p.Debug), f, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
