// Package logging builds the structured stderr logger shared by every
// subsystem.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error") in the named format ("text" or "json").
func New(w io.Writer, level, format string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl := log.InfoLevel
	if level != "" {
		l, err := log.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = l
	}
	opts := log.Options{
		Prefix:          "chartscout",
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}
	switch strings.ToLower(format) {
	case "", FormatText:
		opts.Formatter = log.TextFormatter
	case FormatJSON:
		opts.Formatter = log.JSONFormatter
		opts.TimeFormat = time.RFC3339
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	return log.NewWithOptions(w, opts), nil
}

// Component returns a child logger tagged with the subsystem name.
func Component(l *log.Logger, name string) *log.Logger {
	return l.With("component", name)
}

// Discard is a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
