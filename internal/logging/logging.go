// Package logging builds the zerolog logger shared by the commands.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type Options struct {
	Level string // debug, info, warn, error; default warn
	JSON  bool
	File  string // append here instead of stderr when set
}

// New returns a logger and a close func that releases the log file, if any.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	var out io.Writer = os.Stderr
	closer := func() error { return nil }
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		out = f
		closer = f.Close
	}

	return NewWithWriter(out, level, opts.JSON), closer, nil
}

func NewWithWriter(w io.Writer, level zerolog.Level, json bool) zerolog.Logger {
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
