// Package logging builds the zerolog logger used by mrupdate commands.
package logging

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh/terminal"
)

type Options struct {
	Verbose bool
	Quiet   bool

	// Level overrides Verbose and Quiet when set, e.g. from LOG_LEVEL.
	Level string

	// Format is one of "auto", "console" or "json". Auto picks console
	// output on a terminal.
	Format string
}

// OptionsFromEnv fills empty fields from LOG_LEVEL and LOG_FORMAT.
func OptionsFromEnv(o Options) Options {
	if o.Level == "" {
		o.Level = os.Getenv("LOG_LEVEL")
	}
	if o.Format == "" {
		o.Format = os.Getenv("LOG_FORMAT")
	}
	return o
}

// level returns the log level selected by o. Quiet wins over Verbose.
func (o Options) level() zerolog.Level {
	if o.Level != "" {
		if l, err := zerolog.ParseLevel(o.Level); err == nil && l != zerolog.NoLevel {
			return l
		}
	}
	switch {
	case o.Quiet:
		return zerolog.WarnLevel
	case o.Verbose:
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// New returns a logger writing to f.
func New(f *os.File, o Options) zerolog.Logger {
	term := TermInfo(int(f.Fd()))
	console := false
	switch o.Format {
	case "console", "pretty":
		console = true
	case "json":
	default:
		console = term.TTY
	}
	return newLogger(f, o.level(), console, term.Color)
}

func newLogger(out io.Writer, level zerolog.Level, console, color bool) zerolog.Logger {
	w := out
	if console {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    !color,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Output width bounds for diagnostics and tables.
const (
	DefaultWidth = 80
	MinWidth     = 40
	MaxWidth     = 160
)

// Term describes how output on a file descriptor is rendered.
type Term struct {
	TTY   bool
	Color bool
	Width int
}

// TermInfo inspects fd. COLUMNS overrides the detected width, FORCE_COLOR
// enables color off a terminal and NO_COLOR disables it everywhere.
func TermInfo(fd int) Term {
	tty := terminal.IsTerminal(fd)
	return termInfo(tty, func() (int, error) {
		w, _, err := terminal.GetSize(fd)
		return w, err
	}, os.LookupEnv)
}

func termInfo(tty bool, size func() (int, error), lookup func(string) (string, bool)) Term {
	t := Term{TTY: tty, Color: tty, Width: DefaultWidth}
	if v, ok := lookup("FORCE_COLOR"); ok && v != "0" && v != "false" {
		t.Color = true
	}
	// See https://no-color.org
	if v, ok := lookup("NO_COLOR"); ok && v != "" {
		t.Color = false
	}

	cols, _ := lookup("COLUMNS")
	if n, err := strconv.Atoi(cols); err == nil && n > 0 {
		t.Width = n
	} else if tty {
		if w, err := size(); err == nil && w > 0 {
			t.Width = w
		}
	}
	switch {
	case t.Width < MinWidth:
		t.Width = MinWidth
	case t.Width > MaxWidth:
		t.Width = MaxWidth
	}
	return t
}
