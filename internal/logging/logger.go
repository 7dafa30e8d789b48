// Package logging provides the controller's structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewLogger creates a logger writing to w. Format is one of auto, console
// or json; auto selects console output when w is a terminal.
func NewLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer
	switch format {
	case FormatAuto, "":
		if isTerminal(w) {
			out = consoleWriter(w)
		} else {
			out = w
		}
	case FormatConsole:
		out = consoleWriter(w)
	case FormatJSON:
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (want auto, console or json)", format)
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("component", "ctrl-vpces").
		Logger(), nil
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
