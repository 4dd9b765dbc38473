package cli

import (
	"io"
	"log/slog"

	"golang.org/x/term"
)

// TerminalDetector reports whether a file descriptor is a terminal; tests
// substitute a fixed answer
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector asks golang.org/x/term
type DefaultTerminalDetector struct{}

func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	ok := term.IsTerminal(fd)
	slog.Debug("terminal detection", "fd", fd, "is_terminal", ok)
	return ok
}

func (c *CLI) isInteractiveTerminal(fd int) bool {
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	return c.terminalDetector.IsTerminal(fd)
}

// decorated reports whether w is an interactive terminal that can show
// colour and progress bars
func (c *CLI) decorated(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return c.isInteractiveTerminal(int(f.Fd()))
}
