// Package terminal abstracts the display the interpreter draws on.
package terminal

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	tsize "github.com/kopoli/go-terminal-size"
	"golang.org/x/term"
)

const (
	KindAuto    = "auto"
	KindANSI    = "ansi"
	KindCommand = "command"
)

// Display is the screen-clearing capability the player needs.
type Display interface {
	Clear() error
}

// CursorDisplay is implemented by displays that can hide the cursor.
type CursorDisplay interface {
	Display
	ShowCursor(show bool) error
}

// ANSI clears with escape codes written to Writer.
type ANSI struct {
	Writer io.Writer
}

// Clear erases the screen and homes the cursor.
func (a *ANSI) Clear() error {
	_, err := io.WriteString(a.Writer, "\033[2J\033[H")
	return err
}

func (a *ANSI) ShowCursor(show bool) error {
	var err error
	if show {
		_, err = io.WriteString(a.Writer, "\033[?12l\033[?25h")
	} else {
		_, err = io.WriteString(a.Writer, "\033[?25l")
	}
	return err
}

// Command clears by running the host's clear command: cls on Windows, clear
// everywhere else.
type Command struct {
	Stdout io.Writer
	GOOS   string
}

func (c *Command) Clear() error {
	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	name, args := clearCommand(goos)
	cmd := exec.Command(name, args...)
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

func clearCommand(goos string) (string, []string) {
	if goos == "windows" {
		return "cmd", []string{"/c", "cls"}
	}
	return "clear", nil
}

// New returns the display named by kind. auto picks Command on Windows, where
// escape support depends on the console host, and ANSI elsewhere.
func New(kind string, w io.Writer) (Display, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		if runtime.GOOS == "windows" {
			return &Command{Stdout: w}, nil
		}
		return &ANSI{Writer: w}, nil
	case KindANSI:
		return &ANSI{Writer: w}, nil
	case KindCommand:
		return &Command{Stdout: w}, nil
	default:
		return nil, fmt.Errorf("unknown display %q (want %s, %s or %s)", kind, KindAuto, KindANSI, KindCommand)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Columns returns the width of the controlling terminal.
func Columns() (int, error) {
	size, err := tsize.GetSize()
	if err != nil {
		return 0, fmt.Errorf("terminal size: %w", err)
	}
	return size.Width, nil
}
