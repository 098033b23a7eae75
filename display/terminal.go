package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Terminal draws the panel as a bordered box on a terminal. It stands in for
// the OLED when running on a development machine.
type Terminal struct {
	out   io.Writer
	cols  int
	lines int
	frame lipgloss.Style
	text  lipgloss.Style

	mu      sync.Mutex
	pending []string
	drawn   bool
}

func NewTerminal(out io.Writer, cols, lines int) *Terminal {
	return &Terminal{
		out:   out,
		cols:  cols,
		lines: lines,
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		text: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// NewStdout returns a Terminal on stdout, or an error when stdout is not a
// terminal wide enough for the panel.
func NewStdout(cols, lines int) (*Terminal, error) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("display: stdout is not a terminal")
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	if w < cols+4 || h < lines+2 {
		return nil, fmt.Errorf("display: terminal %dx%d too small for %dx%d panel", w, h, cols, lines)
	}
	return NewTerminal(os.Stdout, cols, lines), nil
}

func (t *Terminal) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
	return nil
}

func (t *Terminal) RenderLines(lines []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending[:0], lines...)
	return nil
}

func (t *Terminal) box() string {
	rows := make([]string, t.lines)
	copy(rows, t.pending)
	body := t.text.Width(t.cols).Render(strings.Join(rows, "\n"))
	return t.frame.Render(body)
}

func (t *Terminal) Present() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	box := t.box()
	if t.drawn {
		// move back over the previous box
		fmt.Fprintf(t.out, "\x1b[%dA", lipgloss.Height(box))
	}
	_, err := fmt.Fprintln(t.out, box)
	t.drawn = true
	return err
}

func (t *Terminal) Close() error { return nil }
