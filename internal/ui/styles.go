package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = "74"  // blue
	colorCmd    = "250" // light gray
	colorMuted  = "245" // medium gray
	colorWarn   = "214" // orange
	colorError  = "203" // red
	colorDone   = "114" // green
	colorBorder = "240" // dark gray
)

var noColor bool

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// Theme is the set of styles used to render output to one writer.
type Theme struct {
	Accent  lipgloss.Style
	Command lipgloss.Style
	Muted   lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Done    lipgloss.Style
	Header  lipgloss.Style
	Column  lipgloss.Style

	r     *lipgloss.Renderer
	color bool
}

// NewTheme returns styles for w. Color is dropped when ForceNoColor was
// called or w is not a color-capable terminal.
func NewTheme(w io.Writer) *Theme {
	r := lipgloss.NewRenderer(w)
	t := &Theme{r: r, color: !noColor}
	t.Accent = t.fg(colorAccent)
	t.Command = t.fg(colorCmd)
	t.Muted = t.fg(colorMuted)
	t.Warn = t.fg(colorWarn)
	t.Error = t.fg(colorError)
	t.Done = t.fg(colorDone)
	t.Header = t.fg(colorAccent).Bold(true)
	t.Column = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if t.color {
		t.Column = t.Column.BorderForeground(lipgloss.Color(colorBorder))
	}
	return t
}

func (t *Theme) fg(c string) lipgloss.Style {
	s := t.r.NewStyle()
	if t.color {
		s = s.Foreground(lipgloss.Color(c))
	}
	return s
}

// Chip returns the style of a project chip with a hex color.
func (t *Theme) Chip(hex string) lipgloss.Style {
	s := t.r.NewStyle().Bold(true)
	if t.color && hex != "" {
		s = s.Foreground(lipgloss.Color(hex))
	}
	return s
}

// Category returns the style for a status category.
func (t *Theme) Category(key model.CategoryKey) lipgloss.Style {
	switch key {
	case model.CategoryDone:
		return t.Done
	case model.CategoryIndeterminate:
		return t.Warn
	}
	return t.Accent
}

var stdoutTheme *Theme

func stdout() *Theme {
	if stdoutTheme == nil {
		stdoutTheme = NewTheme(os.Stdout)
	}
	return stdoutTheme
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return stdout().Accent.Render(s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return stdout().Muted.Render(s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return stdout().Command.Render(s) }

// RenderError returns s in the error (red) color.
func RenderError(s string) string { return stdout().Error.Render(s) }
