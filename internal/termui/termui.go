// Package termui holds the lipgloss styles shared by the terminal views.
package termui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Separator is printed above listings and after the stream header.
const (
	Separator       = "------------------------------"
	StreamSeparator = "--------------------------"
	clearSequence   = "\033[H\033[2J"
)

// Styles is the palette for one output writer. Writers that are not a
// terminal get the ASCII profile, so rendered text stays plain.
type Styles struct {
	Separator lipgloss.Style
	Title     lipgloss.Style
	Count     lipgloss.Style
	Label     lipgloss.Style
	Timestamp lipgloss.Style
	Track     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
}

// NewStyles builds styles bound to a renderer for w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Separator: r.NewStyle().Foreground(lipgloss.Color("240")),
		Title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Count:     r.NewStyle().Foreground(lipgloss.Color("214")),
		Label:     r.NewStyle().Foreground(lipgloss.Color("245")),
		Timestamp: r.NewStyle().Foreground(lipgloss.Color("244")),
		Track:     r.NewStyle().Bold(true),
		Status:    r.NewStyle().Foreground(lipgloss.Color("42")),
		Error:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ClearScreen clears w when it is a terminal and reports whether it did.
func ClearScreen(w io.Writer) bool {
	if !IsTerminal(w) {
		return false
	}
	_, err := io.WriteString(w, clearSequence)
	return err == nil
}

// AlignRight renders text with style, right-aligned to width columns.
// Padding stays outside the styled span.
func AlignRight(style lipgloss.Style, text string, width int) string {
	return padding(text, width) + style.Render(text)
}

// AlignLeft renders text with style, left-aligned to width columns.
func AlignLeft(style lipgloss.Style, text string, width int) string {
	return style.Render(text) + padding(text, width)
}

// padding counts terminal cells, so wide runes take two columns.
func padding(text string, width int) string {
	n := width - lipgloss.Width(text)
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
