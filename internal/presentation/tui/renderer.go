// Package tui renders command output for interactive terminals.
package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// It uses a dark theme by default, but could be configurable.
func NewRenderer() func(string) (string, error) {
	// Initialize renderer with standard dark style
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderMarkdown renders markdown for stdout, keeping the plain text
// when no terminal is attached or rendering fails, so output stays
// pipeable.
func RenderMarkdown(markdown string) string {
	if !IsInteractive() {
		return markdown
	}
	render := NewRenderer()
	rendered, err := render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
