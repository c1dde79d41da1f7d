package tui

import (
	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the column assistant replies are wrapped at.
const DefaultWordWrap = 100

// NewRenderer returns a function that renders markdown using glamour.
// It falls back to returning the input unchanged if the renderer can't be built.
func NewRenderer(wordWrap int) func(string) (string, error) {
	if wordWrap <= 0 {
		wordWrap = DefaultWordWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
