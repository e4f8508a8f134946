package model

import (
	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/glamour"
)

func renderMarkdown(md string, width int) (string, error) {
	if width < 40 {
		width = 40
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return "", err
	}

	return r.Render(md)
}

func renderMarkdownToANSI(md string, width int) string {
	if width < 40 {
		width = 40
	}
	return string(markdown.Render(md, width-4, 4))
}

// renderNoteBody renders a description, falling back to the plain ANSI renderer.
func renderNoteBody(description string, width int) string {
	if out, err := renderMarkdown(description, width); err == nil {
		return out
	}
	return renderMarkdownToANSI(description, width)
}
