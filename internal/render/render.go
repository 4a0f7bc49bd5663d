// Package render converts between the run document model and the editor's
// HTML rendering. The renderer set is closed: a type switch over the run
// variants, no dynamic registration.
package render

import (
	"fmt"
	"html"
	"strings"

	"letterforge/api/internal/editor"
)

const (
	// TokenClass marks the rendering of a placeholder token.
	TokenClass = "tmpl-variable"
	// RemoveClass marks the delete affordance inside a token rendering. It
	// exists only for the click-to-delete path and is stripped before
	// persistence, export, and preview.
	RemoveClass = "tmpl-variable-remove"

	removeGlyph = "×"
)

// Token renders one placeholder as an atomic, non-editable span carrying
// its delete affordance.
func Token(name string) string {
	return fmt.Sprintf(
		`<span class="%s" contenteditable="false">%s<span class="%s">%s</span></span>`,
		TokenClass, html.EscapeString(name), RemoveClass, removeGlyph,
	)
}

// HTML renders a document as editor HTML: one paragraph per line, blank
// lines as <p><br></p>, tokens inline.
func HTML(doc editor.Document) string {
	if len(doc) == 0 {
		return ""
	}

	var lines []string
	var line strings.Builder
	endLine := func() {
		lines = append(lines, line.String())
		line.Reset()
	}

	for _, r := range doc {
		switch run := r.(type) {
		case editor.TextRun:
			parts := strings.Split(run.Content, "\n")
			for i, part := range parts {
				if i > 0 {
					endLine()
				}
				line.WriteString(html.EscapeString(part))
			}
		case editor.TokenRun:
			line.WriteString(Token(run.Name))
		}
	}
	endLine()

	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			b.WriteString("<p><br></p>")
			continue
		}
		b.WriteString("<p>")
		b.WriteString(l)
		b.WriteString("</p>")
	}
	return b.String()
}
