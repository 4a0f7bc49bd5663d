// Package sanitize implements the serialization pipeline: pure, idempotent
// transforms applied to editor HTML before persistence, transport, or
// preview rendering.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"letterforge/api/internal/editor"
	"letterforge/api/internal/render"
)

// StripDeleteAffordance removes every delete-affordance element from the
// markup. Applied before persistence and export; preview keeps affordances
// only while the token itself survives interactive editing.
func StripDeleteAffordance(src string) (string, error) {
	return rewrite(src, func(body *html.Node) {
		for _, n := range collect(body, func(n *html.Node) bool { return hasClass(n, render.RemoveClass) }) {
			n.Parent.RemoveChild(n)
		}
	})
}

// StripPresentation removes the class attribute from every element.
// Attributes other than class are untouched by design: this is a narrow
// sanitation for backend storage, not a normalization pass.
func StripPresentation(src string) (string, error) {
	return rewrite(src, func(body *html.Node) {
		var visit func(*html.Node)
		visit = func(n *html.Node) {
			if n.Type == html.ElementNode {
				attrs := n.Attr[:0]
				for _, attr := range n.Attr {
					if attr.Key != "class" {
						attrs = append(attrs, attr)
					}
				}
				n.Attr = attrs
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
		}
		visit(body)
	})
}

// placeholderPattern matches a raw placeholder inside text content, the
// form tokens take after StripPresentation removes their spans.
var placeholderPattern = regexp.MustCompile(`\{\{[A-Z_]+\}\}`)

// SubstituteForPreview replaces each placeholder with the sample value for
// its name, in both forms it can take: a rendered token span, or raw text
// inside an already-stripped template. A token's affordance is removed
// before its name is read, so the glyph can never leak into the output.
// Placeholders with no matching sample are left as they are.
func SubstituteForPreview(src string, samples map[string]string) (string, error) {
	return rewrite(src, func(body *html.Node) {
		for _, n := range collect(body, func(n *html.Node) bool { return hasClass(n, render.TokenClass) }) {
			for _, affordance := range collect(n, func(c *html.Node) bool { return hasClass(c, render.RemoveClass) }) {
				affordance.Parent.RemoveChild(affordance)
			}
			name := strings.TrimSpace(textContent(n))
			value, ok := samples[editor.TrimDelimiters(name)]
			if !ok {
				continue
			}
			n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: value}, n)
			n.Parent.RemoveChild(n)
		}
		substituteTextPlaceholders(body, samples)
	})
}

func substituteTextPlaceholders(n *html.Node, samples map[string]string) {
	if n.Type == html.TextNode {
		n.Data = placeholderPattern.ReplaceAllStringFunc(n.Data, func(match string) string {
			if value, ok := samples[editor.TrimDelimiters(match)]; ok {
				return value
			}
			return match
		})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		substituteTextPlaceholders(c, samples)
	}
}

// StripNonASCII drops every character outside the printable 7-bit range,
// keeping tabs and line breaks so formatted markup survives transport.
func StripNonASCII(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for _, r := range src {
		if (r >= 0x20 && r <= 0x7e) || r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ForStorage is the save-path composition: affordances out, then classes
// out, then the transport character filter.
func ForStorage(src string) (string, error) {
	stripped, err := StripDeleteAffordance(src)
	if err != nil {
		return "", err
	}
	plain, err := StripPresentation(stripped)
	if err != nil {
		return "", err
	}
	return StripNonASCII(plain), nil
}

// rewrite parses src as a fragment, lets mutate rework the body subtree,
// and renders the body's children back out. Parse/render is what makes
// every transform idempotent: a second pass sees its own output.
func rewrite(src string, mutate func(body *html.Node)) (string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	body := findBody(root)
	if body == nil {
		return "", fmt.Errorf("parse html: no body element")
	}

	mutate(body)

	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return b.String(), nil
}

// collect gathers the nodes under root matching the predicate, in document
// order, without descending into a match.
func collect(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n != root && match(n) {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return found
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findBody(c); result != nil {
			return result
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}
