package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"letterforge/api/internal/editor"
)

// Parse reads editor HTML back into a run document. Token spans become
// TokenRuns (their affordance text excluded); block boundaries become
// newlines in the surrounding text runs.
func Parse(src string) (editor.Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse editor html: %w", err)
	}
	body := findBody(root)
	if body == nil {
		return nil, fmt.Errorf("parse editor html: no body element")
	}

	p := &docBuilder{}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
	p.trimTrailingNewline()
	p.flush()
	return editor.Document(p.runs), nil
}

// PlainText is the text projection of editor HTML: tags stripped, token
// names kept. The word count runs over this.
func PlainText(src string) string {
	doc, err := Parse(src)
	if err != nil {
		return ""
	}
	return doc.PlainText()
}

type docBuilder struct {
	runs []editor.Run
	text strings.Builder
}

func (p *docBuilder) flush() {
	if p.text.Len() > 0 {
		p.runs = append(p.runs, editor.TextRun{Content: p.text.String()})
		p.text.Reset()
	}
}

func (p *docBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.text.WriteString(n.Data)
	case html.ElementNode:
		if hasClass(n, TokenClass) {
			p.flush()
			p.runs = append(p.runs, editor.TokenRun{Name: tokenName(n)})
			return
		}
		if hasClass(n, RemoveClass) {
			// Affordance outside a token span; never document content.
			return
		}
		if n.Data == "br" {
			// <p><br></p> is an empty line; the block boundary below
			// already contributes its newline.
			if n.Parent == nil || n.Parent.FirstChild != n || n.Parent.LastChild != n {
				p.text.WriteString("\n")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.walk(c)
		}
		if isBlock(n.Data) {
			p.text.WriteString("\n")
		}
	}
}

// trimTrailingNewline drops the newline contributed by the final block so
// that render and parse round-trip.
func (p *docBuilder) trimTrailingNewline() {
	s := p.text.String()
	if strings.HasSuffix(s, "\n") {
		p.text.Reset()
		p.text.WriteString(s[:len(s)-1])
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "tr":
		return true
	}
	return false
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

// tokenName returns the display text of a token span, excluding its delete
// affordance.
func tokenName(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && hasClass(node, RemoveClass) {
			return
		}
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	return strings.TrimSpace(b.String())
}
