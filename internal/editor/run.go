// Package editor implements the token-aware document model: an ordered run
// list addressed by a flattened character-offset space, with atomic
// placeholder tokens embedded between text runs.
package editor

import (
	"strings"
	"unicode/utf8"
)

// Run is the smallest linear unit of document content. Each run contributes
// its Len to the flattened offset space.
type Run interface {
	Len() int
}

// TextRun is a plain text span. Inline formatting attributes from the host
// engine are passed through as markup and not modeled here.
type TextRun struct {
	Content string
}

func (r TextRun) Len() int { return utf8.RuneCountInString(r.Content) }

// TokenRun is one placeholder occurrence. It occupies exactly one position
// in the offset space regardless of its rendered width.
type TokenRun struct {
	Name string
}

func (r TokenRun) Len() int { return 1 }

// Document is an ordered sequence of runs.
type Document []Run

// Len returns the total extent of the document in offset units.
func (d Document) Len() int {
	total := 0
	for _, r := range d {
		total += r.Len()
	}
	return total
}

// PlainText returns the text projection of the document. Tokens project as
// their display name, which is what survives tag stripping in the rendered
// HTML; word counting runs over this projection.
func (d Document) PlainText() string {
	var b strings.Builder
	for _, r := range d {
		switch run := r.(type) {
		case TextRun:
			b.WriteString(run.Content)
		case TokenRun:
			b.WriteString(run.Name)
		}
	}
	return b.String()
}

// PrefixText returns the text projection of everything before offset.
func (d Document) PrefixText(offset int) string {
	return d.rangeText(0, offset)
}

// RangeText returns the text projection of [offset, offset+length).
func (d Document) RangeText(offset, length int) string {
	return d.rangeText(offset, offset+length)
}

func (d Document) rangeText(start, end int) string {
	var b strings.Builder
	pos := 0
	for _, r := range d {
		n := r.Len()
		runStart, runEnd := pos, pos+n
		pos = runEnd
		if runEnd <= start {
			continue
		}
		if runStart >= end {
			break
		}
		switch run := r.(type) {
		case TextRun:
			rs := []rune(run.Content)
			lo, hi := 0, n
			if start > runStart {
				lo = start - runStart
			}
			if end < runEnd {
				hi = end - runStart
			}
			b.WriteString(string(rs[lo:hi]))
		case TokenRun:
			b.WriteString(run.Name)
		}
	}
	return b.String()
}

// Equal reports structural equality: same runs, same order, same content.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}

// normalize merges adjacent text runs and drops empty ones so that offset
// arithmetic stays canonical after splices.
func (d Document) normalize() Document {
	out := make(Document, 0, len(d))
	for _, r := range d {
		if tr, ok := r.(TextRun); ok {
			if tr.Content == "" {
				continue
			}
			if len(out) > 0 {
				if prev, ok := out[len(out)-1].(TextRun); ok {
					out[len(out)-1] = TextRun{Content: prev.Content + tr.Content}
					continue
				}
			}
		}
		out = append(out, r)
	}
	return out
}

// Catalog is the closed set of placeholder names the editor recognizes.
// Names carry the delimiter wrapper, e.g. "{{DATE}}".
type Catalog []string

// Contains reports whether name is a catalog member. Matching is exact and
// case sensitive, wrapper included.
func (c Catalog) Contains(name string) bool {
	for _, entry := range c {
		if entry == name {
			return true
		}
	}
	return false
}

// DefaultCatalog is the fixed variable set recognized by the template store.
var DefaultCatalog = Catalog{
	"{{DATE}}",
	"{{REF_NO}}",
	"{{FIRM_NAME}}",
	"{{FRN_NO}}",
	"{{FIRM_ADDR}}",
	"{{ASSIGNMENT_TYPE}}",
	"{{GSTN}}",
}

// DefaultSamples maps unwrapped variable names to the values substituted
// into preview renderings.
var DefaultSamples = map[string]string{
	"DATE":            "01/04/2025",
	"REF_NO":          "REF/2025/0042",
	"FIRM_NAME":       "M/s Sharma & Associates",
	"FRN_NO":          "148122W",
	"FIRM_ADDR":       "214, Nehru Place, New Delhi - 110019",
	"ASSIGNMENT_TYPE": "Statutory Audit",
	"GSTN":            "07AABCS1429B1ZS",
}

// TrimDelimiters strips the "{{ }}" wrapper from a placeholder name.
func TrimDelimiters(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, "{{"), "}}")
}
