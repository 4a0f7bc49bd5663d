package render

import (
	"strings"
	"testing"

	"letterforge/api/internal/editor"
)

func TestHTMLRendersTokensAsAtomicSpans(t *testing.T) {
	doc := editor.Document{
		editor.TextRun{Content: "Dear "},
		editor.TokenRun{Name: "{{FIRM_NAME}}"},
		editor.TextRun{Content: ","},
	}

	got := HTML(doc)
	if !strings.Contains(got, `class="`+TokenClass+`"`) {
		t.Errorf("rendering missing token class: %s", got)
	}
	if !strings.Contains(got, `contenteditable="false"`) {
		t.Errorf("token must not be text editable: %s", got)
	}
	if !strings.Contains(got, `class="`+RemoveClass+`"`) {
		t.Errorf("rendering missing delete affordance: %s", got)
	}
	if !strings.Contains(got, "{{FIRM_NAME}}") {
		t.Errorf("rendering missing the display name: %s", got)
	}
}

func TestHTMLParagraphs(t *testing.T) {
	tests := []struct {
		name string
		doc  editor.Document
		want string
	}{
		{"empty document", editor.Document{}, ""},
		{"single line", editor.Document{editor.TextRun{Content: "hello"}}, "<p>hello</p>"},
		{
			"blank line between paragraphs",
			editor.Document{editor.TextRun{Content: "a\n\nb"}},
			"<p>a</p><p><br></p><p>b</p>",
		},
		{
			"escapes markup in text",
			editor.Document{editor.TextRun{Content: "1 < 2 & 3"}},
			"<p>1 &lt; 2 &amp; 3</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTML(tt.doc); got != tt.want {
				t.Errorf("HTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  editor.Document
	}{
		{"text only", editor.Document{editor.TextRun{Content: "hello world"}}},
		{
			"token between text",
			editor.Document{
				editor.TextRun{Content: "Dear "},
				editor.TokenRun{Name: "{{FIRM_NAME}}"},
				editor.TextRun{Content: ","},
			},
		},
		{
			"blank lines survive",
			editor.Document{editor.TextRun{Content: "a\n\nb"}},
		},
		{
			"adjacent distinct tokens",
			editor.Document{
				editor.TokenRun{Name: "{{DATE}}"},
				editor.TokenRun{Name: "{{REF_NO}}"},
			},
		},
		{
			"escaped characters round trip",
			editor.Document{editor.TextRun{Content: `"fees" < 50% & rising`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(HTML(tt.doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !parsed.Equal(tt.doc) {
				t.Errorf("round trip = %#v, want %#v", parsed, tt.doc)
			}
		})
	}
}

func TestParseExcludesAffordanceFromTokenName(t *testing.T) {
	doc, err := Parse(Token("{{DATE}}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc) != 1 {
		t.Fatalf("runs = %#v, want one token", doc)
	}
	tok, ok := doc[0].(editor.TokenRun)
	if !ok {
		t.Fatalf("run = %#v, want a token", doc[0])
	}
	if tok.Name != "{{DATE}}" {
		t.Errorf("token name = %q, the affordance glyph must not leak in", tok.Name)
	}
}

func TestPlainText(t *testing.T) {
	src := "<p>Dear " + Token("{{FIRM_NAME}}") + "</p><p>two words</p>"
	want := "Dear {{FIRM_NAME}}\ntwo words"
	if got := PlainText(src); got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
}
