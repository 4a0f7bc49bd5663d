package editor

import (
	"errors"
	"strings"
	"testing"
)

type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func TestGuardRejectsIllegalCharacter(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"hash", "#"},
		{"at sign", "@"},
		{"mixed insert with one bad rune", "abc$def"},
		{"tilde", "~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := &captureNotifier{}
			e := NewEditor(Document{}, DefaultCatalog, notes, nil)

			err := e.Type(tt.input)
			var illegal *IllegalCharacterError
			if !errors.As(err, &illegal) {
				t.Fatalf("expected IllegalCharacterError, got %v", err)
			}

			e.FlushPending()
			if got := e.Doc().PlainText(); got != "" {
				t.Errorf("body = %q after rollback, want empty", got)
			}
			if len(notes.messages) != 1 {
				t.Errorf("notifications = %v, want exactly one", notes.messages)
			}
		})
	}
}

func TestGuardAcceptsWhitelistedInput(t *testing.T) {
	e := NewEditor(Document{}, DefaultCatalog, nil, nil)
	const input = `Dear Sir, re. audit [FY 2024-25] 50% done & billed; call?`
	if err := e.Type(input); err != nil {
		t.Fatalf("whitelisted input rejected: %v", err)
	}
	e.FlushPending()
	if got := e.Doc().PlainText(); got != input {
		t.Errorf("body = %q, want %q", got, input)
	}
	if e.WordCount() != WordCount(input) {
		t.Errorf("wordCount = %d, want %d", e.WordCount(), WordCount(input))
	}
}

func TestGuardRejectsFourthConsecutiveNewline(t *testing.T) {
	notes := &captureNotifier{}
	e := NewEditor(Document{TextRun{Content: "hello\n\n\n"}}, DefaultCatalog, notes, nil)
	e.SetCursor(e.Doc().Len())

	err := e.Type("\n")
	var limit *BlankLineLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("expected BlankLineLimitError, got %v", err)
	}

	e.FlushPending()
	got := e.Doc().PlainText()
	if !strings.HasSuffix(got, "\n\n\n") || strings.HasSuffix(got, "\n\n\n\n") {
		t.Errorf("body %q must end with exactly three newlines", got)
	}
	if e.Cursor() != e.Doc().Len() {
		t.Errorf("cursor = %d, want restored to %d", e.Cursor(), e.Doc().Len())
	}
}

func TestGuardAllowsThirdNewline(t *testing.T) {
	e := NewEditor(Document{TextRun{Content: "hello\n\n"}}, DefaultCatalog, nil, nil)
	e.SetCursor(e.Doc().Len())
	if err := e.Type("\n"); err != nil {
		t.Fatalf("third newline rejected: %v", err)
	}
}

func TestGuardEnforcesWordCeiling(t *testing.T) {
	words := make([]string, MaxWords)
	for i := range words {
		words[i] = "word"
	}
	body := strings.Join(words, " ")

	notes := &captureNotifier{}
	e := NewEditor(Document{TextRun{Content: body}}, DefaultCatalog, notes, nil)
	e.SetCursor(e.Doc().Len())

	// A trailing space does not add a word.
	if err := e.Type(" "); err != nil {
		t.Fatalf("trailing space rejected: %v", err)
	}
	if e.WordCount() != MaxWords {
		t.Fatalf("wordCount = %d, want %d", e.WordCount(), MaxWords)
	}

	// The character starting word 2001 is rolled back.
	err := e.Type("x")
	var limit *WordLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("expected WordLimitError, got %v", err)
	}
	e.FlushPending()
	if got := WordCount(e.Doc().PlainText()); got != MaxWords {
		t.Errorf("word count = %d after rollback, want %d", got, MaxWords)
	}
	if len(notes.messages) != 1 {
		t.Errorf("notifications = %v, want exactly one", notes.messages)
	}
}

func TestFlushPendingIsNoOpWhenDocumentChanged(t *testing.T) {
	e := NewEditor(Document{}, DefaultCatalog, nil, nil)
	if err := e.Type("#"); err == nil {
		t.Fatal("expected a violation")
	}

	// The document changes incompatibly before the deferred task runs.
	e.doc = Document{TextRun{Content: "replaced"}}
	e.SetCursor(0)

	e.FlushPending()
	if got := e.Doc().PlainText(); got != "replaced" {
		t.Errorf("stale rollback mutated the document: %q", got)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two\tthree\nfour", 4},
		{"  padded   words  ", 2},
	}
	for _, tt := range tests {
		if got := WordCount(tt.text); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
