package editor

import (
	"errors"
	"testing"
)

type countingHistory struct {
	closed int
}

func (h *countingHistory) CloseStep() { h.closed++ }

func TestHandleDropInsertsCatalogVariable(t *testing.T) {
	doc := Document{TextRun{Content: "Dear Sir"}}

	for offset := 0; offset <= doc.Len(); offset++ {
		history := &countingHistory{}
		e := NewEditor(doc, DefaultCatalog, nil, history)
		ctrl := NewDropController(e, nil)

		if err := ctrl.HandleDrop("{{FIRM_NAME}}", offset); err != nil {
			t.Fatalf("drop at %d: %v", offset, err)
		}
		if got := e.Doc().Len(); got != doc.Len()+1 {
			t.Errorf("drop at %d: length %d, want %d", offset, got, doc.Len()+1)
		}
		run, _, ok := e.Doc().RunAt(offset)
		if !ok {
			t.Fatalf("drop at %d: nothing at drop position", offset)
		}
		if tok, isToken := run.(TokenRun); !isToken || tok.Name != "{{FIRM_NAME}}" {
			t.Errorf("drop at %d: run = %#v, want the dropped token", offset, run)
		}
		if e.Cursor() != offset+1 {
			t.Errorf("drop at %d: cursor = %d, want %d", offset, e.Cursor(), offset+1)
		}
		if history.closed != 1 {
			t.Errorf("drop at %d: undo step closed %d times, want 1", offset, history.closed)
		}
	}
}

func TestHandleDropRejectsAdjacentDuplicate(t *testing.T) {
	doc := Document{TextRun{Content: "on "}, TokenRun{Name: "{{DATE}}"}}
	notes := &captureNotifier{}
	e := NewEditor(doc, DefaultCatalog, notes, nil)
	ctrl := NewDropController(e, notes)

	err := ctrl.HandleDrop("{{DATE}}", doc.Len())
	var dup *AdjacentDuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected AdjacentDuplicateError, got %v", err)
	}
	if !e.Doc().Equal(doc) {
		t.Error("document must be unchanged")
	}
	if len(notes.messages) != 1 {
		t.Errorf("notifications = %v, want the duplicate warning", notes.messages)
	}
}

func TestHandleDropIgnoresUnknownPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not in catalog", "{{UNKNOWN_VAR}}"},
		{"unwrapped name", "DATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{TextRun{Content: "hi"}}
			notes := &captureNotifier{}
			e := NewEditor(doc, DefaultCatalog, notes, nil)
			ctrl := NewDropController(e, notes)

			if err := ctrl.HandleDrop(tt.payload, 0); err != nil {
				t.Fatalf("unrecognized payload must be ignored silently: %v", err)
			}
			if !e.Doc().Equal(doc) {
				t.Error("document must be unchanged")
			}
			if len(notes.messages) != 0 {
				t.Errorf("notifications = %v, want none", notes.messages)
			}
		})
	}
}
