package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"letterforge/api/internal/editor"
	"letterforge/api/internal/secure"
)

const fetchedTemplate = `<p>{{DATE}}</p><p>{{FIRM_NAME}}</p><!-- letterhead:end --><p>Dear Sir,</p><p>body text</p>`

type fakeBackend struct {
	template  string
	saved     []secure.Envelope
	saveCalls int
	saveErr   error
	resetHTML string
}

func (f *fakeBackend) FetchTemplate(context.Context) (string, error) {
	return f.template, nil
}

func (f *fakeBackend) SaveTemplate(_ context.Context, env secure.Envelope) error {
	f.saveCalls++
	f.saved = append(f.saved, env)
	return f.saveErr
}

func (f *fakeBackend) ResetTemplate(context.Context) (string, error) {
	return f.resetHTML, nil
}

func newTestSession(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	s := New(DefaultConfig("passphrase"), backend)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadSplitsLetterheadFromBody(t *testing.T) {
	s := newTestSession(t, &fakeBackend{template: fetchedTemplate})

	if s.State() != Viewing {
		t.Fatalf("state = %s, want viewing", s.State())
	}
	if !strings.HasSuffix(s.Header(), "<!-- letterhead:end -->") {
		t.Errorf("delimiter must stay with the letterhead: %q", s.Header())
	}
	if !strings.Contains(s.Header(), "{{FIRM_NAME}}") {
		t.Errorf("letterhead content missing: %q", s.Header())
	}
	if s.Body() != "<p>Dear Sir,</p><p>body text</p>" {
		t.Errorf("body = %q", s.Body())
	}
	if s.WordCount() != 4 {
		t.Errorf("word count = %d, want 4", s.WordCount())
	}
}

func TestLoadWithoutDelimiterIsAllHeader(t *testing.T) {
	s := newTestSession(t, &fakeBackend{template: "<p>no marker here</p>"})
	if s.Header() != "<p>no marker here</p>" {
		t.Errorf("header = %q, want the whole template", s.Header())
	}
	if s.Body() != "" {
		t.Errorf("body = %q, want empty", s.Body())
	}
	if s.WordCount() != 0 {
		t.Errorf("word count = %d, want 0", s.WordCount())
	}
}

func TestResetSplitsOnGreeting(t *testing.T) {
	backend := &fakeBackend{
		template:  fetchedTemplate,
		resetHTML: "<p>{{FIRM_NAME}}</p><p>Dear Sir,</p><p>restored</p>",
	}
	s := newTestSession(t, backend)

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.State() != Viewing {
		t.Fatalf("state after reset = %s, want viewing", s.State())
	}
	if s.Header() != "<p>{{FIRM_NAME}}</p>" {
		t.Errorf("header = %q", s.Header())
	}
	if !strings.HasPrefix(s.Body(), "<p>Dear Sir,") {
		t.Errorf("greeting must stay with the body: %q", s.Body())
	}
}

func TestSaveSealsAssembledTemplate(t *testing.T) {
	backend := &fakeBackend{template: fetchedTemplate}
	s := newTestSession(t, backend)

	if err := s.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := s.SetBody(`<p class="greeting">Dear {{FIRM_NAME}},</p>`); err != nil {
		t.Fatalf("SetBody: %v", err)
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.State() != Viewing {
		t.Fatalf("state after save = %s, want viewing", s.State())
	}
	if backend.saveCalls != 1 {
		t.Fatalf("save calls = %d, want 1", backend.saveCalls)
	}

	plaintext, err := secure.Open(backend.saved[0], "passphrase")
	if err != nil {
		t.Fatalf("posted envelope must open with the shared passphrase: %v", err)
	}
	var payload struct {
		Template string `json:"template"`
	}
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if !strings.Contains(payload.Template, "{{DATE}}") {
		t.Errorf("letterhead dropped from assembled template: %q", payload.Template)
	}
	if !strings.Contains(payload.Template, "Dear {{FIRM_NAME}},") {
		t.Errorf("edited body missing: %q", payload.Template)
	}
	if strings.Contains(payload.Template, "class=") {
		t.Errorf("class attributes must be stripped before transport: %q", payload.Template)
	}
	if !strings.Contains(payload.Template, "<p><br></p>") {
		t.Errorf("separator missing between letterhead and body: %q", payload.Template)
	}
}

func TestSaveRejectsUnknownVariableBeforePosting(t *testing.T) {
	backend := &fakeBackend{template: fetchedTemplate}
	s := newTestSession(t, backend)

	if err := s.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := s.SetBody("<p>Dear {{NOT_A_VARIABLE}},</p>"); err != nil {
		t.Fatalf("SetBody: %v", err)
	}

	err := s.Save(context.Background())
	var invalid *editor.InvalidVariableError
	if !errors.As(err, &invalid) {
		t.Fatalf("Save error = %v, want InvalidVariableError", err)
	}
	if len(invalid.Names) != 1 || invalid.Names[0] != "{{NOT_A_VARIABLE}}" {
		t.Errorf("offenders = %v", invalid.Names)
	}
	if backend.saveCalls != 0 {
		t.Errorf("invalid template must not reach the backend, got %d calls", backend.saveCalls)
	}
	if s.State() != Editing {
		t.Errorf("state after rejected save = %s, want editing", s.State())
	}
}

func TestSaveReturnsToViewingOnTransportFailure(t *testing.T) {
	backend := &fakeBackend{
		template: fetchedTemplate,
		saveErr:  &editor.TransportError{Op: "saveTemplate", Err: errors.New("connection refused")},
	}
	s := newTestSession(t, backend)

	if err := s.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := s.SetBody("<p>Dear {{FIRM_NAME}},</p>"); err != nil {
		t.Fatalf("SetBody: %v", err)
	}

	err := s.Save(context.Background())
	var transport *editor.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Save error = %v, want TransportError", err)
	}
	if s.State() != Viewing {
		t.Errorf("state after failed transmit = %s, want viewing", s.State())
	}
	if s.Body() != "<p>Dear {{FIRM_NAME}},</p>" {
		t.Errorf("body must survive a failed transmit: %q", s.Body())
	}
}

func TestPreviewSubstitutesSamples(t *testing.T) {
	s := newTestSession(t, &fakeBackend{template: fetchedTemplate})

	preview, err := s.Preview()
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if s.State() != Previewing {
		t.Fatalf("state = %s, want previewing", s.State())
	}
	if !strings.Contains(preview, "Sharma &amp; Associates") {
		t.Errorf("sample value not substituted: %q", preview)
	}
	if strings.Contains(preview, "{{FIRM_NAME}}") || strings.Contains(preview, "{{DATE}}") {
		t.Errorf("placeholders leaked into preview: %q", preview)
	}

	if err := s.ClosePreview(); err != nil {
		t.Fatalf("ClosePreview: %v", err)
	}
	if s.State() != Viewing {
		t.Errorf("state after closing preview = %s, want viewing", s.State())
	}
}

func TestCancelEditKeepsLiveEdits(t *testing.T) {
	s := newTestSession(t, &fakeBackend{template: fetchedTemplate})

	if err := s.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := s.SetBody("<p>work in progress</p>"); err != nil {
		t.Fatalf("SetBody: %v", err)
	}
	if err := s.CancelEdit(); err != nil {
		t.Fatalf("CancelEdit: %v", err)
	}
	if s.State() != Viewing {
		t.Fatalf("state = %s, want viewing", s.State())
	}
	// Cancel withdraws edit permission only; it is not a content undo.
	if s.Body() != "<p>work in progress</p>" {
		t.Errorf("body = %q, want the live edits", s.Body())
	}
}

func TestStateMachineRejectsOutOfOrderOperations(t *testing.T) {
	backend := &fakeBackend{template: fetchedTemplate}
	s := New(DefaultConfig("passphrase"), backend)

	tests := []struct {
		name string
		op   func() error
	}{
		{"edit before load", s.BeginEdit},
		{"save before load", func() error { return s.Save(context.Background()) }},
		{"reset before load", func() error { return s.Reset(context.Background()) }},
		{"set body before load", func() error { return s.SetBody("<p>x</p>") }},
		{"preview before load", func() error { _, err := s.Preview(); return err }},
		{"close preview before load", s.ClosePreview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, ErrInvalidState) {
				t.Errorf("error = %v, want ErrInvalidState", err)
			}
		})
	}

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Load(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Load error = %v, want ErrInvalidState", err)
	}

	if err := s.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if _, err := s.Preview(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("preview while editing error = %v, want ErrInvalidState", err)
	}
}
