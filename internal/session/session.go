package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"letterforge/api/internal/editor"
	"letterforge/api/internal/render"
	"letterforge/api/internal/sanitize"
	"letterforge/api/internal/secure"
)

// State is the editing workflow position. Transitions are strict: editing
// and saving are only reachable from the states that precede them.
type State int

const (
	Loading State = iota
	Viewing
	Editing
	Previewing
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Previewing:
		return "previewing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrInvalidState = errors.New("operation not allowed in current state")

// Config fixes the workflow parameters for the session's lifetime.
type Config struct {
	// LoadDelimiter splits a fetched template into letterhead and body.
	// The delimiter stays with the letterhead.
	LoadDelimiter string
	// ResetDelimiter splits the restored factory template, which may
	// predate the letterhead marker.
	ResetDelimiter string
	// Separator is placed between letterhead and body on save when the
	// body does not already begin with one.
	Separator string

	Catalog    editor.Catalog
	Samples    map[string]string
	Passphrase string
}

// DefaultConfig matches the shipped letter templates.
func DefaultConfig(passphrase string) Config {
	return Config{
		LoadDelimiter:  "<!-- letterhead:end -->",
		ResetDelimiter: "<p>Dear ",
		Separator:      "<p><br></p>",
		Catalog:        editor.DefaultCatalog,
		Samples:        editor.DefaultSamples,
		Passphrase:     passphrase,
	}
}

// Fetcher is the backend surface the session needs. *Client implements it.
type Fetcher interface {
	FetchTemplate(ctx context.Context) (string, error)
	SaveTemplate(ctx context.Context, env secure.Envelope) error
	ResetTemplate(ctx context.Context) (string, error)
}

// Session holds one admin's pass through the template workflow. It is not
// safe for concurrent use; the editor drives it from a single goroutine.
type Session struct {
	cfg    Config
	client Fetcher

	state     State
	header    string
	body      string
	wordCount int
}

func New(cfg Config, client Fetcher) *Session {
	return &Session{cfg: cfg, client: client, state: Loading}
}

func (s *Session) State() State   { return s.state }
func (s *Session) Header() string { return s.header }
func (s *Session) Body() string   { return s.body }

// WordCount is the whitespace-split word total of the body's plain-text
// projection, recomputed after every content change.
func (s *Session) WordCount() int { return s.wordCount }

// Load fetches the master template and enters Viewing.
func (s *Session) Load(ctx context.Context) error {
	if s.state != Loading {
		return fmt.Errorf("%w: load from %s", ErrInvalidState, s.state)
	}
	html, err := s.client.FetchTemplate(ctx)
	if err != nil {
		return err
	}
	s.header, s.body = splitTemplate(html, s.cfg.LoadDelimiter)
	s.recount()
	s.state = Viewing
	return nil
}

// BeginEdit enables body mutation.
func (s *Session) BeginEdit() error {
	if s.state != Viewing {
		return fmt.Errorf("%w: edit from %s", ErrInvalidState, s.state)
	}
	s.state = Editing
	return nil
}

// CancelEdit returns to Viewing. It only withdraws edit permission; the
// body keeps its live edits, there is no content undo here.
func (s *Session) CancelEdit() error {
	if s.state != Editing {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidState, s.state)
	}
	s.state = Viewing
	return nil
}

// SetBody replaces the editable body while editing.
func (s *Session) SetBody(html string) error {
	if s.state != Editing {
		return fmt.Errorf("%w: set body from %s", ErrInvalidState, s.state)
	}
	s.body = html
	s.recount()
	return nil
}

// placeholderPattern matches anything shaped like a template variable.
var placeholderPattern = regexp.MustCompile(`\{\{[A-Z_]+\}\}`)

// Save assembles, sanitizes, and validates the full template, then seals
// and posts it. A validation failure aborts before any network call and
// stays in Editing so the offenders can be corrected; once the payload is
// transmitted the session returns to Viewing whatever the outcome, and a
// transport failure is reported through the returned error.
func (s *Session) Save(ctx context.Context) error {
	if s.state != Editing {
		return fmt.Errorf("%w: save from %s", ErrInvalidState, s.state)
	}

	assembled, err := sanitize.ForStorage(s.assemble())
	if err != nil {
		return fmt.Errorf("sanitize template: %w", err)
	}
	if err := s.validatePlaceholders(assembled); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"template": assembled})
	if err != nil {
		return fmt.Errorf("marshal template payload: %w", err)
	}
	env, err := secure.Seal(payload, s.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("seal template payload: %w", err)
	}

	saveErr := s.client.SaveTemplate(ctx, env)
	s.state = Viewing
	return saveErr
}

// Preview substitutes sample values into the assembled template and
// enters Previewing.
func (s *Session) Preview() (string, error) {
	if s.state != Viewing {
		return "", fmt.Errorf("%w: preview from %s", ErrInvalidState, s.state)
	}
	stripped, err := sanitize.StripDeleteAffordance(s.assemble())
	if err != nil {
		return "", fmt.Errorf("prepare preview: %w", err)
	}
	preview, err := sanitize.SubstituteForPreview(stripped, s.cfg.Samples)
	if err != nil {
		return "", fmt.Errorf("substitute preview: %w", err)
	}
	s.state = Previewing
	return preview, nil
}

// ClosePreview returns to viewing.
func (s *Session) ClosePreview() error {
	if s.state != Previewing {
		return fmt.Errorf("%w: close preview from %s", ErrInvalidState, s.state)
	}
	s.state = Viewing
	return nil
}

// Reset restores the factory template and stays in Viewing.
func (s *Session) Reset(ctx context.Context) error {
	if s.state != Viewing {
		return fmt.Errorf("%w: reset from %s", ErrInvalidState, s.state)
	}
	html, err := s.client.ResetTemplate(ctx)
	if err != nil {
		return err
	}
	s.header, s.body = splitTemplate(html, s.cfg.ResetDelimiter)
	s.recount()
	return nil
}

// assemble joins letterhead and body, inserting the separator when the
// body does not already begin with one.
func (s *Session) assemble() string {
	if s.header == "" {
		return s.body
	}
	if s.body == "" {
		return s.header
	}
	if strings.HasPrefix(s.body, s.cfg.Separator) {
		return s.header + s.body
	}
	return s.header + s.cfg.Separator + s.body
}

func (s *Session) recount() {
	s.wordCount = editor.WordCount(render.PlainText(s.body))
}

func (s *Session) validatePlaceholders(html string) error {
	seen := map[string]bool{}
	var unknown []string
	for _, match := range placeholderPattern.FindAllString(html, -1) {
		if seen[match] {
			continue
		}
		seen[match] = true
		if !s.cfg.Catalog.Contains(match) {
			unknown = append(unknown, match)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &editor.InvalidVariableError{Names: unknown}
	}
	return nil
}

// splitTemplate divides template markup at the first occurrence of the
// delimiter. For the letterhead marker the delimiter stays with the
// header; for the greeting marker it stays with the body. A template
// without the delimiter is all header with an empty body.
func splitTemplate(html, delimiter string) (header, body string) {
	idx := strings.Index(html, delimiter)
	if idx < 0 {
		return html, ""
	}
	if strings.HasPrefix(delimiter, "<!--") {
		cut := idx + len(delimiter)
		return html[:cut], html[cut:]
	}
	return html[:idx], html[idx:]
}
