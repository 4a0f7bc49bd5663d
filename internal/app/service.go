// Package app wires the template store, token store, revision history,
// and exporters behind the HTTP API.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"letterforge/api/internal/auth"
	"letterforge/api/internal/editor"
	"letterforge/api/internal/export"
	"letterforge/api/internal/gitrepo"
	"letterforge/api/internal/sanitize"
	"letterforge/api/internal/secure"
	"letterforge/api/internal/store"
	"letterforge/api/internal/tokenstore"
	"letterforge/api/internal/util"
)

// TemplateStore is the persistence surface the service needs.
type TemplateStore interface {
	GetTemplate(ctx context.Context, name string) (store.Template, error)
	SaveMasterTemplate(ctx context.Context, html, updatedBy string) error
	ResetMasterTemplate(ctx context.Context, updatedBy string) (store.Template, error)
	Ping(ctx context.Context) error
}

// TokenStore keeps issued bearer tokens server-side so logout works.
type TokenStore interface {
	SaveToken(ctx context.Context, tokenHash string, rec tokenstore.Record, expiresAt time.Time) error
	Lookup(ctx context.Context, tokenHash string) (tokenstore.Record, error)
	Revoke(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

// TemplateHistory records accepted saves. *gitrepo.Service implements it.
type TemplateHistory interface {
	CommitTemplate(html, author, message string) (gitrepo.Revision, error)
	History(limit int) ([]gitrepo.Revision, error)
}

// Mailer sends template test mails. *email.Service implements it.
type Mailer interface {
	IsConfigured() bool
	SendTestTemplate(to, previewHTML string) error
}

type Config struct {
	TokenSecret       []byte
	TokenTTL          time.Duration
	TemplateSecret    string
	AdminName         string
	AdminPasswordHash string
}

type Service struct {
	cfg     Config
	store   TemplateStore
	tokens  TokenStore
	history TemplateHistory
	mail    Mailer
	catalog editor.Catalog
	samples map[string]string

	renderPDF func(html, title string) (*export.Result, error)
}

func NewService(cfg Config, templates TemplateStore, tokens TokenStore, history TemplateHistory, mail Mailer) *Service {
	return &Service{
		cfg:       cfg,
		store:     templates,
		tokens:    tokens,
		history:   history,
		mail:      mail,
		catalog:   editor.DefaultCatalog,
		samples:   editor.DefaultSamples,
		renderPDF: export.RenderPDF,
	}
}

// Session identifies an authenticated request.
type Session struct {
	UserID   string
	UserName string
}

// LoginResult is returned from a successful login.
type LoginResult struct {
	Token     string
	UserName  string
	ExpiresAt time.Time
}

// Login checks the admin password and issues a bearer token.
func (s *Service) Login(ctx context.Context, password string) (LoginResult, error) {
	if s.cfg.AdminPasswordHash == "" {
		return LoginResult{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Login is not configured", nil)
	}
	if err := auth.VerifyAdminPassword(s.cfg.AdminPasswordHash, password); err != nil {
		return LoginResult{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid password", nil)
	}

	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	token, err := auth.IssueToken(s.cfg.TokenSecret, auth.Claims{
		Sub:  "admin",
		Name: s.cfg.AdminName,
		JTI:  util.NewID(),
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	rec := tokenstore.Record{Subject: "admin", Name: s.cfg.AdminName}
	if err := s.tokens.SaveToken(ctx, auth.HashToken(token), rec, expiresAt); err != nil {
		return LoginResult{}, fmt.Errorf("save token: %w", err)
	}

	return LoginResult{Token: token, UserName: s.cfg.AdminName, ExpiresAt: expiresAt}, nil
}

// SessionFromToken validates both the token signature and its presence in
// the token store, so revoked tokens fail even before they expire.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken(s.cfg.TokenSecret, token)
	if err != nil {
		return Session{}, err
	}
	rec, err := s.tokens.Lookup(ctx, auth.HashToken(token))
	if err != nil {
		return Session{}, err
	}
	name := rec.Name
	if name == "" {
		name = claims.Name
	}
	return Session{UserID: claims.Sub, UserName: name}, nil
}

// Logout revokes the token server-side.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, auth.HashToken(token))
}

// MasterTemplate returns the live template, falling back to the factory
// default when no master row exists yet.
func (s *Service) MasterTemplate(ctx context.Context) (string, error) {
	tpl, err := s.store.GetTemplate(ctx, store.MasterTemplate)
	if errors.Is(err, sql.ErrNoRows) {
		tpl, err = s.store.GetTemplate(ctx, store.DefaultTemplate)
	}
	if err != nil {
		return "", fmt.Errorf("load master template: %w", err)
	}
	return tpl.HTML, nil
}

// placeholderPattern matches anything shaped like a template variable in
// the serialized markup.
var placeholderPattern = regexp.MustCompile(`\{\{[A-Z_]+\}\}`)

// SaveMasterTemplate opens the sealed payload, re-runs the storage
// sanitation, validates every placeholder against the catalog, then
// persists and records a revision.
func (s *Service) SaveMasterTemplate(ctx context.Context, env secure.Envelope, session Session) error {
	plaintext, err := secure.Open(env, s.cfg.TemplateSecret)
	if err != nil {
		return err
	}

	var body struct {
		Template string `json:"template"`
	}
	if err := json.Unmarshal(plaintext, &body); err != nil {
		return domainError(http.StatusBadRequest, "INVALID_BODY", "Decrypted payload is not valid JSON", nil)
	}
	if strings.TrimSpace(body.Template) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "template must not be empty", nil)
	}

	sanitized, err := sanitize.ForStorage(body.Template)
	if err != nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "template markup could not be parsed", nil)
	}

	if err := s.validatePlaceholders(sanitized); err != nil {
		return err
	}

	if err := s.store.SaveMasterTemplate(ctx, sanitized, session.UserName); err != nil {
		return err
	}
	if _, err := s.history.CommitTemplate(sanitized, session.UserName, "Save master template"); err != nil {
		return fmt.Errorf("record template revision: %w", err)
	}
	return nil
}

// validatePlaceholders rejects a template carrying any variable outside
// the catalog, naming each offender.
func (s *Service) validatePlaceholders(html string) error {
	seen := map[string]bool{}
	var unknown []string
	for _, match := range placeholderPattern.FindAllString(html, -1) {
		if seen[match] {
			continue
		}
		seen[match] = true
		if !s.catalog.Contains(match) {
			unknown = append(unknown, match)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &editor.InvalidVariableError{Names: unknown}
	}
	return nil
}

// ResetTemplate restores the master template from the factory default and
// returns the restored markup.
func (s *Service) ResetTemplate(ctx context.Context, session Session) (string, error) {
	tpl, err := s.store.ResetMasterTemplate(ctx, session.UserName)
	if err != nil {
		return "", err
	}
	if _, err := s.history.CommitTemplate(tpl.HTML, session.UserName, "Reset master template to default"); err != nil {
		return "", fmt.Errorf("record template revision: %w", err)
	}
	return tpl.HTML, nil
}

// PreviewHTML substitutes sample values into the live template.
func (s *Service) PreviewHTML(ctx context.Context) (string, error) {
	html, err := s.MasterTemplate(ctx)
	if err != nil {
		return "", err
	}
	return sanitize.SubstituteForPreview(html, s.samples)
}

// ExportPDF renders the sample-substituted template as an A4 PDF.
func (s *Service) ExportPDF(ctx context.Context) (*export.Result, error) {
	preview, err := s.PreviewHTML(ctx)
	if err != nil {
		return nil, err
	}
	letter, err := export.RenderLetterHTML(export.LetterData{
		Title:    "Engagement Letter",
		BodyHTML: preview,
	})
	if err != nil {
		return nil, fmt.Errorf("render letter shell: %w", err)
	}
	return s.renderPDF(letter, "Engagement Letter")
}

// SendTest mails the sample-substituted template to one recipient.
func (s *Service) SendTest(ctx context.Context, to string) error {
	if s.mail == nil || !s.mail.IsConfigured() {
		return domainError(http.StatusServiceUnavailable, "EMAIL_UNAVAILABLE", "Email is not configured", nil)
	}
	preview, err := s.PreviewHTML(ctx)
	if err != nil {
		return err
	}
	return s.mail.SendTestTemplate(to, preview)
}

// TemplateHistory lists recent template revisions, newest first.
func (s *Service) TemplateHistory(ctx context.Context, limit int) ([]gitrepo.Revision, error) {
	return s.history.History(limit)
}

// Ping reports backend reachability for the readiness probe.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := s.tokens.Ping(ctx); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}
