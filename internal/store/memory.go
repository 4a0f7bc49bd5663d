package store

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// MemoryStore is an in-process template store for tests.
type MemoryStore struct {
	mu        sync.Mutex
	templates map[string]Template
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]Template)}
}

// Seed installs a template row directly, bypassing timestamps.
func (s *MemoryStore) Seed(tpl Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.Name] = tpl
}

func (s *MemoryStore) GetTemplate(_ context.Context, name string) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[name]
	if !ok {
		return Template{}, sql.ErrNoRows
	}
	return tpl, nil
}

func (s *MemoryStore) SaveMasterTemplate(_ context.Context, html, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[MasterTemplate] = Template{
		Name:      MasterTemplate,
		HTML:      html,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) ResetMasterTemplate(ctx context.Context, updatedBy string) (Template, error) {
	def, err := s.GetTemplate(ctx, DefaultTemplate)
	if err != nil {
		return Template{}, err
	}
	if err := s.SaveMasterTemplate(ctx, def.HTML, updatedBy); err != nil {
		return Template{}, err
	}
	return s.GetTemplate(ctx, MasterTemplate)
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }
