package store

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// GetTemplate returns a named template row. sql.ErrNoRows passes through
// so callers can distinguish absence from failure.
func (s *PostgresStore) GetTemplate(ctx context.Context, name string) (Template, error) {
	const query = `SELECT name, html, updated_by, updated_at FROM email_templates WHERE name = $1`
	var tpl Template
	err := s.db.QueryRowContext(ctx, query, name).Scan(&tpl.Name, &tpl.HTML, &tpl.UpdatedBy, &tpl.UpdatedAt)
	if err != nil {
		return Template{}, err
	}
	return tpl, nil
}

// SaveMasterTemplate upserts the master row.
func (s *PostgresStore) SaveMasterTemplate(ctx context.Context, html, updatedBy string) error {
	const query = `
		INSERT INTO email_templates (name, html, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET html=EXCLUDED.html, updated_by=EXCLUDED.updated_by, updated_at=NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, MasterTemplate, html, updatedBy); err != nil {
		return fmt.Errorf("save master template: %w", err)
	}
	return nil
}

// ResetMasterTemplate copies the default row over the master row and
// returns the restored HTML.
func (s *PostgresStore) ResetMasterTemplate(ctx context.Context, updatedBy string) (Template, error) {
	def, err := s.GetTemplate(ctx, DefaultTemplate)
	if err != nil {
		return Template{}, fmt.Errorf("load default template: %w", err)
	}
	if err := s.SaveMasterTemplate(ctx, def.HTML, updatedBy); err != nil {
		return Template{}, err
	}
	return s.GetTemplate(ctx, MasterTemplate)
}

// Ping checks database reachability for the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
