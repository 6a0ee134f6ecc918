package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
)

const siteColumns = `id, client_id, name, address, description, signature_key, client_comment, signed_at, created_at`

type SiteStore struct {
	db *sql.DB
}

func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{db: db}
}

func scanSite(row rowScanner) (*domain.Site, error) {
	s := &domain.Site{}
	err := row.Scan(&s.ID, &s.ClientID, &s.Name, &s.Address, &s.Description,
		&s.SignatureKey, &s.ClientComment, &s.SignedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SiteStore) Create(ctx context.Context, clientID int64, name, address, description string) (*domain.Site, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (client_id, name, address, description) VALUES (?, ?, ?, ?)
	`, clientID, name, address, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *SiteStore) GetByID(ctx context.Context, id int64) (*domain.Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx, `
		SELECT `+siteColumns+` FROM sites WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// ListByClient returns the client's sites, newest first.
func (s *SiteStore) ListByClient(ctx context.Context, clientID int64) ([]*domain.Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+siteColumns+` FROM sites WHERE client_id = ? ORDER BY created_at DESC, id DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	sites, err := collect(rows, scanSite)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sites: %w", err)
	}
	return sites, nil
}

func (s *SiteStore) Update(ctx context.Context, id int64, name, address, description string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sites SET name = ?, address = ?, description = ? WHERE id = ?
	`, name, address, description, id)
	if err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}
	return expectOneRow(result, "site")
}

// SetAcknowledgment records the customer's sign-off on the site.
func (s *SiteStore) SetAcknowledgment(ctx context.Context, id int64, signatureKey, comment string, signedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sites SET signature_key = ?, client_comment = ?, signed_at = ? WHERE id = ?
	`, signatureKey, comment, signedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set site acknowledgment: %w", err)
	}
	return expectOneRow(result, "site")
}

func (s *SiteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sites WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return expectOneRow(result, "site")
}
