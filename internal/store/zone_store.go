package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/siteinspect/internal/domain"
)

type ZoneStore struct {
	db *sql.DB
}

func NewZoneStore(db *sql.DB) *ZoneStore {
	return &ZoneStore{db: db}
}

func scanZone(row rowScanner) (*domain.Zone, error) {
	z := &domain.Zone{}
	if err := row.Scan(&z.ID, &z.SiteID, &z.Name, &z.CreatedAt); err != nil {
		return nil, err
	}
	return z, nil
}

func (s *ZoneStore) Create(ctx context.Context, siteID int64, name string) (*domain.Zone, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO zones (site_id, name) VALUES (?, ?)
	`, siteID, name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("zone name %q: %w", name, domain.ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create zone: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ZoneStore) GetByID(ctx context.Context, id int64) (*domain.Zone, error) {
	z, err := scanZone(s.db.QueryRowContext(ctx, `
		SELECT id, site_id, name, created_at FROM zones WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	return z, nil
}

func (s *ZoneStore) ListBySite(ctx context.Context, siteID int64) ([]*domain.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_id, name, created_at FROM zones WHERE site_id = ? ORDER BY name ASC, id ASC
	`, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	zones, err := collect(rows, scanZone)
	if err != nil {
		return nil, fmt.Errorf("failed to scan zones: %w", err)
	}
	return zones, nil
}

func (s *ZoneStore) Update(ctx context.Context, id int64, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE zones SET name = ? WHERE id = ?
	`, name, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("zone name %q: %w", name, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update zone: %w", err)
	}
	return expectOneRow(result, "zone")
}

func (s *ZoneStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM zones WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete zone: %w", err)
	}
	return expectOneRow(result, "zone")
}
