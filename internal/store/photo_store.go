package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/siteinspect/internal/domain"
)

type PhotoStore struct {
	db *sql.DB
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

func scanPhoto(row rowScanner) (*domain.Photo, error) {
	p := &domain.Photo{}
	if err := row.Scan(&p.ID, &p.SectionID, &p.StorageKey, &p.MimeType, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PhotoStore) Create(ctx context.Context, sectionID int64, storageKey, mimeType string) (*domain.Photo, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (section_id, storage_key, mime_type) VALUES (?, ?, ?)
	`, sectionID, storageKey, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *PhotoStore) GetByID(ctx context.Context, id int64) (*domain.Photo, error) {
	p, err := scanPhoto(s.db.QueryRowContext(ctx, `
		SELECT id, section_id, storage_key, mime_type, created_at FROM photos WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return p, nil
}

// ListBySection returns the section's photos in upload order.
func (s *PhotoStore) ListBySection(ctx context.Context, sectionID int64) ([]*domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, section_id, storage_key, mime_type, created_at FROM photos
		WHERE section_id = ? ORDER BY created_at ASC, id ASC
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	photos, err := collect(rows, scanPhoto)
	if err != nil {
		return nil, fmt.Errorf("failed to scan photos: %w", err)
	}
	return photos, nil
}

func (s *PhotoStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM photos WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return expectOneRow(result, "photo")
}

// KeysByInspection lists blob keys owned by the inspection so they can be
// removed after the rows cascade away.
func (s *PhotoStore) KeysByInspection(ctx context.Context, inspectionID int64) ([]string, error) {
	return s.keys(ctx, `
		SELECT p.storage_key FROM photos p
		JOIN sections s ON s.id = p.section_id
		WHERE s.inspection_id = ?
	`, inspectionID)
}

func (s *PhotoStore) KeysByZone(ctx context.Context, zoneID int64) ([]string, error) {
	return s.keys(ctx, `
		SELECT p.storage_key FROM photos p
		JOIN sections s ON s.id = p.section_id
		JOIN inspections i ON i.id = s.inspection_id
		WHERE i.zone_id = ?
	`, zoneID)
}

func (s *PhotoStore) KeysBySite(ctx context.Context, siteID int64) ([]string, error) {
	return s.keys(ctx, `
		SELECT p.storage_key FROM photos p
		JOIN sections s ON s.id = p.section_id
		JOIN inspections i ON i.id = s.inspection_id
		WHERE i.site_id = ?
	`, siteID)
}

func (s *PhotoStore) KeysByClient(ctx context.Context, clientID int64) ([]string, error) {
	return s.keys(ctx, `
		SELECT p.storage_key FROM photos p
		JOIN sections s ON s.id = p.section_id
		JOIN inspections i ON i.id = s.inspection_id
		JOIN sites st ON st.id = i.site_id
		WHERE st.client_id = ?
	`, clientID)
}

func (s *PhotoStore) keys(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list photo keys: %w", err)
	}
	defer closeRows(rows)

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan photo key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photo keys: %w", err)
	}
	return keys, nil
}
