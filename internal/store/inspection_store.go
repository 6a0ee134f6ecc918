package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
)

const inspectionColumns = `id, site_id, zone_id, technician_id, status, released, inspection_date, created_at, updated_at`

// InspectionFilter narrows list queries. Zero values match everything.
type InspectionFilter struct {
	Status       domain.InspectionStatus
	ReleasedOnly bool
}

type InspectionStore struct {
	db *sql.DB
}

func NewInspectionStore(db *sql.DB) *InspectionStore {
	return &InspectionStore{db: db}
}

func scanInspection(row rowScanner) (*domain.Inspection, error) {
	i := &domain.Inspection{}
	var status string
	err := row.Scan(&i.ID, &i.SiteID, &i.ZoneID, &i.TechnicianID, &status,
		&i.Released, &i.InspectionDate, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.Status = domain.InspectionStatus(status)
	return i, nil
}

// Create inserts a fresh in-progress, unreleased inspection.
func (s *InspectionStore) Create(ctx context.Context, siteID, zoneID, technicianID int64, date time.Time) (*domain.Inspection, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO inspections (site_id, zone_id, technician_id, status, released, inspection_date)
		VALUES (?, ?, ?, ?, 0, ?)
	`, siteID, zoneID, technicianID, string(domain.StatusInProgress), date.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create inspection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *InspectionStore) GetByID(ctx context.Context, id int64) (*domain.Inspection, error) {
	i, err := scanInspection(s.db.QueryRowContext(ctx, `
		SELECT `+inspectionColumns+` FROM inspections WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return i, nil
}

// LatestForZone returns the most recently created inspection for the
// (site, zone) pair, or nil when none exists.
func (s *InspectionStore) LatestForZone(ctx context.Context, siteID, zoneID int64) (*domain.Inspection, error) {
	i, err := scanInspection(s.db.QueryRowContext(ctx, `
		SELECT `+inspectionColumns+` FROM inspections
		WHERE site_id = ? AND zone_id = ?
		ORDER BY id DESC LIMIT 1
	`, siteID, zoneID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest inspection: %w", err)
	}
	return i, nil
}

// ListBySite returns the site's inspections, most recent inspection date first.
func (s *InspectionStore) ListBySite(ctx context.Context, siteID int64, f InspectionFilter) ([]*domain.Inspection, error) {
	return s.list(ctx, "site_id = ?", siteID, f)
}

// ListByZone returns the zone's inspections, most recent inspection date first.
func (s *InspectionStore) ListByZone(ctx context.Context, zoneID int64, f InspectionFilter) ([]*domain.Inspection, error) {
	return s.list(ctx, "zone_id = ?", zoneID, f)
}

func (s *InspectionStore) list(ctx context.Context, where string, arg int64, f InspectionFilter) ([]*domain.Inspection, error) {
	conds := []string{where}
	args := []any{arg}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.ReleasedOnly {
		conds = append(conds, "released = 1")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inspectionColumns+` FROM inspections
		WHERE `+strings.Join(conds, " AND ")+`
		ORDER BY inspection_date DESC, id DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	inspections, err := collect(rows, scanInspection)
	if err != nil {
		return nil, fmt.Errorf("failed to scan inspections: %w", err)
	}
	return inspections, nil
}

func (s *InspectionStore) SetStatus(ctx context.Context, id int64, status domain.InspectionStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE inspections SET status = ?, updated_at = datetime('now') WHERE id = ?
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set inspection status: %w", err)
	}
	return expectOneRow(result, "inspection")
}

func (s *InspectionStore) SetReleased(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE inspections SET released = 1, updated_at = datetime('now') WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to release inspection: %w", err)
	}
	return expectOneRow(result, "inspection")
}

// Touch bumps updated_at after an edit to one of the inspection's sections.
func (s *InspectionStore) Touch(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE inspections SET updated_at = datetime('now') WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to touch inspection: %w", err)
	}
	return nil
}

// Delete removes the inspection; sections and photo rows cascade.
func (s *InspectionStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM inspections WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inspection: %w", err)
	}
	return expectOneRow(result, "inspection")
}
