package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/siteinspect/internal/domain"
)

type SectionStore struct {
	db *sql.DB
}

func NewSectionStore(db *sql.DB) *SectionStore {
	return &SectionStore{db: db}
}

func scanSection(row rowScanner) (*domain.Section, error) {
	sec := &domain.Section{}
	var sectionType string
	if err := row.Scan(&sec.ID, &sec.InspectionID, &sectionType, &sec.Notes); err != nil {
		return nil, err
	}
	sec.Type = domain.SectionType(sectionType)
	return sec, nil
}

// CreateIfAbsent inserts an empty section of the given type unless one
// already exists. The unique (inspection_id, section_type) index makes
// concurrent callers converge on a single row.
func (s *SectionStore) CreateIfAbsent(ctx context.Context, inspectionID int64, sectionType domain.SectionType) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sections (inspection_id, section_type, notes) VALUES (?, ?, '')
		ON CONFLICT (inspection_id, section_type) DO NOTHING
	`, inspectionID, string(sectionType))
	if err != nil {
		return false, fmt.Errorf("failed to create section: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SectionStore) GetByID(ctx context.Context, id int64) (*domain.Section, error) {
	sec, err := scanSection(s.db.QueryRowContext(ctx, `
		SELECT id, inspection_id, section_type, notes FROM sections WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return sec, nil
}

// ListByInspection returns the inspection's sections in display order.
func (s *SectionStore) ListByInspection(ctx context.Context, inspectionID int64) ([]*domain.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, inspection_id, section_type, notes FROM sections WHERE inspection_id = ? ORDER BY id ASC
	`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	sections, err := collect(rows, scanSection)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sections: %w", err)
	}
	domain.SortSections(sections)
	return sections, nil
}

func (s *SectionStore) UpdateNotes(ctx context.Context, id int64, notes string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sections SET notes = ? WHERE id = ?
	`, notes, id)
	if err != nil {
		return fmt.Errorf("failed to update section notes: %w", err)
	}
	return expectOneRow(result, "section")
}
