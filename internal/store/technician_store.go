package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/siteinspect/internal/domain"
)

type TechnicianStore struct {
	db *sql.DB
}

func NewTechnicianStore(db *sql.DB) *TechnicianStore {
	return &TechnicianStore{db: db}
}

func scanTechnician(row rowScanner) (*domain.Technician, error) {
	t := &domain.Technician{}
	if err := row.Scan(&t.ID, &t.Email, &t.PasswordHash, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TechnicianStore) Create(ctx context.Context, email, passwordHash string) (*domain.Technician, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO technicians (email, password_hash) VALUES (?, ?)
	`, email, passwordHash)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("technician email %q: %w", email, domain.ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create technician: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *TechnicianStore) GetByID(ctx context.Context, id int64) (*domain.Technician, error) {
	t, err := scanTechnician(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM technicians WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get technician: %w", err)
	}
	return t, nil
}

func (s *TechnicianStore) GetByEmail(ctx context.Context, email string) (*domain.Technician, error) {
	t, err := scanTechnician(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM technicians WHERE email = ? COLLATE NOCASE
	`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get technician by email: %w", err)
	}
	return t, nil
}

func (s *TechnicianStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM technicians`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count technicians: %w", err)
	}
	return n, nil
}
