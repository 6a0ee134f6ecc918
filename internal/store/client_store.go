package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
)

const clientColumns = `id, name, email, phone, address, password_hash, must_change_password, password_changed_at, created_at`

type ClientStore struct {
	db *sql.DB
}

func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db}
}

func scanClient(row rowScanner) (*domain.Client, error) {
	c := &domain.Client{}
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.PasswordHash, &c.MustChangePassword, &c.PasswordChangedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientStore) Create(ctx context.Context, name, email, phone, address string) (*domain.Client, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, email, phone, address) VALUES (?, ?, ?, ?)
	`, name, email, phone, address)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("client email %q: %w", email, domain.ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ClientStore) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

func (s *ClientStore) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE email = ? COLLATE NOCASE
	`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}
	return c, nil
}

func (s *ClientStore) List(ctx context.Context) ([]*domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clientColumns+` FROM clients ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	clients, err := collect(rows, scanClient)
	if err != nil {
		return nil, fmt.Errorf("failed to scan clients: %w", err)
	}
	return clients, nil
}

func (s *ClientStore) Update(ctx context.Context, id int64, name, email, phone, address string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name = ?, email = ?, phone = ?, address = ? WHERE id = ?
	`, name, email, phone, address, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("client email %q: %w", email, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return expectOneRow(result, "client")
}

// SetPassword stores a new password hash and the must-change flag.
func (s *ClientStore) SetPassword(ctx context.Context, id int64, hash string, mustChange bool, changedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients SET password_hash = ?, must_change_password = ?, password_changed_at = ? WHERE id = ?
	`, hash, mustChange, changedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set client password: %w", err)
	}
	return expectOneRow(result, "client")
}

func (s *ClientStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM clients WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return expectOneRow(result, "client")
}

// expectOneRow maps a zero-row mutation to domain.ErrNotFound.
func expectOneRow(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %w", entity, domain.ErrNotFound)
	}
	return nil
}
