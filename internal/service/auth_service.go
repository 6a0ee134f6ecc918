package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vbonduro/siteinspect/internal/domain"
)

const minPasswordLength = 8

// LoginResult is returned by a successful customer login.
type LoginResult struct {
	Client             *domain.Client
	MustChangePassword bool
}

// AuthService handles customer portal credentials and technician accounts.
// Passwords are stored as bcrypt hashes.
type AuthService struct {
	clients     clientRepository
	technicians technicianRepository
	cost        int
	logger      *slog.Logger
	now         func() time.Time
}

func NewAuthService(clients clientRepository, technicians technicianRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		clients:     clients,
		technicians: technicians,
		cost:        bcrypt.DefaultCost,
		logger:      logger,
		now:         time.Now,
	}
}

// Login checks a customer's email and password. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	c, err := s.clients.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, storeErr("get client", err)
	}
	if c == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if c.PasswordHash == "" {
		return nil, domain.ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("client login rejected", "client_id", c.ID)
		return nil, domain.ErrInvalidCredentials
	}
	return &LoginResult{Client: c, MustChangePassword: c.MustChangePassword}, nil
}

// ChangePassword lets a customer replace their password. The old password
// is only checked when one is already set.
func (s *AuthService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	c, err := s.clients.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return storeErr("get client", err)
	}
	if c == nil {
		return domain.ErrInvalidCredentials
	}
	if c.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(oldPassword)); err != nil {
			return domain.ErrInvalidCredentials
		}
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.clients.SetPassword(ctx, c.ID, hash, false, s.now()); err != nil {
		return storeErr("set password", err)
	}
	s.logger.Info("client password changed", "client_id", c.ID)
	return nil
}

// SetPassword is the technician-side reset. The customer must pick a new
// password at next login.
func (s *AuthService) SetPassword(ctx context.Context, clientID int64, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	c, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return storeErr("get client", err)
	}
	if c == nil {
		return fmt.Errorf("client %d: %w", clientID, domain.ErrNotFound)
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.clients.SetPassword(ctx, c.ID, hash, true, s.now()); err != nil {
		return storeErr("set password", err)
	}
	s.logger.Info("client password set", "client_id", c.ID)
	return nil
}

func (s *AuthService) CreateTechnician(ctx context.Context, email, password string) (*domain.Technician, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("technician email %q: %w", email, domain.ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	t, err := s.technicians.Create(ctx, email, hash)
	if err != nil {
		return nil, storeErr("create technician", err)
	}
	s.logger.Info("technician created", "technician_id", t.ID)
	return t, nil
}

func (s *AuthService) AuthenticateTechnician(ctx context.Context, email, password string) (*domain.Technician, error) {
	t, err := s.technicians.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, storeErr("get technician", err)
	}
	if t == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return t, nil
}

// BootstrapTechnician creates the first technician account when none exist.
// It does nothing once any technician is present.
func (s *AuthService) BootstrapTechnician(ctx context.Context, email, password string) error {
	n, err := s.technicians.Count(ctx)
	if err != nil {
		return storeErr("count technicians", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.CreateTechnician(ctx, email, password); err != nil {
		return fmt.Errorf("failed to bootstrap technician: %w", err)
	}
	return nil
}

func (s *AuthService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("password too long: %w", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func validatePassword(p string) error {
	if len(p) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, domain.ErrInvalidInput)
	}
	return nil
}
