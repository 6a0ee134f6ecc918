package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/vbonduro/siteinspect/internal/domain"
)

type ctxKey int

const (
	technicianKey ctxKey = iota
	clientKey
)

func technicianFrom(ctx context.Context) *domain.Technician {
	t, _ := ctx.Value(technicianKey).(*domain.Technician)
	return t
}

func clientFrom(ctx context.Context) *domain.Client {
	c, _ := ctx.Value(clientKey).(*domain.Client)
	return c
}

// requireTechnician authenticates the technician API with HTTP Basic auth.
func (s *Server) requireTechnician(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			s.challenge(w, r, "technician", domain.ErrInvalidCredentials)
			return
		}
		tech, err := s.auth.AuthenticateTechnician(r.Context(), email, password)
		if err != nil {
			s.challenge(w, r, "technician", err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), technicianKey, tech)))
	}
}

// requireClient authenticates the customer portal. A client that must
// change its password is refused until it does so via /portal/password.
func (s *Server) requireClient(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			s.challenge(w, r, "portal", domain.ErrInvalidCredentials)
			return
		}
		res, err := s.auth.Login(r.Context(), email, password)
		if err != nil {
			s.challenge(w, r, "portal", err)
			return
		}
		if res.MustChangePassword {
			s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "password change required"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), clientKey, res.Client)))
	}
}

func (s *Server) challenge(w http.ResponseWriter, r *http.Request, realm string, err error) {
	if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrNoPassword) {
		w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
	}
	s.writeError(w, r, err)
}
