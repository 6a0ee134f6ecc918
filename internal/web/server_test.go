package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/siteinspect/internal/domain"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("zone 3: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrNothingToReport, http.StatusNotFound},
		{domain.TransitionError("release", domain.StatusInProgress), http.StatusConflict},
		{fmt.Errorf("create zone: %w", domain.ErrDuplicate), http.StatusConflict},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrNoPassword, http.StatusUnauthorized},
		{domain.Storage("get site", errors.New("disk I/O error")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	s := &Server{logger: slog.Default()}
	req := httptest.NewRequest(http.MethodGet, "/api/sites/1", nil)

	rec := httptest.NewRecorder()
	s.writeError(rec, req, domain.Storage("get site", errors.New("disk I/O error")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.writeError(rec, req, fmt.Errorf("site 1: %w", domain.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "site 1")
}

func TestParseID(t *testing.T) {
	for _, tc := range []struct {
		raw string
		ok  bool
	}{{"12", true}, {"0", false}, {"-1", false}, {"abc", false}} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tc.raw)
		id, err := parseID(req)
		if tc.ok {
			assert.NoError(t, err)
			assert.Equal(t, int64(12), id)
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidInput, tc.raw)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}
