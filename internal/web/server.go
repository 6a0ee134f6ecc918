package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/photostore"
	"github.com/vbonduro/siteinspect/internal/report"
	"github.com/vbonduro/siteinspect/internal/service"
)

type reportBuilder interface {
	Build(ctx context.Context, scope report.Scope) (*report.Document, error)
}

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Inspections *service.InspectionService
	Catalog     *service.CatalogService
	Portal      *service.PortalService
	Auth        *service.AuthService
	Reports     reportBuilder
	PhotoStore  photostore.PhotoStore
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type Server struct {
	inspections *service.InspectionService
	catalog     *service.CatalogService
	portal      *service.PortalService
	auth        *service.AuthService
	reports     reportBuilder
	photoStore  photostore.PhotoStore
	gatherer    prometheus.Gatherer
	mux         *http.ServeMux
	logger      *slog.Logger
}

func NewServer(deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		inspections: deps.Inspections,
		catalog:     deps.Catalog,
		portal:      deps.Portal,
		auth:        deps.Auth,
		reports:     deps.Reports,
		photoStore:  deps.PhotoStore,
		gatherer:    deps.Gatherer,
		mux:         http.NewServeMux(),
		logger:      logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	s.mux.HandleFunc("GET /photos/{key...}", s.handleGetPhoto)

	tech := s.requireTechnician
	s.mux.HandleFunc("POST /api/technicians", tech(s.handleCreateTechnician))

	s.mux.HandleFunc("GET /api/clients", tech(s.handleListClients))
	s.mux.HandleFunc("POST /api/clients", tech(s.handleCreateClient))
	s.mux.HandleFunc("GET /api/clients/{id}", tech(s.handleGetClient))
	s.mux.HandleFunc("PUT /api/clients/{id}", tech(s.handleUpdateClient))
	s.mux.HandleFunc("DELETE /api/clients/{id}", tech(s.handleDeleteClient))
	s.mux.HandleFunc("POST /api/clients/{id}/password", tech(s.handleSetClientPassword))
	s.mux.HandleFunc("GET /api/clients/{id}/sites", tech(s.handleListSites))
	s.mux.HandleFunc("POST /api/clients/{id}/sites", tech(s.handleCreateSite))

	s.mux.HandleFunc("GET /api/sites/{id}", tech(s.handleGetSite))
	s.mux.HandleFunc("PUT /api/sites/{id}", tech(s.handleUpdateSite))
	s.mux.HandleFunc("DELETE /api/sites/{id}", tech(s.handleDeleteSite))
	s.mux.HandleFunc("GET /api/sites/{id}/zones", tech(s.handleListZones))
	s.mux.HandleFunc("POST /api/sites/{id}/zones", tech(s.handleCreateZone))
	s.mux.HandleFunc("POST /api/sites/{id}/zones/import", tech(s.handleImportZones))
	s.mux.HandleFunc("GET /api/sites/{id}/inspections", tech(s.handleListInspections))
	s.mux.HandleFunc("GET /api/sites/{id}/register.csv", tech(s.handleExportRegister))
	s.mux.HandleFunc("GET /api/sites/{id}/report", tech(s.handleReport(report.KindSite)))

	s.mux.HandleFunc("PUT /api/zones/{id}", tech(s.handleRenameZone))
	s.mux.HandleFunc("DELETE /api/zones/{id}", tech(s.handleDeleteZone))
	s.mux.HandleFunc("POST /api/zones/{id}/start", tech(s.handleStartWork))
	s.mux.HandleFunc("GET /api/zones/{id}/report", tech(s.handleReport(report.KindZone)))

	s.mux.HandleFunc("GET /api/inspections/{id}", tech(s.handleGetWorkspace))
	s.mux.HandleFunc("POST /api/inspections/{id}/finish", tech(s.handleFinishWork))
	s.mux.HandleFunc("POST /api/inspections/{id}/release", tech(s.handleRelease))
	s.mux.HandleFunc("DELETE /api/inspections/{id}", tech(s.handleDeleteInspection))
	s.mux.HandleFunc("GET /api/inspections/{id}/report", tech(s.handleReport(report.KindInspection)))

	s.mux.HandleFunc("PUT /api/sections/{id}/notes", tech(s.handleUpdateNotes))
	s.mux.HandleFunc("POST /api/sections/{id}/photos", tech(s.handleUploadPhoto))
	s.mux.HandleFunc("DELETE /api/photos/{id}", tech(s.handleDeletePhoto))

	customer := s.requireClient
	s.mux.HandleFunc("POST /portal/password", s.handleChangePassword)
	s.mux.HandleFunc("GET /portal/sites", customer(s.handlePortalSites))
	s.mux.HandleFunc("GET /portal/sites/{id}/inspections", customer(s.handlePortalInspections))
	s.mux.HandleFunc("POST /portal/sites/{id}/acknowledgment", customer(s.handlePortalAcknowledge))
	s.mux.HandleFunc("GET /portal/inspections/{id}", customer(s.handlePortalInspection))
	s.mux.HandleFunc("GET /portal/inspections/{id}/report", customer(s.handlePortalReport))
}

// securityHeaders sets browser hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNothingToReport):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNoPassword):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with its mapped status. Internal errors are logged
// and their details withheld from the response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, domain.ErrInvalidInput)
	}
	return nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", r.PathValue("id"), domain.ErrInvalidInput)
	}
	return id, nil
}
