package web

import (
	"net/http"

	"github.com/vbonduro/siteinspect/internal/service"
)

// maxImportSize caps a zone import CSV.
const maxImportSize = 1 << 20

type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (c clientRequest) input() service.ClientInput {
	return service.ClientInput{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

type siteRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (s siteRequest) input() service.SiteInput {
	return service.SiteInput{Name: s.Name, Address: s.Address, Description: s.Description}
}

type nameRequest struct {
	Name string `json:"name"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleCreateTechnician(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tech, err := s.auth.CreateTechnician(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"id": tech.ID, "email": tech.Email})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.catalog.ListClients(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapSlice(clients, toClient))
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.catalog.CreateClient(r.Context(), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toClient(c))
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.catalog.GetClient(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toClient(c))
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req clientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.catalog.UpdateClient(r.Context(), id, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toClient(c))
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteClient(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetClientPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.SetPassword(r.Context(), id, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sites, err := s.catalog.ListSites(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapSlice(sites, toSite))
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req siteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	site, err := s.catalog.CreateSite(r.Context(), clientID, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toSite(site))
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	site, err := s.catalog.GetSite(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSite(site))
}

func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req siteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	site, err := s.catalog.UpdateSite(r.Context(), id, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSite(site))
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteSite(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	siteID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	zones, err := s.catalog.ListZones(r.Context(), siteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapSlice(zones, toZone))
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	siteID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	z, err := s.catalog.CreateZone(r.Context(), siteID, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toZone(z))
}

// handleImportZones takes a CSV body with a "name" column.
func (s *Server) handleImportZones(w http.ResponseWriter, r *http.Request) {
	siteID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.catalog.ImportZones(r.Context(), siteID, http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"created": mapSlice(res.Created, toZone),
		"skipped": res.Skipped,
	})
}

func (s *Server) handleRenameZone(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	z, err := s.catalog.RenameZone(r.Context(), id, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toZone(z))
}

func (s *Server) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteZone(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	siteID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.catalog.ListInspections(r.Context(), siteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapSlice(list, toInspection))
}

func (s *Server) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	siteID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Validate before streaming so errors still get a proper status.
	if _, err := s.catalog.GetSite(r.Context(), siteID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="register.csv"`)
	if err := s.catalog.ExportRegister(r.Context(), siteID, w); err != nil {
		s.logger.Error("export register failed", "site_id", siteID, "error", err)
	}
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req notesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sec, err := s.catalog.UpdateNotes(r.Context(), id, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sectionJSON{ID: sec.ID, Type: string(sec.Type), Label: sec.Type.Label(), Notes: sec.Notes})
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeletePhoto(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

