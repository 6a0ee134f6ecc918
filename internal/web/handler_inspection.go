package web

import (
	"net/http"
	"strconv"

	"github.com/vbonduro/siteinspect/internal/report"
)

// handleStartWork opens the zone's inspection for editing.
func (s *Server) handleStartWork(w http.ResponseWriter, r *http.Request) {
	zoneID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	zone, err := s.catalog.GetZone(r.Context(), zoneID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var techID int64
	if t := technicianFrom(r.Context()); t != nil {
		techID = t.ID
	}
	ws, err := s.inspections.StartWork(r.Context(), zone.SiteID, zone.ID, techID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toWorkspace(r.Context(), ws))
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.inspections.Workspace(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toWorkspace(r.Context(), ws))
}

func (s *Server) handleFinishWork(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	insp, err := s.inspections.FinishWork(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toInspection(insp))
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	insp, err := s.inspections.Release(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toInspection(insp))
}

func (s *Server) handleDeleteInspection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.inspections.DeleteInspection(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReport serves a technician report for the scope kind named by the
// route.
func (s *Server) handleReport(kind report.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		doc, err := s.reports.Build(r.Context(), report.Scope{Kind: kind, ID: id, Audience: report.AudienceTechnician})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeDocument(w, doc)
	}
}

func (s *Server) writeDocument(w http.ResponseWriter, doc *report.Document) {
	h := w.Header()
	h.Set("Content-Type", doc.ContentType)
	h.Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	h.Set("Content-Length", strconv.Itoa(len(doc.Data)))
	h.Set("X-Report-Pages", strconv.Itoa(doc.Pages))
	if _, err := w.Write(doc.Data); err != nil {
		s.logger.Error("write report failed", "filename", doc.Filename, "error", err)
	}
}
