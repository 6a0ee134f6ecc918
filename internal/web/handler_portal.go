package web

import (
	"fmt"
	"net/http"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/service"
)

const maxSignatureSize = 5 << 20

type changePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// handleChangePassword is unauthenticated: the old password, when one is
// set, is the credential.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.ChangePassword(r.Context(), req.Email, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePortalSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.portal.Sites(r.Context(), clientFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapSlice(sites, toSite))
}

func (s *Server) handlePortalInspections(w http.ResponseWriter, r *http.Request) {
	siteID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.portal.Inspections(r.Context(), clientFrom(r.Context()).ID, siteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapSlice(list, func(in service.InspectionSummary) inspectionJSON {
		j := toInspection(in.Inspection)
		j.ZoneName = in.ZoneName
		j.TechnicianID = 0
		return j
	}))
}

type portalInspectionJSON struct {
	Inspection inspectionJSON `json:"inspection"`
	Site       siteJSON       `json:"site"`
	Sections   []sectionJSON  `json:"sections"`
}

func (s *Server) handlePortalInspection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.portal.InspectionDetails(r.Context(), clientFrom(r.Context()).ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := portalInspectionJSON{Inspection: toInspection(d.Inspection), Site: toSite(d.Site), Sections: []sectionJSON{}}
	out.Inspection.TechnicianID = 0
	if d.Zone != nil {
		out.Inspection.ZoneName = d.Zone.Name
	}
	for _, sec := range d.Sections {
		sj := sectionJSON{Type: string(sec.Type), Label: sec.Label, Notes: sec.Notes, Photos: []photoJSON{}}
		for _, p := range sec.Photos {
			sj.Photos = append(sj.Photos, photoJSON(p))
		}
		out.Sections = append(out.Sections, sj)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePortalReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.portal.Report(r.Context(), clientFrom(r.Context()).ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeDocument(w, doc)
}

// handlePortalAcknowledge takes a multipart form with an optional
// "signature" PNG and a "comment" field.
func (s *Server) handlePortalAcknowledge(w http.ResponseWriter, r *http.Request) {
	siteID, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSignatureSize+1<<20)
	if err := r.ParseMultipartForm(maxSignatureSize); err != nil {
		s.writeError(w, r, fmt.Errorf("failed to parse form: %v: %w", err, domain.ErrInvalidInput))
		return
	}
	signature, err := readFormFile(r, "signature", maxSignatureSize, s.logger)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	site, err := s.portal.Acknowledge(r.Context(), clientFrom(r.Context()).ID, siteID, signature, r.FormValue("comment"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSite(site))
}
