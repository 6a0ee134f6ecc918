package web

import (
	"context"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/service"
)

type clientJSON struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Address            string    `json:"address"`
	HasPassword        bool      `json:"has_password"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
}

func toClient(c *domain.Client) clientJSON {
	return clientJSON{
		ID:                 c.ID,
		Name:               c.Name,
		Email:              c.Email,
		Phone:              c.Phone,
		Address:            c.Address,
		HasPassword:        c.PasswordHash != "",
		MustChangePassword: c.MustChangePassword,
		CreatedAt:          c.CreatedAt,
	}
}

type siteJSON struct {
	ID            int64      `json:"id"`
	ClientID      int64      `json:"client_id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	Description   string     `json:"description"`
	Acknowledged  bool       `json:"acknowledged"`
	ClientComment string     `json:"client_comment,omitempty"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toSite(s *domain.Site) siteJSON {
	return siteJSON{
		ID:            s.ID,
		ClientID:      s.ClientID,
		Name:          s.Name,
		Address:       s.Address,
		Description:   s.Description,
		Acknowledged:  s.HasAcknowledgment(),
		ClientComment: s.ClientComment,
		SignedAt:      s.SignedAt,
		CreatedAt:     s.CreatedAt,
	}
}

type zoneJSON struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toZone(z *domain.Zone) zoneJSON {
	return zoneJSON{ID: z.ID, SiteID: z.SiteID, Name: z.Name, CreatedAt: z.CreatedAt}
}

type inspectionJSON struct {
	ID             int64     `json:"id"`
	SiteID         int64     `json:"site_id"`
	ZoneID         int64     `json:"zone_id"`
	ZoneName       string    `json:"zone_name,omitempty"`
	TechnicianID   int64     `json:"technician_id,omitempty"`
	Status         string    `json:"status"`
	Released       bool      `json:"released"`
	InspectionDate string    `json:"inspection_date"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toInspection(i *domain.Inspection) inspectionJSON {
	return inspectionJSON{
		ID:             i.ID,
		SiteID:         i.SiteID,
		ZoneID:         i.ZoneID,
		TechnicianID:   i.TechnicianID,
		Status:         string(i.Status),
		Released:       i.Released,
		InspectionDate: i.InspectionDate.Format(time.DateOnly),
		UpdatedAt:      i.UpdatedAt,
	}
}

type photoJSON struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

type sectionJSON struct {
	ID     int64       `json:"id,omitempty"`
	Type   string      `json:"type"`
	Label  string      `json:"label"`
	Notes  string      `json:"notes"`
	Photos []photoJSON `json:"photos"`
}

type workspaceJSON struct {
	Inspection inspectionJSON `json:"inspection"`
	Zone       zoneJSON       `json:"zone"`
	Sections   []sectionJSON  `json:"sections"`
}

// toWorkspace resolves photo URLs through the photo store. A photo whose URL
// cannot be built is listed without one.
func (s *Server) toWorkspace(ctx context.Context, ws *service.Workspace) workspaceJSON {
	out := workspaceJSON{Inspection: toInspection(ws.Inspection), Sections: []sectionJSON{}}
	if ws.Zone != nil {
		out.Zone = toZone(ws.Zone)
		out.Inspection.ZoneName = ws.Zone.Name
	}
	for _, sec := range ws.Sections {
		sj := sectionJSON{ID: sec.ID, Type: string(sec.Type), Label: sec.Type.Label(), Notes: sec.Notes, Photos: []photoJSON{}}
		for _, p := range sec.Photos {
			url, err := s.photoStore.PublicURL(ctx, p.StorageKey)
			if err != nil {
				s.logger.Warn("failed to build photo url", "photo_id", p.ID, "error", err)
			}
			sj.Photos = append(sj.Photos, photoJSON{ID: p.ID, URL: url, MimeType: p.MimeType, CreatedAt: p.CreatedAt})
		}
		out.Sections = append(out.Sections, sj)
	}
	return out
}

func mapSlice[T, J any](in []T, f func(T) J) []J {
	out := make([]J, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
