package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/gate"
	"github.com/vbonduro/siteinspect/internal/photostore"
	"github.com/vbonduro/siteinspect/internal/report"
	"github.com/vbonduro/siteinspect/internal/store"
)

// maxSignatureBytes caps an uploaded sign-off image.
const maxSignatureBytes = 5 << 20

type reportBuilder interface {
	Build(ctx context.Context, scope report.Scope) (*report.Document, error)
}

// InspectionSummary is one row of the customer's inspection list.
type InspectionSummary struct {
	Inspection *domain.Inspection
	ZoneName   string
}

type PortalPhoto struct {
	ID        int64
	URL       string
	MimeType  string
	CreatedAt time.Time
}

type PortalSection struct {
	Type   domain.SectionType
	Label  string
	Notes  string
	Photos []PortalPhoto
}

// InspectionDetails is the customer's read-only view of one released
// inspection.
type InspectionDetails struct {
	Inspection *domain.Inspection
	Site       *domain.Site
	Zone       *domain.Zone
	Sections   []PortalSection
}

// PortalService is the customer-facing API. Everything it returns has
// passed the visibility gate; anything that has not, or that belongs to
// another client, is reported as ErrNotFound.
type PortalService struct {
	sites       siteRepository
	zones       zoneRepository
	inspections inspectionRepository
	sections    sectionRepository
	photos      photoRepository
	photoStg    photostore.PhotoStore
	reports     reportBuilder
	logger      *slog.Logger
	now         func() time.Time
}

func NewPortalService(
	sites siteRepository,
	zones zoneRepository,
	inspections inspectionRepository,
	sections sectionRepository,
	photos photoRepository,
	photoStg photostore.PhotoStore,
	reports reportBuilder,
	logger *slog.Logger,
) *PortalService {
	return &PortalService{
		sites:       sites,
		zones:       zones,
		inspections: inspections,
		sections:    sections,
		photos:      photos,
		photoStg:    photoStg,
		reports:     reports,
		logger:      logger,
		now:         time.Now,
	}
}

var visibleFilter = store.InspectionFilter{Status: domain.StatusCompleted, ReleasedOnly: true}

// Sites lists the client's sites that have released work, newest first.
func (s *PortalService) Sites(ctx context.Context, clientID int64) ([]*domain.Site, error) {
	sites, err := s.sites.ListByClient(ctx, clientID)
	if err != nil {
		return nil, storeErr("list sites", err)
	}
	out := make([]*domain.Site, 0, len(sites))
	for _, site := range sites {
		list, err := s.inspections.ListBySite(ctx, site.ID, visibleFilter)
		if err != nil {
			return nil, storeErr("list inspections", err)
		}
		if gate.SiteVisible(list) {
			out = append(out, site)
		}
	}
	return out, nil
}

// Inspections lists the released inspections of one of the client's sites.
func (s *PortalService) Inspections(ctx context.Context, clientID, siteID int64) ([]InspectionSummary, error) {
	site, visible, err := s.visibleSite(ctx, clientID, siteID)
	if err != nil {
		return nil, err
	}

	zones, err := s.zones.ListBySite(ctx, site.ID)
	if err != nil {
		return nil, storeErr("list zones", err)
	}
	names := make(map[int64]string, len(zones))
	for _, z := range zones {
		names[z.ID] = z.Name
	}

	out := make([]InspectionSummary, 0, len(visible))
	for _, insp := range visible {
		out = append(out, InspectionSummary{Inspection: insp, ZoneName: names[insp.ZoneID]})
	}
	return out, nil
}

// InspectionDetails returns every section in display order with photo URLs.
func (s *PortalService) InspectionDetails(ctx context.Context, clientID, inspectionID int64) (*InspectionDetails, error) {
	insp, site, err := s.visibleInspection(ctx, clientID, inspectionID)
	if err != nil {
		return nil, err
	}
	zone, err := s.zones.GetByID(ctx, insp.ZoneID)
	if err != nil {
		return nil, storeErr("get zone", err)
	}
	sections, err := s.sections.ListByInspection(ctx, insp.ID)
	if err != nil {
		return nil, storeErr("list sections", err)
	}
	details, err := loadSectionDetails(ctx, s.photos, sections)
	if err != nil {
		return nil, err
	}

	out := &InspectionDetails{Inspection: insp, Site: site, Zone: zone}
	for _, d := range details {
		ps := PortalSection{Type: d.Type, Label: d.Type.Label(), Notes: d.Notes}
		for _, p := range d.Photos {
			url, err := s.photoStg.PublicURL(ctx, p.StorageKey)
			if err != nil {
				s.logger.Warn("failed to build photo url", "photo_id", p.ID, "storage_key", p.StorageKey, "error", err)
				continue
			}
			ps.Photos = append(ps.Photos, PortalPhoto{ID: p.ID, URL: url, MimeType: p.MimeType, CreatedAt: p.CreatedAt})
		}
		out.Sections = append(out.Sections, ps)
	}
	return out, nil
}

// Report renders the customer copy of a released inspection.
func (s *PortalService) Report(ctx context.Context, clientID, inspectionID int64) (*report.Document, error) {
	return s.reports.Build(ctx, report.Scope{
		Kind:     report.KindInspection,
		ID:       inspectionID,
		Audience: report.AudienceCustomer,
		ClientID: clientID,
	})
}

// Acknowledge records the customer's sign-off on a site. A new signature
// replaces the previous one; with no signature the stored one is kept.
func (s *PortalService) Acknowledge(ctx context.Context, clientID, siteID int64, signaturePNG []byte, comment string) (*domain.Site, error) {
	comment = strings.TrimSpace(comment)
	if len(signaturePNG) == 0 && comment == "" {
		return nil, fmt.Errorf("signature or comment required: %w", domain.ErrInvalidInput)
	}
	if len(signaturePNG) > maxSignatureBytes {
		return nil, fmt.Errorf("signature exceeds %d bytes: %w", maxSignatureBytes, domain.ErrInvalidInput)
	}
	if len(signaturePNG) > 0 && http.DetectContentType(signaturePNG) != "image/png" {
		return nil, fmt.Errorf("signature must be a PNG image: %w", domain.ErrInvalidInput)
	}

	site, _, err := s.visibleSite(ctx, clientID, siteID)
	if err != nil {
		return nil, err
	}

	key, previous := site.SignatureKey, ""
	if len(signaturePNG) > 0 {
		prefix := fmt.Sprintf("sites/%d/signature", site.ID)
		if key, err = s.photoStg.Save(ctx, prefix, "image/png", bytes.NewReader(signaturePNG)); err != nil {
			return nil, fmt.Errorf("failed to save signature: %w", err)
		}
		previous = site.SignatureKey
	}

	if err := s.sites.SetAcknowledgment(ctx, site.ID, key, comment, s.now()); err != nil {
		if key != site.SignatureKey {
			deleteBlobs(ctx, s.photoStg, s.logger, []string{key})
		}
		return nil, storeErr("set acknowledgment", err)
	}
	deleteBlobs(ctx, s.photoStg, s.logger, []string{previous})

	s.logger.Info("site acknowledged", "site_id", site.ID, "client_id", clientID, "signature", len(signaturePNG) > 0)
	updated, err := s.sites.GetByID(ctx, site.ID)
	if err != nil {
		return nil, storeErr("get site", err)
	}
	return updated, nil
}

// visibleSite loads a site owned by the client together with its visible
// inspections, or ErrNotFound when it has none.
func (s *PortalService) visibleSite(ctx context.Context, clientID, siteID int64) (*domain.Site, []*domain.Inspection, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, nil, storeErr("get site", err)
	}
	if site == nil || site.ClientID != clientID {
		return nil, nil, fmt.Errorf("site %d: %w", siteID, domain.ErrNotFound)
	}
	list, err := s.inspections.ListBySite(ctx, site.ID, visibleFilter)
	if err != nil {
		return nil, nil, storeErr("list inspections", err)
	}
	visible := gate.Filter(list)
	if !gate.SiteVisible(visible) {
		return nil, nil, fmt.Errorf("site %d: %w", siteID, domain.ErrNotFound)
	}
	return site, visible, nil
}

func (s *PortalService) visibleInspection(ctx context.Context, clientID, inspectionID int64) (*domain.Inspection, *domain.Site, error) {
	insp, err := s.inspections.GetByID(ctx, inspectionID)
	if err != nil {
		return nil, nil, storeErr("get inspection", err)
	}
	if !gate.InspectionVisible(insp) {
		return nil, nil, fmt.Errorf("inspection %d: %w", inspectionID, domain.ErrNotFound)
	}
	site, err := s.sites.GetByID(ctx, insp.SiteID)
	if err != nil {
		return nil, nil, storeErr("get site", err)
	}
	if site == nil || site.ClientID != clientID {
		return nil, nil, fmt.Errorf("inspection %d: %w", inspectionID, domain.ErrNotFound)
	}
	return insp, site, nil
}
