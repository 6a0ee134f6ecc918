package report

import (
	"context"
	"fmt"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/gate"
	"github.com/vbonduro/siteinspect/internal/store"
)

type clientReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

type siteReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Site, error)
}

type zoneReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Zone, error)
}

type inspectionReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Inspection, error)
	ListBySite(ctx context.Context, siteID int64, f store.InspectionFilter) ([]*domain.Inspection, error)
	ListByZone(ctx context.Context, zoneID int64, f store.InspectionFilter) ([]*domain.Inspection, error)
}

type sectionReader interface {
	ListByInspection(ctx context.Context, inspectionID int64) ([]*domain.Section, error)
}

type photoReader interface {
	ListBySection(ctx context.Context, sectionID int64) ([]*domain.Photo, error)
}

// Sources bundles the record-store readers the engine needs.
type Sources struct {
	Clients     clientReader
	Sites       siteReader
	Zones       zoneReader
	Inspections inspectionReader
	Sections    sectionReader
	Photos      photoReader
}

// Plan is the resolved content of a report, before any asset is fetched.
type Plan struct {
	Kind        Kind
	Client      *domain.Client
	Site        *domain.Site
	Zone        *domain.Zone // zone scope only
	Inspections []*PlannedInspection
	SignOff     *SignOff
}

// PlannedInspection holds the non-empty sections of one inspection in
// display order.
type PlannedInspection struct {
	Inspection *domain.Inspection
	Zone       *domain.Zone
	Sections   []*domain.SectionDetail
}

type SignOff struct {
	Comment      string
	SignatureKey string
	SignedAt     *time.Time
}

var releasedFilter = store.InspectionFilter{Status: domain.StatusCompleted, ReleasedOnly: true}

func resolve(ctx context.Context, src Sources, scope Scope) (*Plan, error) {
	switch scope.Kind {
	case KindInspection:
		return resolveInspection(ctx, src, scope)
	case KindZone:
		return resolveZone(ctx, src, scope)
	case KindSite:
		return resolveSite(ctx, src, scope)
	}
	return nil, fmt.Errorf("unknown report kind %d: %w", scope.Kind, domain.ErrInvalidInput)
}

func resolveInspection(ctx context.Context, src Sources, scope Scope) (*Plan, error) {
	insp, err := src.Inspections.GetByID(ctx, scope.ID)
	if err != nil {
		return nil, domain.Storage("get inspection", err)
	}
	if insp == nil {
		return nil, fmt.Errorf("inspection %d: %w", scope.ID, domain.ErrNotFound)
	}
	switch scope.Audience {
	case AudienceCustomer:
		if !gate.InspectionVisible(insp) {
			return nil, fmt.Errorf("inspection %d: %w", scope.ID, domain.ErrNotFound)
		}
	default:
		if insp.Status != domain.StatusCompleted {
			return nil, domain.TransitionError("report on", insp.Status)
		}
	}

	site, client, err := siteAndClient(ctx, src, insp.SiteID, scope)
	if err != nil {
		return nil, err
	}
	zone, err := getZone(ctx, src, insp.ZoneID)
	if err != nil {
		return nil, err
	}
	planned, err := planInspection(ctx, src, insp, zone)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Kind: KindInspection, Client: client, Site: site, Zone: zone, Inspections: []*PlannedInspection{planned}}
	if site.HasAcknowledgment() {
		plan.SignOff = &SignOff{Comment: site.ClientComment, SignatureKey: site.SignatureKey, SignedAt: site.SignedAt}
	}
	return plan, nil
}

func resolveZone(ctx context.Context, src Sources, scope Scope) (*Plan, error) {
	zone, err := getZone(ctx, src, scope.ID)
	if err != nil {
		return nil, err
	}
	site, client, err := siteAndClient(ctx, src, zone.SiteID, scope)
	if err != nil {
		return nil, err
	}
	list, err := src.Inspections.ListByZone(ctx, zone.ID, releasedFilter)
	if err != nil {
		return nil, domain.Storage("list inspections", err)
	}

	plan := &Plan{Kind: KindZone, Client: client, Site: site, Zone: zone}
	zones := map[int64]*domain.Zone{zone.ID: zone}
	if err := planInspections(ctx, src, plan, list, zones); err != nil {
		return nil, err
	}
	return plan, nil
}

func resolveSite(ctx context.Context, src Sources, scope Scope) (*Plan, error) {
	site, client, err := siteAndClient(ctx, src, scope.ID, scope)
	if err != nil {
		return nil, err
	}
	list, err := src.Inspections.ListBySite(ctx, site.ID, releasedFilter)
	if err != nil {
		return nil, domain.Storage("list inspections", err)
	}

	plan := &Plan{Kind: KindSite, Client: client, Site: site}
	if err := planInspections(ctx, src, plan, list, map[int64]*domain.Zone{}); err != nil {
		return nil, err
	}
	return plan, nil
}

func planInspections(ctx context.Context, src Sources, plan *Plan, list []*domain.Inspection, zones map[int64]*domain.Zone) error {
	if len(list) == 0 {
		return fmt.Errorf("no released inspections for %s %d: %w", plan.Kind, scopeID(plan), domain.ErrNothingToReport)
	}
	for _, insp := range list {
		zone, ok := zones[insp.ZoneID]
		if !ok {
			var err error
			if zone, err = getZone(ctx, src, insp.ZoneID); err != nil {
				return err
			}
			zones[insp.ZoneID] = zone
		}
		planned, err := planInspection(ctx, src, insp, zone)
		if err != nil {
			return err
		}
		plan.Inspections = append(plan.Inspections, planned)
	}
	return nil
}

func scopeID(p *Plan) int64 {
	if p.Kind == KindZone && p.Zone != nil {
		return p.Zone.ID
	}
	return p.Site.ID
}

// planInspection loads sections in display order with their photos and
// drops those with neither notes nor photos.
func planInspection(ctx context.Context, src Sources, insp *domain.Inspection, zone *domain.Zone) (*PlannedInspection, error) {
	sections, err := src.Sections.ListByInspection(ctx, insp.ID)
	if err != nil {
		return nil, domain.Storage("list sections", err)
	}
	domain.SortSections(sections)

	planned := &PlannedInspection{Inspection: insp, Zone: zone}
	for _, sec := range sections {
		photos, err := src.Photos.ListBySection(ctx, sec.ID)
		if err != nil {
			return nil, domain.Storage("list photos", err)
		}
		if sec.IsEmpty(len(photos)) {
			continue
		}
		planned.Sections = append(planned.Sections, &domain.SectionDetail{Section: sec, Photos: photos})
	}
	return planned, nil
}

func siteAndClient(ctx context.Context, src Sources, siteID int64, scope Scope) (*domain.Site, *domain.Client, error) {
	site, err := src.Sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, nil, domain.Storage("get site", err)
	}
	if site == nil {
		return nil, nil, fmt.Errorf("site %d: %w", siteID, domain.ErrNotFound)
	}
	if scope.Audience == AudienceCustomer && site.ClientID != scope.ClientID {
		return nil, nil, fmt.Errorf("site %d: %w", siteID, domain.ErrNotFound)
	}
	client, err := src.Clients.GetByID(ctx, site.ClientID)
	if err != nil {
		return nil, nil, domain.Storage("get client", err)
	}
	if client == nil {
		return nil, nil, fmt.Errorf("client %d: %w", site.ClientID, domain.ErrNotFound)
	}
	return site, client, nil
}

func getZone(ctx context.Context, src Sources, id int64) (*domain.Zone, error) {
	zone, err := src.Zones.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Storage("get zone", err)
	}
	if zone == nil {
		return nil, fmt.Errorf("zone %d: %w", id, domain.ErrNotFound)
	}
	return zone, nil
}
