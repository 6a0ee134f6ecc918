package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/metrics"
	"github.com/vbonduro/siteinspect/internal/photostore"
)

// Workspace is what a technician edits: the inspection and its sections,
// each with photos in upload order.
type Workspace struct {
	Inspection *domain.Inspection
	Zone       *domain.Zone
	Sections   []*domain.SectionDetail
}

// InspectionService drives the inspection lifecycle:
//
//	(none) --StartWork--> in_progress --FinishWork--> completed --Release--> completed+released
//	completed --StartWork--> in_progress (release flag kept)
//
// Every call returns the entity as it stands after the change.
type InspectionService struct {
	inspections inspectionRepository
	zones       zoneRepository
	sections    sectionRepository
	photos      photoRepository
	reconciler  *Reconciler
	photoStg    photostore.PhotoStore
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

func NewInspectionService(
	inspections inspectionRepository,
	zones zoneRepository,
	sections sectionRepository,
	photos photoRepository,
	photoStg photostore.PhotoStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *InspectionService {
	return &InspectionService{
		inspections: inspections,
		zones:       zones,
		sections:    sections,
		photos:      photos,
		reconciler:  NewReconciler(sections, logger),
		photoStg:    photoStg,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// StartWork opens the zone for editing. With no prior inspection a new one
// is created; a completed one is reopened in place; an in-progress one is
// returned as is. Sections are reconciled in all three cases.
func (s *InspectionService) StartWork(ctx context.Context, siteID, zoneID, technicianID int64) (*Workspace, error) {
	zone, err := s.zones.GetByID(ctx, zoneID)
	if err != nil {
		return nil, storeErr("get zone", err)
	}
	if zone == nil || zone.SiteID != siteID {
		return nil, fmt.Errorf("zone %d on site %d: %w", zoneID, siteID, domain.ErrNotFound)
	}

	latest, err := s.inspections.LatestForZone(ctx, siteID, zoneID)
	if err != nil {
		return nil, storeErr("get latest inspection", err)
	}

	var transition string
	switch {
	case latest == nil:
		latest, err = s.inspections.Create(ctx, siteID, zoneID, technicianID, s.now())
		if err != nil {
			return nil, storeErr("create inspection", err)
		}
		transition = metrics.TransitionCreate
	case latest.Status == domain.StatusCompleted:
		if err := s.inspections.SetStatus(ctx, latest.ID, domain.StatusInProgress); err != nil {
			return nil, storeErr("reopen inspection", err)
		}
		if latest, err = s.get(ctx, latest.ID); err != nil {
			return nil, err
		}
		transition = metrics.TransitionReopen
	default:
		transition = metrics.TransitionResume
	}

	sections, err := s.reconciler.EnsureSections(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	details, err := loadSectionDetails(ctx, s.photos, sections)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(transition)
	s.logger.Info("inspection started",
		"inspection_id", latest.ID, "site_id", siteID, "zone_id", zoneID,
		"transition", transition, "released", latest.Released)

	return &Workspace{Inspection: latest, Zone: zone, Sections: details}, nil
}

// FinishWork moves an in-progress inspection to completed.
func (s *InspectionService) FinishWork(ctx context.Context, inspectionID int64) (*domain.Inspection, error) {
	insp, err := s.get(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status != domain.StatusInProgress {
		return nil, domain.TransitionError("finish", insp.Status)
	}

	if err := s.inspections.SetStatus(ctx, insp.ID, domain.StatusCompleted); err != nil {
		return nil, storeErr("finish inspection", err)
	}
	insp, err = s.get(ctx, insp.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(metrics.TransitionFinish)
	s.logger.Info("inspection finished",
		"inspection_id", insp.ID, "site_id", insp.SiteID, "zone_id", insp.ZoneID)
	return insp, nil
}

// Release makes a completed inspection visible to the customer. Releasing
// twice is a no-op.
func (s *InspectionService) Release(ctx context.Context, inspectionID int64) (*domain.Inspection, error) {
	insp, err := s.get(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status != domain.StatusCompleted {
		return nil, domain.TransitionError("release", insp.Status)
	}
	if insp.Released {
		return insp, nil
	}

	if err := s.inspections.SetReleased(ctx, insp.ID); err != nil {
		return nil, storeErr("release inspection", err)
	}
	insp, err = s.get(ctx, insp.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(metrics.TransitionRelease)
	s.logger.Info("inspection released",
		"inspection_id", insp.ID, "site_id", insp.SiteID, "zone_id", insp.ZoneID)
	return insp, nil
}

// DeleteInspection removes the inspection in any state together with its
// sections, photo records and photo blobs. Blob removal failures are logged
// and do not fail the call.
func (s *InspectionService) DeleteInspection(ctx context.Context, inspectionID int64) error {
	insp, err := s.get(ctx, inspectionID)
	if err != nil {
		return err
	}

	keys, err := s.photos.KeysByInspection(ctx, insp.ID)
	if err != nil {
		return storeErr("list photo keys", err)
	}
	if err := s.inspections.Delete(ctx, insp.ID); err != nil {
		return storeErr("delete inspection", err)
	}
	deleteBlobs(ctx, s.photoStg, s.logger, keys)

	s.metrics.Transition(metrics.TransitionDelete)
	s.logger.Info("inspection deleted",
		"inspection_id", insp.ID, "site_id", insp.SiteID, "zone_id", insp.ZoneID, "photos", len(keys))
	return nil
}

// Workspace loads an inspection with its sections and photos without
// changing its state.
func (s *InspectionService) Workspace(ctx context.Context, inspectionID int64) (*Workspace, error) {
	insp, err := s.get(ctx, inspectionID)
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
	return &Workspace{Inspection: insp, Zone: zone, Sections: details}, nil
}

func (s *InspectionService) get(ctx context.Context, id int64) (*domain.Inspection, error) {
	insp, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get inspection", err)
	}
	if insp == nil {
		return nil, fmt.Errorf("inspection %d: %w", id, domain.ErrNotFound)
	}
	return insp, nil
}

func loadSectionDetails(ctx context.Context, photos photoRepository, sections []*domain.Section) ([]*domain.SectionDetail, error) {
	details := make([]*domain.SectionDetail, 0, len(sections))
	for _, sec := range sections {
		ps, err := photos.ListBySection(ctx, sec.ID)
		if err != nil {
			return nil, storeErr("list photos", err)
		}
		details = append(details, &domain.SectionDetail{Section: sec, Photos: ps})
	}
	return details, nil
}

// deleteBlobs removes photo binaries after their records are gone. Missing
// blobs are ignored; other failures are logged.
func deleteBlobs(ctx context.Context, stg photostore.PhotoStore, logger *slog.Logger, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := stg.Delete(ctx, key); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			logger.Warn("failed to delete photo blob", "storage_key", key, "error", err)
		}
	}
}
