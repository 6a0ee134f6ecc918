package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/metrics"
	"github.com/vbonduro/siteinspect/internal/photostore"
	"github.com/vbonduro/siteinspect/internal/store"
)

type ClientInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (in *ClientInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return fmt.Errorf("client name is required: %w", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("client email %q: %w", in.Email, domain.ErrInvalidInput)
	}
	return nil
}

type SiteInput struct {
	Name        string
	Address     string
	Description string
}

func (in *SiteInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("site name is required: %w", domain.ErrInvalidInput)
	}
	return nil
}

// CatalogService covers the technician's bookkeeping: clients, sites and
// zones, plus edits to an inspection's notes and photos.
type CatalogService struct {
	clients     clientRepository
	sites       siteRepository
	zones       zoneRepository
	inspections inspectionRepository
	sections    sectionRepository
	photos      photoRepository
	photoStg    photostore.PhotoStore
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewCatalogService(
	clients clientRepository,
	sites siteRepository,
	zones zoneRepository,
	inspections inspectionRepository,
	sections sectionRepository,
	photos photoRepository,
	photoStg photostore.PhotoStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		clients:     clients,
		sites:       sites,
		zones:       zones,
		inspections: inspections,
		sections:    sections,
		photos:      photos,
		photoStg:    photoStg,
		metrics:     m,
		logger:      logger,
	}
}

func (s *CatalogService) CreateClient(ctx context.Context, in ClientInput) (*domain.Client, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c, err := s.clients.Create(ctx, in.Name, in.Email, in.Phone, in.Address)
	if err != nil {
		return nil, storeErr("create client", err)
	}
	s.logger.Info("client created", "client_id", c.ID)
	return c, nil
}

func (s *CatalogService) ListClients(ctx context.Context) ([]*domain.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, storeErr("list clients", err)
	}
	return clients, nil
}

func (s *CatalogService) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get client", err)
	}
	if c == nil {
		return nil, fmt.Errorf("client %d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *CatalogService) UpdateClient(ctx context.Context, id int64, in ClientInput) (*domain.Client, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, id, in.Name, in.Email, in.Phone, in.Address); err != nil {
		return nil, storeErr("update client", err)
	}
	return s.GetClient(ctx, id)
}

// DeleteClient removes the client with every site, zone and inspection
// under it, then the photo and signature blobs they referenced.
func (s *CatalogService) DeleteClient(ctx context.Context, id int64) error {
	keys, err := s.photos.KeysByClient(ctx, id)
	if err != nil {
		return storeErr("list photo keys", err)
	}
	sites, err := s.sites.ListByClient(ctx, id)
	if err != nil {
		return storeErr("list sites", err)
	}
	for _, site := range sites {
		keys = append(keys, site.SignatureKey)
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return storeErr("delete client", err)
	}
	deleteBlobs(ctx, s.photoStg, s.logger, keys)
	s.logger.Info("client deleted", "client_id", id, "sites", len(sites))
	return nil
}

func (s *CatalogService) CreateSite(ctx context.Context, clientID int64, in SiteInput) (*domain.Site, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	site, err := s.sites.Create(ctx, clientID, in.Name, in.Address, in.Description)
	if err != nil {
		return nil, storeErr("create site", err)
	}
	s.logger.Info("site created", "site_id", site.ID, "client_id", clientID)
	return site, nil
}

func (s *CatalogService) ListSites(ctx context.Context, clientID int64) ([]*domain.Site, error) {
	sites, err := s.sites.ListByClient(ctx, clientID)
	if err != nil {
		return nil, storeErr("list sites", err)
	}
	return sites, nil
}

func (s *CatalogService) GetSite(ctx context.Context, id int64) (*domain.Site, error) {
	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get site", err)
	}
	if site == nil {
		return nil, fmt.Errorf("site %d: %w", id, domain.ErrNotFound)
	}
	return site, nil
}

func (s *CatalogService) UpdateSite(ctx context.Context, id int64, in SiteInput) (*domain.Site, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.sites.Update(ctx, id, in.Name, in.Address, in.Description); err != nil {
		return nil, storeErr("update site", err)
	}
	return s.GetSite(ctx, id)
}

func (s *CatalogService) DeleteSite(ctx context.Context, id int64) error {
	site, err := s.GetSite(ctx, id)
	if err != nil {
		return err
	}
	keys, err := s.photos.KeysBySite(ctx, id)
	if err != nil {
		return storeErr("list photo keys", err)
	}
	keys = append(keys, site.SignatureKey)
	if err := s.sites.Delete(ctx, id); err != nil {
		return storeErr("delete site", err)
	}
	deleteBlobs(ctx, s.photoStg, s.logger, keys)
	s.logger.Info("site deleted", "site_id", id)
	return nil
}

func (s *CatalogService) CreateZone(ctx context.Context, siteID int64, name string) (*domain.Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("zone name is required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	z, err := s.zones.Create(ctx, siteID, name)
	if err != nil {
		return nil, storeErr("create zone", err)
	}
	s.logger.Info("zone created", "zone_id", z.ID, "site_id", siteID)
	return z, nil
}

func (s *CatalogService) ListZones(ctx context.Context, siteID int64) ([]*domain.Zone, error) {
	zones, err := s.zones.ListBySite(ctx, siteID)
	if err != nil {
		return nil, storeErr("list zones", err)
	}
	return zones, nil
}

func (s *CatalogService) GetZone(ctx context.Context, id int64) (*domain.Zone, error) {
	z, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get zone", err)
	}
	if z == nil {
		return nil, fmt.Errorf("zone %d: %w", id, domain.ErrNotFound)
	}
	return z, nil
}

func (s *CatalogService) RenameZone(ctx context.Context, id int64, name string) (*domain.Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("zone name is required: %w", domain.ErrInvalidInput)
	}
	if err := s.zones.Update(ctx, id, name); err != nil {
		return nil, storeErr("rename zone", err)
	}
	return s.GetZone(ctx, id)
}

func (s *CatalogService) DeleteZone(ctx context.Context, id int64) error {
	keys, err := s.photos.KeysByZone(ctx, id)
	if err != nil {
		return storeErr("list photo keys", err)
	}
	if err := s.zones.Delete(ctx, id); err != nil {
		return storeErr("delete zone", err)
	}
	deleteBlobs(ctx, s.photoStg, s.logger, keys)
	s.logger.Info("zone deleted", "zone_id", id, "photos", len(keys))
	return nil
}

// ListInspections returns every inspection of the site regardless of state,
// most recent first.
func (s *CatalogService) ListInspections(ctx context.Context, siteID int64) ([]*domain.Inspection, error) {
	list, err := s.inspections.ListBySite(ctx, siteID, store.InspectionFilter{})
	if err != nil {
		return nil, storeErr("list inspections", err)
	}
	return list, nil
}

// UpdateNotes replaces a section's notes.
func (s *CatalogService) UpdateNotes(ctx context.Context, sectionID int64, notes string) (*domain.Section, error) {
	sec, insp, err := s.sectionWithInspection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if err := s.sections.UpdateNotes(ctx, sec.ID, notes); err != nil {
		return nil, storeErr("update notes", err)
	}
	s.recordEdit(ctx, insp, "notes_updated", "section_id", sec.ID)
	sec.Notes = notes
	return sec, nil
}

// AddPhoto stores the image under <inspection>/<section_type>/ and records it.
func (s *CatalogService) AddPhoto(ctx context.Context, sectionID int64, imageData []byte, mimeType string) (*domain.Photo, error) {
	sec, insp, err := s.sectionWithInspection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%d/%s", insp.ID, sec.Type)
	storageKey, err := s.photoStg.Save(ctx, prefix, mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "section_id", sec.ID, "storage_key", storageKey)

	photo, err := s.photos.Create(ctx, sec.ID, storageKey, mimeType)
	if err != nil {
		if derr := s.photoStg.Delete(ctx, storageKey); derr != nil {
			s.logger.Error("failed to roll back photo blob", "storage_key", storageKey, "error", derr)
		}
		return nil, storeErr("create photo", err)
	}
	s.recordEdit(ctx, insp, "photo_added", "section_id", sec.ID, "photo_id", photo.ID)
	return photo, nil
}

func (s *CatalogService) DeletePhoto(ctx context.Context, photoID int64) error {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return storeErr("get photo", err)
	}
	if photo == nil {
		return fmt.Errorf("photo %d: %w", photoID, domain.ErrNotFound)
	}
	_, insp, err := s.sectionWithInspection(ctx, photo.SectionID)
	if err != nil {
		return err
	}
	if err := s.photos.Delete(ctx, photo.ID); err != nil {
		return storeErr("delete photo", err)
	}
	deleteBlobs(ctx, s.photoStg, s.logger, []string{photo.StorageKey})
	s.recordEdit(ctx, insp, "photo_deleted", "section_id", photo.SectionID, "photo_id", photo.ID)
	return nil
}

func (s *CatalogService) sectionWithInspection(ctx context.Context, sectionID int64) (*domain.Section, *domain.Inspection, error) {
	sec, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, nil, storeErr("get section", err)
	}
	if sec == nil {
		return nil, nil, fmt.Errorf("section %d: %w", sectionID, domain.ErrNotFound)
	}
	insp, err := s.inspections.GetByID(ctx, sec.InspectionID)
	if err != nil {
		return nil, nil, storeErr("get inspection", err)
	}
	if insp == nil {
		return nil, nil, fmt.Errorf("inspection %d: %w", sec.InspectionID, domain.ErrNotFound)
	}
	return sec, insp, nil
}

// recordEdit bumps the inspection's updated_at. Edits to a released
// inspection go live on the portal immediately; they are logged and counted
// but do not revoke the release.
func (s *CatalogService) recordEdit(ctx context.Context, insp *domain.Inspection, event string, attrs ...any) {
	if err := s.inspections.Touch(ctx, insp.ID); err != nil {
		s.logger.Warn("failed to touch inspection", "inspection_id", insp.ID, "error", err)
	}
	postRelease := insp.Released
	if postRelease {
		s.metrics.PostReleaseEdit()
	}
	args := append([]any{"inspection_id", insp.ID, "post_release", postRelease}, attrs...)
	s.logger.Info(event, args...)
}
