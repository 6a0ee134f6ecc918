package service

import (
	"context"
	"errors"
	"time"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/store"
)

// The repository interfaces below are the subsets of the store types the
// services consume.

type clientRepository interface {
	Create(ctx context.Context, name, email, phone, address string) (*domain.Client, error)
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	GetByEmail(ctx context.Context, email string) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Update(ctx context.Context, id int64, name, email, phone, address string) error
	SetPassword(ctx context.Context, id int64, hash string, mustChange bool, changedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

type siteRepository interface {
	Create(ctx context.Context, clientID int64, name, address, description string) (*domain.Site, error)
	GetByID(ctx context.Context, id int64) (*domain.Site, error)
	ListByClient(ctx context.Context, clientID int64) ([]*domain.Site, error)
	Update(ctx context.Context, id int64, name, address, description string) error
	SetAcknowledgment(ctx context.Context, id int64, signatureKey, comment string, signedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

type zoneRepository interface {
	Create(ctx context.Context, siteID int64, name string) (*domain.Zone, error)
	GetByID(ctx context.Context, id int64) (*domain.Zone, error)
	ListBySite(ctx context.Context, siteID int64) ([]*domain.Zone, error)
	Update(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type inspectionRepository interface {
	Create(ctx context.Context, siteID, zoneID, technicianID int64, date time.Time) (*domain.Inspection, error)
	GetByID(ctx context.Context, id int64) (*domain.Inspection, error)
	LatestForZone(ctx context.Context, siteID, zoneID int64) (*domain.Inspection, error)
	ListBySite(ctx context.Context, siteID int64, f store.InspectionFilter) ([]*domain.Inspection, error)
	ListByZone(ctx context.Context, zoneID int64, f store.InspectionFilter) ([]*domain.Inspection, error)
	SetStatus(ctx context.Context, id int64, status domain.InspectionStatus) error
	SetReleased(ctx context.Context, id int64) error
	Touch(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type sectionRepository interface {
	CreateIfAbsent(ctx context.Context, inspectionID int64, sectionType domain.SectionType) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Section, error)
	ListByInspection(ctx context.Context, inspectionID int64) ([]*domain.Section, error)
	UpdateNotes(ctx context.Context, id int64, notes string) error
}

type photoRepository interface {
	Create(ctx context.Context, sectionID int64, storageKey, mimeType string) (*domain.Photo, error)
	GetByID(ctx context.Context, id int64) (*domain.Photo, error)
	ListBySection(ctx context.Context, sectionID int64) ([]*domain.Photo, error)
	Delete(ctx context.Context, id int64) error
	KeysByInspection(ctx context.Context, inspectionID int64) ([]string, error)
	KeysByZone(ctx context.Context, zoneID int64) ([]string, error)
	KeysBySite(ctx context.Context, siteID int64) ([]string, error)
	KeysByClient(ctx context.Context, clientID int64) ([]string, error)
}

type technicianRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*domain.Technician, error)
	GetByEmail(ctx context.Context, email string) (*domain.Technician, error)
	Count(ctx context.Context) (int, error)
}

// storeErr wraps a record-store failure as a *domain.StorageError. Domain
// sentinels raised by the store (not found, duplicate) pass through as is.
func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicate) {
		return err
	}
	return domain.Storage(op, err)
}
