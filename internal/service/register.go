package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/store"
)

// registerRow is one line of a site's inspection register.
type registerRow struct {
	Zone              string `csv:"zone"`
	InspectionID      int64  `csv:"inspection_id"`
	InspectionDate    string `csv:"inspection_date"`
	Status            string `csv:"status"`
	Released          bool   `csv:"released"`
	SectionsWithNotes int    `csv:"sections_with_notes"`
	Photos            int    `csv:"photos"`
	UpdatedAt         string `csv:"updated_at"`
}

// ExportRegister writes every inspection of the site as CSV, most recent
// first.
func (s *CatalogService) ExportRegister(ctx context.Context, siteID int64, w io.Writer) error {
	if _, err := s.GetSite(ctx, siteID); err != nil {
		return err
	}
	zones, err := s.zones.ListBySite(ctx, siteID)
	if err != nil {
		return storeErr("list zones", err)
	}
	zoneNames := make(map[int64]string, len(zones))
	for _, z := range zones {
		zoneNames[z.ID] = z.Name
	}

	inspections, err := s.inspections.ListBySite(ctx, siteID, store.InspectionFilter{})
	if err != nil {
		return storeErr("list inspections", err)
	}

	rows := make([]registerRow, 0, len(inspections))
	for _, insp := range inspections {
		sections, err := s.sections.ListByInspection(ctx, insp.ID)
		if err != nil {
			return storeErr("list sections", err)
		}
		details, err := loadSectionDetails(ctx, s.photos, sections)
		if err != nil {
			return err
		}
		row := registerRow{
			Zone:           zoneNames[insp.ZoneID],
			InspectionID:   insp.ID,
			InspectionDate: insp.InspectionDate.Format("2006-01-02"),
			Status:         string(insp.Status),
			Released:       insp.Released,
			UpdatedAt:      insp.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		for _, d := range details {
			if d.Notes != "" {
				row.SectionsWithNotes++
			}
			row.Photos += len(d.Photos)
		}
		rows = append(rows, row)
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		err = enc.EncodeHeader(registerRow{})
	} else {
		err = enc.Encode(rows)
	}
	if err != nil {
		return fmt.Errorf("failed to encode register: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write register: %w", err)
	}
	return nil
}

type zoneRow struct {
	Name string `csv:"name"`
}

// ImportResult counts what a zone import did.
type ImportResult struct {
	Created []*domain.Zone
	Skipped int
}

// ImportZones creates the zones listed in a CSV with a "name" column. Blank
// names and names already present on the site are skipped.
func (s *CatalogService) ImportZones(ctx context.Context, siteID int64, r io.Reader) (*ImportResult, error) {
	if _, err := s.GetSite(ctx, siteID); err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if errors.Is(err, io.EOF) {
		return &ImportResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read zone csv: %v: %w", err, domain.ErrInvalidInput)
	}

	var rows []zoneRow
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode zone csv: %v: %w", err, domain.ErrInvalidInput)
	}

	result := &ImportResult{}
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			result.Skipped++
			continue
		}
		z, err := s.zones.Create(ctx, siteID, name)
		if errors.Is(err, domain.ErrDuplicate) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, storeErr("create zone", err)
		}
		result.Created = append(result.Created, z)
	}
	s.logger.Info("zones imported", "site_id", siteID, "created", len(result.Created), "skipped", result.Skipped)
	return result, nil
}
