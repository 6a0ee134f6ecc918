package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/siteinspect/internal/db"
	"github.com/vbonduro/siteinspect/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// fixture creates a client, site and zone and returns their ids.
type fixture struct {
	clientID int64
	siteID   int64
	zoneID   int64
}

func newFixture(t *testing.T, d *sql.DB) fixture {
	ctx := context.Background()
	client, err := NewClientStore(d).Create(ctx, "Acme", "ops@acme.test", "", "")
	require.NoError(t, err)
	site, err := NewSiteStore(d).Create(ctx, client.ID, "Warehouse", "1 Dock Rd", "")
	require.NoError(t, err)
	zone, err := NewZoneStore(d).Create(ctx, site.ID, "Cold room")
	require.NoError(t, err)
	return fixture{clientID: client.ID, siteID: site.ID, zoneID: zone.ID}
}

func TestClientStoreCreate(t *testing.T) {
	d := openTestDB(t)
	store := NewClientStore(d)
	ctx := context.Background()

	client, err := store.Create(ctx, "Acme", "ops@acme.test", "555-0100", "1 Main St")
	require.NoError(t, err)
	assert.NotZero(t, client.ID)
	assert.Equal(t, "Acme", client.Name)
	assert.Empty(t, client.PasswordHash)
	assert.False(t, client.MustChangePassword)
	assert.Nil(t, client.PasswordChangedAt)
}

func TestClientStoreGetByEmailIgnoresCase(t *testing.T) {
	d := openTestDB(t)
	store := NewClientStore(d)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "Ops@Acme.test", "", "")
	require.NoError(t, err)

	got, err := store.GetByEmail(ctx, "ops@acme.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
}

func TestClientStoreGetByIDNotFound(t *testing.T) {
	d := openTestDB(t)
	store := NewClientStore(d)

	got, err := store.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClientStoreSetPassword(t *testing.T) {
	d := openTestDB(t)
	store := NewClientStore(d)
	ctx := context.Background()

	client, err := store.Create(ctx, "Acme", "ops@acme.test", "", "")
	require.NoError(t, err)

	changed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetPassword(ctx, client.ID, "hash", true, changed))

	got, err := store.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.MustChangePassword)
	require.NotNil(t, got.PasswordChangedAt)
	assert.True(t, changed.Equal(*got.PasswordChangedAt))
}

func TestClientStoreUpdateMissing(t *testing.T) {
	d := openTestDB(t)
	err := NewClientStore(d).Update(context.Background(), 42, "x", "x@test", "", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientStoreDeleteCascades(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	require.NoError(t, NewClientStore(d).Delete(ctx, fx.clientID))

	site, err := NewSiteStore(d).GetByID(ctx, fx.siteID)
	require.NoError(t, err)
	assert.Nil(t, site)
	zone, err := NewZoneStore(d).GetByID(ctx, fx.zoneID)
	require.NoError(t, err)
	assert.Nil(t, zone)
}

func TestSiteStoreListByClient(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)
	sites := NewSiteStore(d)

	second, err := sites.Create(ctx, fx.clientID, "Depot", "", "")
	require.NoError(t, err)

	list, err := sites.ListByClient(ctx, fx.clientID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, fx.siteID, list[1].ID)
}

func TestSiteStoreSetAcknowledgment(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)
	sites := NewSiteStore(d)

	before, err := sites.GetByID(ctx, fx.siteID)
	require.NoError(t, err)
	assert.False(t, before.HasAcknowledgment())

	signed := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, sites.SetAcknowledgment(ctx, fx.siteID, "sites/1/signature", "All good", signed))

	after, err := sites.GetByID(ctx, fx.siteID)
	require.NoError(t, err)
	assert.True(t, after.HasAcknowledgment())
	assert.Equal(t, "All good", after.ClientComment)
	require.NotNil(t, after.SignedAt)
	assert.True(t, signed.Equal(*after.SignedAt))
}

func TestZoneStoreDuplicateNameRejected(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	_, err := NewZoneStore(d).Create(ctx, fx.siteID, "Cold room")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestZoneStoreListBySite(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)
	zones := NewZoneStore(d)

	_, err := zones.Create(ctx, fx.siteID, "Attic")
	require.NoError(t, err)

	list, err := zones.ListBySite(ctx, fx.siteID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Attic", list[0].Name)
	assert.Equal(t, "Cold room", list[1].Name)
}

func TestInspectionStoreCreateDefaults(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	date := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	insp, err := NewInspectionStore(d).Create(ctx, fx.siteID, fx.zoneID, 7, date)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, insp.Status)
	assert.False(t, insp.Released)
	assert.Equal(t, int64(7), insp.TechnicianID)
	assert.True(t, date.Equal(insp.InspectionDate))
}

func TestInspectionStoreLatestForZone(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)
	inspections := NewInspectionStore(d)

	none, err := inspections.LatestForZone(ctx, fx.siteID, fx.zoneID)
	require.NoError(t, err)
	assert.Nil(t, none)

	date := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	_, err = inspections.Create(ctx, fx.siteID, fx.zoneID, 0, date)
	require.NoError(t, err)
	second, err := inspections.Create(ctx, fx.siteID, fx.zoneID, 0, date)
	require.NoError(t, err)

	latest, err := inspections.LatestForZone(ctx, fx.siteID, fx.zoneID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestInspectionStoreListFilters(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)
	inspections := NewInspectionStore(d)

	older, err := inspections.Create(ctx, fx.siteID, fx.zoneID, 0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	newer, err := inspections.Create(ctx, fx.siteID, fx.zoneID, 0, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = inspections.Create(ctx, fx.siteID, fx.zoneID, 0, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, inspections.SetStatus(ctx, older.ID, domain.StatusCompleted))
	require.NoError(t, inspections.SetStatus(ctx, newer.ID, domain.StatusCompleted))
	require.NoError(t, inspections.SetReleased(ctx, older.ID))

	all, err := inspections.ListBySite(ctx, fx.siteID, InspectionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed, err := inspections.ListByZone(ctx, fx.zoneID, InspectionFilter{Status: domain.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, newer.ID, completed[0].ID)
	assert.Equal(t, older.ID, completed[1].ID)

	visible, err := inspections.ListBySite(ctx, fx.siteID, InspectionFilter{Status: domain.StatusCompleted, ReleasedOnly: true})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, older.ID, visible[0].ID)
	assert.True(t, visible[0].Released)
}

func TestInspectionStoreSetStatusMissing(t *testing.T) {
	d := openTestDB(t)
	err := NewInspectionStore(d).SetStatus(context.Background(), 404, domain.StatusCompleted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInspectionStoreRejectsUnknownStatus(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)
	inspections := NewInspectionStore(d)

	insp, err := inspections.Create(ctx, fx.siteID, fx.zoneID, 0, time.Now())
	require.NoError(t, err)
	assert.Error(t, inspections.SetStatus(ctx, insp.ID, domain.InspectionStatus("archived")))
}

func TestSectionStoreCreateIfAbsent(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	insp, err := NewInspectionStore(d).Create(ctx, fx.siteID, fx.zoneID, 0, time.Now())
	require.NoError(t, err)

	sections := NewSectionStore(d)
	created, err := sections.CreateIfAbsent(ctx, insp.ID, domain.SectionDrainPan)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = sections.CreateIfAbsent(ctx, insp.ID, domain.SectionDrainPan)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := sections.ListByInspection(ctx, insp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.SectionDrainPan, list[0].Type)
	assert.Empty(t, list[0].Notes)
}

func TestSectionStoreListInDisplayOrder(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	insp, err := NewInspectionStore(d).Create(ctx, fx.siteID, fx.zoneID, 0, time.Now())
	require.NoError(t, err)

	sections := NewSectionStore(d)
	for _, st := range []domain.SectionType{domain.SectionObservations, domain.SectionLayout, domain.SectionDrainage} {
		_, err := sections.CreateIfAbsent(ctx, insp.ID, st)
		require.NoError(t, err)
	}

	list, err := sections.ListByInspection(ctx, insp.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.SectionLayout, list[0].Type)
	assert.Equal(t, domain.SectionDrainage, list[1].Type)
	assert.Equal(t, domain.SectionObservations, list[2].Type)
}

func TestSectionStoreUpdateNotes(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	insp, err := NewInspectionStore(d).Create(ctx, fx.siteID, fx.zoneID, 0, time.Now())
	require.NoError(t, err)
	sections := NewSectionStore(d)
	_, err = sections.CreateIfAbsent(ctx, insp.ID, domain.SectionLayout)
	require.NoError(t, err)
	list, err := sections.ListByInspection(ctx, insp.ID)
	require.NoError(t, err)

	require.NoError(t, sections.UpdateNotes(ctx, list[0].ID, "Filters clogged"))

	got, err := sections.GetByID(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Filters clogged", got.Notes)
}

func TestPhotoStoreListAndKeys(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	insp, err := NewInspectionStore(d).Create(ctx, fx.siteID, fx.zoneID, 0, time.Now())
	require.NoError(t, err)
	sections := NewSectionStore(d)
	_, err = sections.CreateIfAbsent(ctx, insp.ID, domain.SectionLayout)
	require.NoError(t, err)
	list, err := sections.ListByInspection(ctx, insp.ID)
	require.NoError(t, err)
	sectionID := list[0].ID

	photos := NewPhotoStore(d)
	first, err := photos.Create(ctx, sectionID, "a.jpg", "image/jpeg")
	require.NoError(t, err)
	second, err := photos.Create(ctx, sectionID, "b.png", "image/png")
	require.NoError(t, err)

	got, err := photos.ListBySection(ctx, sectionID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)

	for name, fn := range map[string]func() ([]string, error){
		"inspection": func() ([]string, error) { return photos.KeysByInspection(ctx, insp.ID) },
		"zone":       func() ([]string, error) { return photos.KeysByZone(ctx, fx.zoneID) },
		"site":       func() ([]string, error) { return photos.KeysBySite(ctx, fx.siteID) },
		"client":     func() ([]string, error) { return photos.KeysByClient(ctx, fx.clientID) },
	} {
		keys, err := fn()
		require.NoError(t, err, name)
		assert.ElementsMatch(t, []string{"a.jpg", "b.png"}, keys, name)
	}
}

func TestPhotoStoreDeleteInspectionCascades(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	fx := newFixture(t, d)

	inspections := NewInspectionStore(d)
	insp, err := inspections.Create(ctx, fx.siteID, fx.zoneID, 0, time.Now())
	require.NoError(t, err)
	sections := NewSectionStore(d)
	_, err = sections.CreateIfAbsent(ctx, insp.ID, domain.SectionLayout)
	require.NoError(t, err)
	list, err := sections.ListByInspection(ctx, insp.ID)
	require.NoError(t, err)
	photo, err := NewPhotoStore(d).Create(ctx, list[0].ID, "a.jpg", "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, inspections.Delete(ctx, insp.ID))

	gone, err := NewPhotoStore(d).GetByID(ctx, photo.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.ErrorIs(t, NewPhotoStore(d).Delete(ctx, photo.ID), domain.ErrNotFound)
}

func TestTechnicianStore(t *testing.T) {
	d := openTestDB(t)
	store := NewTechnicianStore(d)
	ctx := context.Background()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	tech, err := store.Create(ctx, "tech@field.test", "hash")
	require.NoError(t, err)

	got, err := store.GetByEmail(ctx, "TECH@field.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tech.ID, got.ID)

	_, err = store.Create(ctx, "tech@field.test", "other")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
