package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vbonduro/siteinspect/internal/db"
	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/metrics"
	"github.com/vbonduro/siteinspect/internal/report"
	"github.com/vbonduro/siteinspect/internal/store"
)

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saveErr error
	n       int
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, prefix, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	key := fmt.Sprintf("%s/photo%d.png", prefix, s.n)
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, key)
	return nil
}

func (s *stubPhotoStore) PublicURL(_ context.Context, key string) (string, error) {
	return "http://photos.test/" + key, nil
}

func (s *stubPhotoStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.saved[key]
	return ok
}

// testServices wires every service against a fresh in-memory database.
type testServices struct {
	inspections *InspectionService
	catalog     *CatalogService
	portal      *PortalService
	auth        *AuthService
	engine      *report.Engine
	photoStg    *stubPhotoStore
	metrics     *metrics.Metrics

	inspectionStore *store.InspectionStore
	sectionStore    *store.SectionStore
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	clients := store.NewClientStore(d)
	sites := store.NewSiteStore(d)
	zones := store.NewZoneStore(d)
	inspections := store.NewInspectionStore(d)
	sections := store.NewSectionStore(d)
	photos := store.NewPhotoStore(d)
	technicians := store.NewTechnicianStore(d)

	photoStg := newStubPhotoStore()
	m := metrics.New(prometheus.NewRegistry())
	logger := slog.Default()

	engine := report.NewEngine(report.Sources{
		Clients:     clients,
		Sites:       sites,
		Zones:       zones,
		Inspections: inspections,
		Sections:    sections,
		Photos:      photos,
	}, photoStg, report.NewPDFRenderer(), report.Options{Layout: report.DefaultLayout(), Branding: "test"}, m, logger)

	auth := NewAuthService(clients, technicians, logger)
	auth.cost = bcrypt.MinCost

	return &testServices{
		inspections:     NewInspectionService(inspections, zones, sections, photos, photoStg, m, logger),
		catalog:         NewCatalogService(clients, sites, zones, inspections, sections, photos, photoStg, m, logger),
		portal:          NewPortalService(sites, zones, inspections, sections, photos, photoStg, engine, logger),
		auth:            auth,
		engine:          engine,
		photoStg:        photoStg,
		metrics:         m,
		inspectionStore: inspections,
		sectionStore:    sections,
	}
}

type tree struct {
	client *domain.Client
	site   *domain.Site
	zone   *domain.Zone
}

func (ts *testServices) tree(t *testing.T) tree {
	t.Helper()
	ctx := context.Background()
	c, err := ts.catalog.CreateClient(ctx, ClientInput{Name: "Acme Foods", Email: "ops@acme.test"})
	require.NoError(t, err)
	s, err := ts.catalog.CreateSite(ctx, c.ID, SiteInput{Name: "North Plant", Address: "1 Dock Rd"})
	require.NoError(t, err)
	z, err := ts.catalog.CreateZone(ctx, s.ID, "Cold room")
	require.NoError(t, err)
	return tree{client: c, site: s, zone: z}
}

// sectionOf returns the workspace section of the given type.
func sectionOf(t *testing.T, ws *Workspace, st domain.SectionType) *domain.SectionDetail {
	t.Helper()
	for _, s := range ws.Sections {
		if s.Type == st {
			return s
		}
	}
	t.Fatalf("section %s missing", st)
	return nil
}

// released drives a zone through start, finish and release.
func (ts *testServices) released(t *testing.T, tr tree, notes map[domain.SectionType]string) *Workspace {
	t.Helper()
	ctx := context.Background()
	ws, err := ts.inspections.StartWork(ctx, tr.site.ID, tr.zone.ID, 1)
	require.NoError(t, err)
	for st, n := range notes {
		_, err := ts.catalog.UpdateNotes(ctx, sectionOf(t, ws, st).ID, n)
		require.NoError(t, err)
	}
	_, err = ts.inspections.FinishWork(ctx, ws.Inspection.ID)
	require.NoError(t, err)
	_, err = ts.inspections.Release(ctx, ws.Inspection.ID)
	require.NoError(t, err)
	return ws
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))))
	return buf.Bytes()
}

func fixedNow(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
