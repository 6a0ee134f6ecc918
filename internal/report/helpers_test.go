package report

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/siteinspect/internal/db"
	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/photostore"
	"github.com/vbonduro/siteinspect/internal/store"
)

// runeMeasurer treats every rune as one millimetre wide.
type runeMeasurer struct{}

func (runeMeasurer) Width(s string) float64 { return float64(len([]rune(s))) }

// memPhotoStore is an in-memory photostore.PhotoStore. Keys listed in
// failGet return an error from Get.
type memPhotoStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	failGet map[string]bool
	n       int
}

func newMemPhotoStore() *memPhotoStore {
	return &memPhotoStore{blobs: map[string][]byte{}, failGet: map[string]bool{}}
}

func (s *memPhotoStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	key := prefix + "/" + string(rune('a'+s.n)) + photostore.MimeTypeToExt(mimeType)
	s.blobs[key] = data
	return key, nil
}

func (s *memPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet[key] {
		return nil, "", errors.New("backend unreachable")
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), photostore.ExtToMimeType(key), nil
}

func (s *memPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memPhotoStore) PublicURL(_ context.Context, key string) (string, error) {
	return "/photos/" + key, nil
}

// recordingRenderer keeps the last RenderInput instead of drawing it.
type recordingRenderer struct {
	last RenderInput
	err  error
}

func (r *recordingRenderer) Measurer() Measurer { return runeMeasurer{} }

func (r *recordingRenderer) Render(in RenderInput) ([]byte, error) {
	r.last = in
	if r.err != nil {
		return nil, r.err
	}
	return []byte("rendered"), nil
}

func (r *recordingRenderer) ContentType() string { return "application/octet-stream" }

func (r *recordingRenderer) Extension() string { return "pdf" }

// blocks flattens every placed block of the last render.
func (r *recordingRenderer) blocks() []Placed {
	var out []Placed
	for _, p := range r.last.Pages {
		out = append(out, p.Blocks...)
	}
	return out
}

func (r *recordingRenderer) texts(kind BlockKind) []string {
	var out []string
	for _, b := range r.blocks() {
		if b.Kind == kind {
			out = append(out, b.Text)
		}
	}
	return out
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: 120, B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// env is a populated database with one client, site and zone.
type env struct {
	db       *sql.DB
	src      Sources
	photoStg *memPhotoStore

	clients     *store.ClientStore
	sites       *store.SiteStore
	zones       *store.ZoneStore
	inspections *store.InspectionStore
	sections    *store.SectionStore
	photos      *store.PhotoStore

	client *domain.Client
	site   *domain.Site
	zone   *domain.Zone
}

func newEnv(t *testing.T) *env {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	e := &env{
		db:          d,
		photoStg:    newMemPhotoStore(),
		clients:     store.NewClientStore(d),
		sites:       store.NewSiteStore(d),
		zones:       store.NewZoneStore(d),
		inspections: store.NewInspectionStore(d),
		sections:    store.NewSectionStore(d),
		photos:      store.NewPhotoStore(d),
	}
	e.src = Sources{
		Clients:     e.clients,
		Sites:       e.sites,
		Zones:       e.zones,
		Inspections: e.inspections,
		Sections:    e.sections,
		Photos:      e.photos,
	}

	ctx := context.Background()
	e.client, err = e.clients.Create(ctx, "Acme Foods", "ops@acme.test", "", "")
	require.NoError(t, err)
	e.site, err = e.sites.Create(ctx, e.client.ID, "North Plant", "1 Dock Rd", "")
	require.NoError(t, err)
	e.zone, err = e.zones.Create(ctx, e.site.ID, "Cold room")
	require.NoError(t, err)
	return e
}

// inspection creates an inspection on zone with all section types. notes
// maps section types to their text.
func (e *env) inspection(t *testing.T, zone *domain.Zone, date time.Time, notes map[domain.SectionType]string) *domain.Inspection {
	t.Helper()
	ctx := context.Background()
	insp, err := e.inspections.Create(ctx, zone.SiteID, zone.ID, 0, date)
	require.NoError(t, err)
	for _, st := range domain.SectionTypes {
		_, err := e.sections.CreateIfAbsent(ctx, insp.ID, st)
		require.NoError(t, err)
	}
	secs, err := e.sections.ListByInspection(ctx, insp.ID)
	require.NoError(t, err)
	for _, sec := range secs {
		if n, ok := notes[sec.Type]; ok {
			require.NoError(t, e.sections.UpdateNotes(ctx, sec.ID, n))
		}
	}
	return insp
}

func (e *env) section(t *testing.T, inspID int64, st domain.SectionType) *domain.Section {
	t.Helper()
	secs, err := e.sections.ListByInspection(context.Background(), inspID)
	require.NoError(t, err)
	for _, sec := range secs {
		if sec.Type == st {
			return sec
		}
	}
	t.Fatalf("section %s missing", st)
	return nil
}

// addPhoto stores data as a blob and records it on the section.
func (e *env) addPhoto(t *testing.T, sectionID int64, mimeType string, data []byte) *domain.Photo {
	t.Helper()
	ctx := context.Background()
	key, err := e.photoStg.Save(ctx, "p", mimeType, bytes.NewReader(data))
	require.NoError(t, err)
	p, err := e.photos.Create(ctx, sectionID, key, mimeType)
	require.NoError(t, err)
	return p
}

func (e *env) complete(t *testing.T, id int64, release bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.inspections.SetStatus(ctx, id, domain.StatusCompleted))
	if release {
		require.NoError(t, e.inspections.SetReleased(ctx, id))
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
