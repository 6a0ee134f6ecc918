package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/siteinspect/internal/domain"
)

func TestEnsureSectionsIsIdempotent(t *testing.T) {
	ts := newTestServices(t)
	tr := ts.tree(t)
	ctx := context.Background()
	insp, err := ts.inspectionStore.Create(ctx, tr.site.ID, tr.zone.ID, 1, time.Now())
	require.NoError(t, err)
	r := NewReconciler(ts.sectionStore, slog.Default())

	first, err := r.EnsureSections(ctx, insp.ID)
	require.NoError(t, err)
	require.NoError(t, ts.sectionStore.UpdateNotes(ctx, first[0].ID, "kept"))

	for i := 0; i < 3; i++ {
		again, err := r.EnsureSections(ctx, insp.ID)
		require.NoError(t, err)
		require.Len(t, again, len(domain.SectionTypes))
		for j := range first {
			assert.Equal(t, first[j].ID, again[j].ID)
		}
		assert.Equal(t, "kept", again[0].Notes)
	}
}

func TestEnsureSectionsFillsGaps(t *testing.T) {
	ts := newTestServices(t)
	tr := ts.tree(t)
	ctx := context.Background()
	insp, err := ts.inspectionStore.Create(ctx, tr.site.ID, tr.zone.ID, 1, time.Now())
	require.NoError(t, err)
	_, err = ts.sectionStore.CreateIfAbsent(ctx, insp.ID, domain.SectionDrainage)
	require.NoError(t, err)
	_, err = ts.sectionStore.CreateIfAbsent(ctx, insp.ID, domain.SectionLayout)
	require.NoError(t, err)

	got, err := NewReconciler(ts.sectionStore, slog.Default()).EnsureSections(ctx, insp.ID)
	require.NoError(t, err)

	var types []domain.SectionType
	for _, s := range got {
		types = append(types, s.Type)
	}
	assert.Equal(t, domain.SectionTypes, types)
}
