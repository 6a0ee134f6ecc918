package service

import (
	"context"
	"log/slog"

	"github.com/vbonduro/siteinspect/internal/domain"
)

// Reconciler makes sure an inspection carries every section type.
type Reconciler struct {
	sections sectionRepository
	logger   *slog.Logger
}

func NewReconciler(sections sectionRepository, logger *slog.Logger) *Reconciler {
	return &Reconciler{sections: sections, logger: logger}
}

// EnsureSections creates any missing section with empty notes and returns
// the inspection's sections in display order. Running it again is a no-op.
func (r *Reconciler) EnsureSections(ctx context.Context, inspectionID int64) ([]*domain.Section, error) {
	existing, err := r.sections.ListByInspection(ctx, inspectionID)
	if err != nil {
		return nil, storeErr("list sections", err)
	}

	have := make(map[domain.SectionType]bool, len(existing))
	for _, s := range existing {
		have[s.Type] = true
	}

	missing, created := 0, 0
	for _, st := range domain.SectionTypes {
		if have[st] {
			continue
		}
		missing++
		ok, err := r.sections.CreateIfAbsent(ctx, inspectionID, st)
		if err != nil {
			return nil, storeErr("create section", err)
		}
		if ok {
			created++
		}
	}
	if missing == 0 {
		return existing, nil
	}

	r.logger.Debug("sections reconciled", "inspection_id", inspectionID, "created", created)
	sections, err := r.sections.ListByInspection(ctx, inspectionID)
	if err != nil {
		return nil, storeErr("list sections", err)
	}
	return sections, nil
}
