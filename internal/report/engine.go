package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/siteinspect/internal/metrics"
	"github.com/vbonduro/siteinspect/internal/photostore"
)

type Options struct {
	Layout   Layout
	Branding string
	// FetchConcurrency above one overlaps photo reads.
	FetchConcurrency int
}

// Engine assembles reports: resolve, fetch, compose, paginate, render.
type Engine struct {
	src      Sources
	fetcher  *fetcher
	renderer Renderer
	opts     Options
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(src Sources, photoStg photostore.PhotoStore, renderer Renderer, opts Options, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		src:      src,
		fetcher:  &fetcher{store: photoStg, concurrency: opts.FetchConcurrency},
		renderer: renderer,
		opts:     opts,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Build renders the report for scope. Photos that cannot be fetched or
// decoded become placeholders; only record-store and scope errors fail
// the build.
func (e *Engine) Build(ctx context.Context, scope Scope) (*Document, error) {
	plan, err := resolve(ctx, e.src, scope)
	if err != nil {
		return nil, err
	}

	assets := e.fetcher.fetchAll(ctx, assetKeys(plan))
	for _, a := range assets {
		if !a.Available() {
			e.metrics.AssetUnavailable()
			e.logger.Warn("report asset unavailable", "kind", scope.Kind.String(), "scope_id", scope.ID, "storage_key", a.Key, "error", a.Err)
		}
	}

	now := e.now()
	blocks := compose(plan, assets, e.opts.Layout, e.renderer.Measurer(), now.Format(dateFormat))
	pages := Paginate(blocks, e.opts.Layout)

	data, err := e.renderer.Render(RenderInput{
		Pages:     pages,
		Layout:    e.opts.Layout,
		Branding:  e.opts.Branding,
		Title:     title(plan.Kind),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render %s report: %w", scope.Kind, err)
	}

	doc := &Document{
		Filename:    Filename(plan, now, e.renderer.Extension()),
		ContentType: e.renderer.ContentType(),
		Data:        data,
		Pages:       len(pages),
		Kind:        scope.Kind,
		Unavailable: countUnavailable(assets),
	}
	e.metrics.ReportBuilt(scope.Kind.String(), doc.Pages)
	e.logger.Info("report built",
		"kind", scope.Kind.String(), "scope_id", scope.ID, "pages", doc.Pages,
		"inspections", len(plan.Inspections), "unavailable", doc.Unavailable, "filename", doc.Filename)
	return doc, nil
}
