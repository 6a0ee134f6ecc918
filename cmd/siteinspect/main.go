package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vbonduro/siteinspect/internal/config"
	"github.com/vbonduro/siteinspect/internal/db"
	"github.com/vbonduro/siteinspect/internal/logging"
	"github.com/vbonduro/siteinspect/internal/metrics"
	"github.com/vbonduro/siteinspect/internal/photostore"
	"github.com/vbonduro/siteinspect/internal/photostore/local"
	"github.com/vbonduro/siteinspect/internal/photostore/s3"
	"github.com/vbonduro/siteinspect/internal/report"
	"github.com/vbonduro/siteinspect/internal/service"
	"github.com/vbonduro/siteinspect/internal/store"
	"github.com/vbonduro/siteinspect/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	clientStore := store.NewClientStore(database)
	siteStore := store.NewSiteStore(database)
	zoneStore := store.NewZoneStore(database)
	inspectionStore := store.NewInspectionStore(database)
	sectionStore := store.NewSectionStore(database)
	photoStore := store.NewPhotoStore(database)
	technicianStore := store.NewTechnicianStore(database)

	photoStg, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine := report.NewEngine(report.Sources{
		Clients:     clientStore,
		Sites:       siteStore,
		Zones:       zoneStore,
		Inspections: inspectionStore,
		Sections:    sectionStore,
		Photos:      photoStore,
	}, photoStg, report.NewPDFRenderer(), report.Options{
		Layout:           report.DefaultLayout(),
		Branding:         cfg.ReportBranding,
		FetchConcurrency: cfg.ReportFetchConcurrency,
	}, m, logger)

	authService := service.NewAuthService(clientStore, technicianStore, logger)
	if cfg.BootstrapTechEmail != "" {
		if err := authService.BootstrapTechnician(ctx, cfg.BootstrapTechEmail, cfg.BootstrapTechPassword); err != nil {
			logger.Error("failed to bootstrap technician", "error", err)
			return
		}
	}

	server := web.NewServer(web.Deps{
		Inspections: service.NewInspectionService(inspectionStore, zoneStore, sectionStore, photoStore, photoStg, m, logger),
		Catalog:     service.NewCatalogService(clientStore, siteStore, zoneStore, inspectionStore, sectionStore, photoStore, photoStg, m, logger),
		Portal:      service.NewPortalService(siteStore, zoneStore, inspectionStore, sectionStore, photoStore, photoStg, engine, logger),
		Auth:        authService,
		Reports:     engine,
		PhotoStore:  photoStg,
		Gatherer:    reg,
	}, logger)

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case "s3":
		logger.Info("using s3 photo backend", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		logger.Info("using local photo backend", "path", cfg.PhotoPath)
		return local.NewLocalPhotoStore(cfg.PhotoPath, cfg.PublicBaseURL)
	}
}
