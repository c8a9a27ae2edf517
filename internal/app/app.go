// Package app assembles the repositories, services and background workers
// shared by the HTTP server and the operator CLI.
package app

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/edusmart-import-api/internal/repository"
	"github.com/noah-isme/edusmart-import-api/internal/service"
	"github.com/noah-isme/edusmart-import-api/pkg/cache"
	"github.com/noah-isme/edusmart-import-api/pkg/config"
	"github.com/noah-isme/edusmart-import-api/pkg/database"
	"github.com/noah-isme/edusmart-import-api/pkg/jobs"
	"github.com/noah-isme/edusmart-import-api/pkg/storage"
)

const importAuditQueue = "import-audit"

// App holds the wired dependencies of one process.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Metrics   *service.MetricsService
	Cache     *service.CacheService
	Auth      *service.AuthService
	Staging   *service.UploadStagingService
	Imports   *service.ImportService
	Batches   *service.BatchService
	Stats     *service.StatsService
	Validator *validator.Validate

	audit *jobs.Queue
}

// New opens the database, connects redis when caching is enabled and wires
// every service. Call Start before serving and Close on shutdown.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Validator: validator.New()}
	a.Metrics = service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			a.Redis = client
			cacheRepo = repository.NewCacheRepository(client, logger)
		}
	}
	a.Cache = service.NewCacheService(cacheRepo, a.Metrics, cfg.Cache.TTL, logger, cacheRepo != nil)

	a.Auth = service.NewAuthService(service.AuthConfig{
		JWTSecret:   cfg.Auth.JWTSecret,
		AdminTokens: cfg.Auth.AdminTokens,
	}, logger)

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.Staging = service.NewUploadStagingService(store, logger, service.UploadStagingConfig{
		StaleTTL:        cfg.Uploads.StaleTTL,
		CleanupInterval: cfg.Uploads.CleanupInterval,
	})

	runs := repository.NewImportRunRepository(db)
	a.audit = jobs.NewQueue(importAuditQueue, service.ImportRunJobHandler(runs), jobs.QueueConfig{
		Workers: 1,
		Logger:  logger,
	})
	a.Imports = service.NewImportService(
		db,
		repository.NewReferenceRepository(db),
		repository.NewUpsertRepository(db),
		runs,
		a.Staging,
		a.audit,
		a.Cache,
		a.Metrics,
		logger,
		service.ImportServiceConfig{MaxReportedErrors: cfg.Import.MaxReportedErrors},
	)

	a.Batches = service.NewBatchService(repository.NewBatchRepository(db), db, a.Cache, a.Metrics, a.Validator, logger, service.BatchServiceConfig{
		Policy: service.SizingPolicy{
			Min:         cfg.Batches.MinSize,
			Max:         cfg.Batches.MaxSize,
			SplitTarget: cfg.Batches.SplitTarget,
		},
		QueueBuffer: cfg.Batches.QueueBuffer,
		CacheTTL:    cfg.Cache.TTL,
	})
	a.Stats = service.NewStatsService(repository.NewStatsRepository(db), repository.StatKeys, a.Cache, logger)

	return a, nil
}

// Start launches the background workers. They stop when ctx is cancelled or
// Close is called.
func (a *App) Start(ctx context.Context) {
	a.audit.Start(ctx)
	a.Batches.Start(ctx)
	a.Staging.StartCleanup(ctx)
}

// Close drains the workers and releases connections.
func (a *App) Close() {
	a.Batches.Stop()
	a.audit.Stop()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("failed to close database", zap.Error(err))
	}
}
