package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-commerce/storefront/internal/app"
	jobmetrics "github.com/odyssey-commerce/storefront/internal/jobs"
	"github.com/odyssey-commerce/storefront/internal/localization"
	"github.com/odyssey-commerce/storefront/internal/observability"
	"github.com/odyssey-commerce/storefront/internal/platform/cache"
	"github.com/odyssey-commerce/storefront/internal/platform/db"
	"github.com/odyssey-commerce/storefront/internal/rbac"
	"github.com/odyssey-commerce/storefront/internal/roles"
	"github.com/odyssey-commerce/storefront/internal/shared"
	"github.com/odyssey-commerce/storefront/jobs"

	_ "github.com/odyssey-commerce/storefront/internal/plugins/polls"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	decisionCache, err := app.NewDecisionCache(cfg, redisClient, nil)
	if err != nil {
		logger.Error("init acl cache", slog.Any("error", err))
		os.Exit(1)
	}
	if !decisionCache.Shared() {
		logger.Warn("acl cache backend is process local; cache flush tasks only affect the worker",
			slog.String("backend", decisionCache.Backend))
	}

	rbacService := rbac.NewService(rbac.ServiceParams{
		Store:       rbac.NewRepository(pool),
		Roles:       roles.NewService(roles.NewRepository(pool), decisionCache.Cache),
		Localizer:   localization.NewService(localization.NewRepository(pool)),
		Tx:          db.NewTransactor(pool, db.WithIsoLevel(pgx.ReadCommitted)),
		Cache:       decisionCache.Cache,
		Auditor:     shared.NewAuditLogger(pool),
		Logger:      logger,
		ManifestDir: cfg.ACLManifestDir,
	})
	metrics := observability.NewMetrics()
	aclJob := jobs.NewACLJob(rbacService, logger, jobmetrics.NewMetrics(metrics.Registerer()))
	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.WorkerMetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: cfg.AppReadTimeout,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = metricsServer.Close() }()
	}

	schedule, err := jobs.ReconcileSchedule(cfg.ACLReconcileCron)
	if err != nil {
		logger.Error("acl reconcile schedule", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.AsynqRedisOpt(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Cron:        schedule,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskACLReconcile, Handler: aclJob.HandleReconcile},
			{Type: jobs.TaskACLCacheFlush, Handler: aclJob.HandleCacheFlush},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
