package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-commerce/storefront/cmd/storefront/cli"
	"github.com/odyssey-commerce/storefront/internal/app"
	"github.com/odyssey-commerce/storefront/internal/audit"
	audithttp "github.com/odyssey-commerce/storefront/internal/audit/http"
	"github.com/odyssey-commerce/storefront/internal/auth"
	"github.com/odyssey-commerce/storefront/internal/customers"
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
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 {
		os.Exit(cli.Run(ctx, cfg.AsynqRedisOpt(), os.Args[1:], os.Stdout))
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()
	decisionCache, err := app.NewDecisionCache(cfg, redisClient, metrics)
	if err != nil {
		logger.Error("init acl cache", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "storefront_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	rolesService := roles.NewService(roles.NewRepository(dbpool), decisionCache.Cache)
	rbacService := rbac.NewService(rbac.ServiceParams{
		Store:       rbac.NewRepository(dbpool),
		Roles:       rolesService,
		Localizer:   localization.NewService(localization.NewRepository(dbpool)),
		Tx:          db.NewTransactor(dbpool, db.WithIsoLevel(pgx.ReadCommitted)),
		Cache:       decisionCache.Cache,
		Auditor:     auditLogger,
		Recorder:    metrics,
		Logger:      logger,
		ManifestDir: cfg.ACLManifestDir,
	})
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	if cfg.ACLReconcileOnStart {
		created, err := rbacService.ReconcileRegistered(ctx)
		if err != nil {
			logger.Error("acl reconcile", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("acl catalog reconciled", slog.Int("installed", len(created)))
	}

	inspector := asynq.NewInspector(cfg.AsynqRedisOpt())
	jobClient := jobs.NewClient(cfg.AsynqRedisOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(auth.NewRepository(dbpool)), sessionManager, csrfManager),
		CustomersHandler:   customers.NewHandler(logger, customers.NewService(customers.NewRepository(dbpool), rolesService, auditLogger), rbacMiddleware),
		AuditHandler:       audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware, shared.PermManageACL),
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware, shared.PermManageACL),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware),
		JobHandler: jobs.NewHandler(jobs.HandlerParams{
			Inspector:  inspector,
			Client:     jobClient,
			Guard:      rbacMiddleware,
			Capability: shared.PermManageACL,
			Logger:     logger,
		}),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if decisionCache.Layered != nil {
		g.Go(func() error {
			return decisionCache.Layered.Listen(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("storefront", slog.Any("error", err))
		os.Exit(1)
	}
}
