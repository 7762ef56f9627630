package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/crewline/staff-sync-service/internal/api/http"
	"github.com/crewline/staff-sync-service/internal/api/http/handlers"
	"github.com/crewline/staff-sync-service/internal/auth"
	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/delivery"
	"github.com/crewline/staff-sync-service/internal/events"
	"github.com/crewline/staff-sync-service/internal/identity"
	"github.com/crewline/staff-sync-service/internal/observability"
	"github.com/crewline/staff-sync-service/internal/persistence"
	"github.com/crewline/staff-sync-service/internal/repository"
	"github.com/crewline/staff-sync-service/internal/scheduler"
	"github.com/crewline/staff-sync-service/internal/service"
	"github.com/crewline/staff-sync-service/internal/syncer"
	"github.com/crewline/staff-sync-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	auditRepo := repository.NewAuditReportRepository(pool)

	refCache := identity.NewRedisCache(redis.Client, cfg.Resolver.CacheTTL(), logger)
	resolver := identity.NewResolver(staffRepo, refCache, logger, metrics)

	wakeups := delivery.NewRedisWakeups(redis.Client, logger)
	store := syncer.NewSynchronizer(cfg.Sync, syncer.Dependencies{
		JobRepo:          jobRepo,
		NotificationRepo: notificationRepo,
		Wakeups:          wakeups,
		Logger:           logger,
		Metrics:          metrics,
	})
	pipeline := delivery.NewPipeline(cfg.Delivery, store, wakeups, logger, metrics)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, staffRepo, resolver)
	staffService := service.NewStaffService(*cfg, staffRepo, resolver)
	assignmentService := service.NewAssignmentService(store, resolver, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, store, logger)
	worker.StartNotificationWorker(notificationService)

	auditScheduler := scheduler.NewScheduler(cfg.Audit, scheduler.Dependencies{
		StaffRepo: staffRepo,
		AuditRepo: auditRepo,
		Resolver:  resolver,
		Store:     store,
		Generator: scheduler.NewGenerator(cfg.Audit.GeneratorURL, logger),
		Logger:    logger,
		Metrics:   metrics,
	})
	if err := auditScheduler.Start(); err != nil {
		logger.Fatal("failed to start audit scheduler", zap.Error(err))
	}
	defer auditScheduler.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Staff:          handlers.NewStaffHandler(assignmentService, store, resolver, auditRepo, pipeline),
		Admin:          handlers.NewAdminHandler(staffService, assignmentService, auditScheduler, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
