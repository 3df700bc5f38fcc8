package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/employee-portal/internal/api/http"
	"github.com/spec-kit/employee-portal/internal/api/http/handlers"
	"github.com/spec-kit/employee-portal/internal/auth"
	"github.com/spec-kit/employee-portal/internal/config"
	"github.com/spec-kit/employee-portal/internal/events"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/observability"
	"github.com/spec-kit/employee-portal/internal/persistence"
	"github.com/spec-kit/employee-portal/internal/repository"
	"github.com/spec-kit/employee-portal/internal/service"
	"github.com/spec-kit/employee-portal/internal/storage"
	"github.com/spec-kit/employee-portal/internal/worker"
)

const sessionSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	accountRepo := repository.NewAccountRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	slipRepo := repository.NewSalarySlipRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AccountRepo:       accountRepo,
		ProfileRepo:       profileRepo,
		EmployeeRepo:      employeeRepo,
		PasswordResetRepo: resetRepo,
		Sessions:          auth.NewRedisSessionStore(redis.Client),
		Dispatcher:        dispatcher,
		Tokens:            tokens,
		Logger:            logger,
	})

	registry := identity.NewRegistry(identity.ResolverDependencies{
		Profiles:   profileRepo,
		Terminator: authService,
		Bypass: identity.BypassConfig{
			Enabled:  cfg.Auth.DevBypassEnabled,
			Email:    cfg.Auth.DevBypassEmail,
			Password: cfg.Auth.DevBypassPassword,
			TTL:      cfg.Auth.AccessTokenTTL(),
		},
		Logger:         logger.Named("identity"),
		Observer:       metrics,
		ResolveTimeout: cfg.App.RequestTimeout(),
	}, authService)
	go worker.RunSessionSweeper(ctx, registry, metrics, sessionSweepInterval, logger)

	store, err := storage.NewLocalStore(cfg.Storage.RootDir, storage.NewURLSigner(cfg.Storage.SigningSecret, cfg.Storage.PublicBaseURL))
	if err != nil {
		logger.Fatal("failed to open object store", zap.Error(err))
	}

	sessionService := service.NewSessionService(service.SessionDependencies{
		Auth:          authService,
		Registry:      registry,
		Tokens:        tokens,
		BypassEnabled: cfg.Auth.DevBypassEnabled,
		Logger:        logger,
	})
	employeeService := service.NewEmployeeService(employeeRepo)
	profileService := service.NewProfileService(profileRepo, employeeRepo)
	dashboardService := service.NewDashboardService(employeeRepo, profileRepo, slipRepo)
	slipService := service.NewSalarySlipService(service.SalarySlipDependencies{
		SlipRepo:     slipRepo,
		EmployeeRepo: employeeRepo,
		Store:        store,
		Dispatcher:   dispatcher,
		Logger:       logger,
		LinkTTL:      cfg.Storage.SignedURLTTL(),
		MaxBytes:     int64(cfg.Storage.MaxUploadBytes),
	})

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Storage.MaxUploadBytes + 64*1024,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:     logger,
		Metrics:    metrics,
		Timeout:    cfg.App.RequestTimeout(),
		Production: cfg.App.IsProduction(),
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(sessionService, authService, employeeService, logger),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Employees:      handlers.NewEmployeesHandler(employeeService),
		Profiles:       handlers.NewProfilesHandler(profileService),
		SalarySlips:    handlers.NewSalarySlipsHandler(slipService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, authService, registry),
		Metrics:        metrics,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
