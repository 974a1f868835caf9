package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/provision-service/internal/api/http"
	"github.com/spec-kit/provision-service/internal/api/http/handlers"
	"github.com/spec-kit/provision-service/internal/auth"
	"github.com/spec-kit/provision-service/internal/config"
	"github.com/spec-kit/provision-service/internal/events"
	"github.com/spec-kit/provision-service/internal/observability"
	"github.com/spec-kit/provision-service/internal/persistence"
	"github.com/spec-kit/provision-service/internal/repository"
	"github.com/spec-kit/provision-service/internal/service"
	"github.com/spec-kit/provision-service/internal/worker"
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
	personRepo := repository.NewPersonRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)
	provisionRepo := repository.NewProvisionRepository(pool)
	historyRepo := repository.NewProvisionHistoryRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		PersonRepo:        personRepo,
		PasswordResetRepo: resetRepo,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		ServiceRepo:   serviceRepo,
		ProvisionRepo: provisionRepo,
		Cache:         redis,
		CacheTTL:      cfg.Redis.CatalogTTL(),
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	provisionService := service.NewProvisionService(service.ProvisionDependencies{
		ProvisionRepo: provisionRepo,
		ServiceRepo:   serviceRepo,
		HistoryRepo:   historyRepo,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	bootstrap := service.NewBootstrapService(personRepo, serviceRepo, *cfg, logger)
	if err := bootstrap.Run(ctx); err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), personRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(authService),
		Services:       handlers.NewServicesHandler(catalogService),
		Provisions:     handlers.NewProvisionsHandler(provisionService),
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
