package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/clientcare/support-portal/internal/api/http"
	"github.com/clientcare/support-portal/internal/api/http/handlers"
	"github.com/clientcare/support-portal/internal/auth"
	"github.com/clientcare/support-portal/internal/config"
	"github.com/clientcare/support-portal/internal/crm"
	"github.com/clientcare/support-portal/internal/events"
	"github.com/clientcare/support-portal/internal/observability"
	"github.com/clientcare/support-portal/internal/persistence"
	"github.com/clientcare/support-portal/internal/repository"
	"github.com/clientcare/support-portal/internal/service"
	"github.com/clientcare/support-portal/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	gateway := crm.NewGateway(cfg.CRM, logger)
	syncService := service.NewSyncService(gateway, ticketRepo, dispatcher, logger, metrics, cfg.CRM)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		Sync:        syncService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	inboundService := service.NewInboundService(ticketRepo, commentRepo, dispatcher, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo)

	challenges := auth.NewRedisChallengeStore(redis, cfg.Auth.BcryptCost)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Challenges: challenges,
		Logger:     logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Manager:        handlers.NewManagerHandler(ticketService),
		Inbound:        handlers.NewInboundHandler(inboundService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: authMiddleware,
		ManagerKey:     cfg.CRM.ManagerKey,
		InboundKey:     cfg.CRM.InboundKey,
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
