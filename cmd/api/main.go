package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/SaschaHYR/G-Copro-sub000/internal/api/http"
	"github.com/SaschaHYR/G-Copro-sub000/internal/api/http/handlers"
	"github.com/SaschaHYR/G-Copro-sub000/internal/api/ws"
	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/config"
	"github.com/SaschaHYR/G-Copro-sub000/internal/events"
	"github.com/SaschaHYR/G-Copro-sub000/internal/notify"
	"github.com/SaschaHYR/G-Copro-sub000/internal/observability"
	"github.com/SaschaHYR/G-Copro-sub000/internal/persistence"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
	"github.com/SaschaHYR/G-Copro-sub000/internal/service"
	"github.com/SaschaHYR/G-Copro-sub000/internal/storage"
	"github.com/SaschaHYR/G-Copro-sub000/internal/worker"
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
	categoryRepo := repository.NewCategoryRepository(pool)
	buildingRepo := repository.NewBuildingRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CommentRepo:  commentRepo,
		CategoryRepo: categoryRepo,
		BuildingRepo: buildingRepo,
		Dispatcher:   dispatcher,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		UserRepo:     userRepo,
		CategoryRepo: categoryRepo,
		BuildingRepo: buildingRepo,
	})
	tracker := service.NewNotificationTracker(service.NotificationDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
		ReadSet:     notify.NewRedisReadSet(redis.Client),
		Logger:      logger,
	})

	uploader, err := storage.NewDiskUploader(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init upload storage", zap.Error(err))
	}

	feed := ws.NewFeedServer(authService.TokenManager(), userRepo, logger, cfg.Realtime.AllowedOrigins)
	worker.StartNotificationWorker(dispatcher, tracker, feed)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, cfg.Auth.SessionCheckTimeout())

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, tracker),
		Tickets:        handlers.NewTicketsHandler(ticketService, uploader),
		Notifications:  handlers.NewNotificationsHandler(tracker),
		Admin:          handlers.NewAdminHandler(adminService),
		Uploads:        handlers.NewUploadsHandler(uploader),
		AuthMiddleware: authMiddleware,
		UploadDir:      uploader.Dir(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	wsMux := http.NewServeMux()
	wsMux.Handle("/ws/comments", feed)
	wsServer := &http.Server{
		Addr:              cfg.Realtime.Addr(),
		Handler:           wsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("realtime feed listening", zap.String("addr", wsServer.Addr))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("realtime listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = wsServer.Shutdown(shutdownCtx)
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
