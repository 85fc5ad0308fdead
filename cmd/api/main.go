package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/syncdeck/syncdeck-backend/api/routes"
	"github.com/syncdeck/syncdeck-backend/internal/admin"
	"github.com/syncdeck/syncdeck-backend/internal/auth"
	"github.com/syncdeck/syncdeck-backend/internal/chat"
	"github.com/syncdeck/syncdeck-backend/internal/deals"
	"github.com/syncdeck/syncdeck-backend/internal/notifications"
	"github.com/syncdeck/syncdeck-backend/internal/tracks"
	"github.com/syncdeck/syncdeck-backend/internal/users"
	"github.com/syncdeck/syncdeck-backend/pkg/auth/session"
	"github.com/syncdeck/syncdeck-backend/pkg/broadcast"
	"github.com/syncdeck/syncdeck-backend/pkg/config"
	"github.com/syncdeck/syncdeck-backend/pkg/db"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/metrics"
	"github.com/syncdeck/syncdeck-backend/pkg/migrate"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox"
	"github.com/syncdeck/syncdeck-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	notifier, err := broadcast.NewRedisNotifier(redisClient, cfg.Broadcast, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create deal notifier", err)
		os.Exit(1)
	}

	dealsRepo := deals.NewRepository(dbClient.DB())
	tracksRepo := tracks.NewRepository(dbClient.DB())

	dealsService, err := deals.NewService(deals.ServiceParams{
		Repo:     dealsRepo,
		Tracks:   tracksRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Notifier: notifier,
		Metrics:  metrics.NewDealMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create deals service", err)
		os.Exit(1)
	}

	tracksService, err := tracks.NewService(tracksRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracks service", err)
		os.Exit(1)
	}

	chatService, err := chat.NewService(chat.NewRepository(dbClient.DB()), dealsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Users:       usersRepo,
		Tx:          dbClient,
		Outbox:      outboxService,
		PasswordCfg: cfg.Password,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Auth:          authService,
			Register:      registerService,
			Deals:         dealsService,
			Tracks:        tracksService,
			Chat:          chatService,
			Notifications: notificationsService,
			Admin:         adminService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
