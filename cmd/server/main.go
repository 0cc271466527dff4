package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/api"
	"github.com/lalith-99/kanban/internal/config"
	"github.com/lalith-99/kanban/internal/db"
	"github.com/lalith-99/kanban/internal/mail"
	"github.com/lalith-99/kanban/internal/observ"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/lalith-99/kanban/internal/repository/memory"
	"github.com/lalith-99/kanban/internal/repository/postgres"
	"github.com/lalith-99/kanban/internal/service"
	"github.com/lalith-99/kanban/internal/storage"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel, "server")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cancelled on SIGINT/SIGTERM. Everything long-running hangs off it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Open the store
	// ---------------------------------------------------------------
	var (
		store  repository.Store
		health api.HealthChecker
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.New()
	default:
		database, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		store = postgres.NewStore(database.Pool())
		health = database
	}

	// ---------------------------------------------------------------
	// 4. Realtime fanout
	//
	// With REDIS_URL set, services publish to redis and every instance
	// (this one included) delivers from the subscription. Without it the
	// hub publishes directly.
	// ---------------------------------------------------------------
	hub := realtime.NewHub(logger)
	var publisher realtime.Publisher = hub
	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()

		broker := realtime.NewRedisBroker(client, hub, realtime.DefaultChannel, logger)
		go func() {
			if err := broker.Run(ctx); err != nil {
				logger.Error("realtime broker stopped", zap.Error(err))
			}
		}()
		publisher = broker
	}

	// ---------------------------------------------------------------
	// 5. Services
	// ---------------------------------------------------------------
	files, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("open upload dir: %w", err)
	}

	svc := service.New(service.Deps{
		Store:     store,
		Publisher: publisher,
		Files:     files,
		Mailer:    mail.NewLogDispatcher(cfg.MailFrom, logger),
		Logger:    logger,
	})

	if cfg.ReconcileOnBoot {
		if _, err := svc.Resolver.Reconcile(ctx); err != nil {
			return err
		}
	}

	// ---------------------------------------------------------------
	// 6. HTTP server
	// ---------------------------------------------------------------
	ws := realtime.NewWSHandler(hub, svc.Access, cfg.WSAllowedOrigins, logger)
	router := api.NewRouter(api.RouterConfig{
		Services:  svc,
		Store:     store,
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		WS:        api.NewWSHandler(ws),
		Health:    health,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting kanban",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("redis", cfg.RedisURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
