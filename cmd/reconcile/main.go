// Command reconcile brings every board role's permission rows in line with
// the permission names compiled into this binary, then exits. Run it after a
// deploy that adds or retires permissions when the server is started with
// RECONCILE_ON_BOOT=false.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lalith-99/kanban/internal/config"
	"github.com/lalith-99/kanban/internal/db"
	"github.com/lalith-99/kanban/internal/observ"
	"github.com/lalith-99/kanban/internal/repository/postgres"
	"github.com/lalith-99/kanban/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("reconcile needs STORE_DRIVER=%s, got %q", config.DriverPostgres, cfg.StoreDriver)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel, "reconcile")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: 2, MinConns: 1}, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Reconcile only touches roles and their permission rows, so the
	// publisher, file storage and mailer stay unset.
	svc := service.New(service.Deps{
		Store:  postgres.NewStore(database.Pool()),
		Logger: logger,
	})

	_, err = svc.Resolver.Reconcile(ctx)
	return err
}
