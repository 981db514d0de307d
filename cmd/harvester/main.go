package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/target/harvester-api/config"
	"github.com/target/harvester-api/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger("info")
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.LogLevel)
	logStartupInfo(ctx, logger, &cfg)

	db, err := openStore(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()
	}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		redisClient, err = bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics failed", "error", cerr)
		}
	}()

	return bootstrap.RunHTTPServer(ctx, bootstrap.HTTPServerConfig{
		HTTP:     cfg.HTTP,
		Services: services,
		Logger:   logger,
	})
}

// openStore connects to Postgres when it backs the Entity Store and applies
// migrations if enabled. It returns a nil DB for the memory driver.
func openStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Store.Driver != config.StoreDriverPostgres {
		logger.WarnContext(ctx, "using in-memory store; data is lost on restart")
		return nil, nil
	}
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if !cfg.Postgres.RunMigrationsOnStart {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		return db, nil
	}
	if err := bootstrap.RunMigrations(ctx, db, logger); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database after migration failure", "error", cerr)
		}
		return nil, err
	}
	return db, nil
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting harvester API",
		"addr", cfg.HTTP.Addr,
		"store", cfg.Store.Driver,
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"redis", cfg.Redis.Enabled,
		"ownership", cfg.Ownership,
	)
}
