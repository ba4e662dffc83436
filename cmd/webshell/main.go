package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/target/webshell/config"
	"github.com/target/webshell/internal/bootstrap"
	"github.com/target/webshell/internal/observability/metrics"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.Observability.SlogLevel())
	if err != nil {
		logger.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
	if err := run(ctx, &cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	logStartupInfo(ctx, logger, cfg)

	if err := bootstrap.ValidateConfig(cfg); err != nil {
		return err
	}

	db, redisClient, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeInfrastructure(ctx, logger, db, redisClient)

	if db != nil {
		if cfg.Postgres.RunMigrationsOnStart {
			if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
				return err
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	var recorder *metrics.Recorder
	if cfg.Observability.Metrics.Enabled {
		recorder, err = metrics.NewRecorder(cfg.Observability.Metrics.Namespace)
		if err != nil {
			return fmt.Errorf("create metrics recorder: %w", err)
		}
	}

	auth, err := bootstrap.BuildAuthService(ctx, bootstrap.AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: redisClient,
		DB:          db,
		Metrics:     recorder,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	return bootstrap.RunWithShutdown(ctx, &bootstrap.RunConfig{
		Config: cfg,
		Server: &bootstrap.HTTPServerConfig{
			Config:      cfg,
			Auth:        auth,
			RedisClient: redisClient,
			DB:          db,
			Metrics:     recorder,
			Logger:      logger,
		},
		Logger: logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting webshell",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"role_directory", cfg.Postgres.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
		"dev", cfg.IsDev)
}

// initInfrastructure connects the backing stores the selected auth mode needs.
// Token mode runs without Redis; the role directory is opt-in.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		if cfg.Auth.Mode == config.AuthModeToken {
			logger.WarnContext(ctx, "redis unavailable; continuing without shared counters", "error", err)
			return db, nil, nil
		}
		if db != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, nil, fmt.Errorf("connect redis: %w", errors.Join(err, fmt.Errorf("close database: %w", cerr)))
			}
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	return db, redisClient, nil
}

func closeInfrastructure(ctx context.Context, logger *slog.Logger, db *sql.DB, redisClient redis.UniversalClient) {
	if db != nil {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}
	if redisClient != nil {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}
}
