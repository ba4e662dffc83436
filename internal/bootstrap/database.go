package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/target/webshell/config"
	"github.com/target/webshell/internal/data"
)

// connectTimeout bounds the initial ping of each backing store.
const connectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

func (c DatabaseConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// ConnectDB opens and pings the PostgreSQL role directory.
// It returns a nil DB when the directory is disabled.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	if !cfg.DBConfig.Enabled {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.DBConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Role lookups happen once per login; a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := pingOrClose(ctx, db.PingContext, db.Close); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.logger().InfoContext(ctx, "database connected",
		slog.String("host", cfg.DBConfig.Host),
		slog.Int("port", cfg.DBConfig.Port),
		slog.String("database", cfg.DBConfig.Name))
	return db, nil
}

// ConnectRedis builds a single-node, sentinel or cluster client and pings it.
//
//nolint:ireturn // the concrete client type depends on the deployment topology
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, mode, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch mode {
	case "cluster":
		client = redis.NewClusterClient(opts.Cluster())
	case "sentinel":
		client = redis.NewFailoverClient(opts.Failover())
	default:
		client = redis.NewClient(opts.Simple())
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := pingOrClose(ctx, ping, client.Close); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	// Addresses only; credentials never reach the log.
	cfg.logger().InfoContext(ctx, "redis connected",
		slog.String("mode", mode),
		slog.String("addrs", strings.Join(opts.Addrs, ",")))
	return client, nil
}

// redisOptions maps RedisConfig onto go-redis universal options and names the topology.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password}

	switch {
	case cfg.UseCluster:
		for _, n := range cfg.ClusterNodes {
			if n = strings.TrimSpace(n); n != "" {
				opts.Addrs = append(opts.Addrs, n)
			}
		}
		if len(opts.Addrs) == 0 && strings.TrimSpace(cfg.URI) != "" {
			if err := applyURI(opts, cfg.URI); err != nil {
				return nil, "", fmt.Errorf("parse redis cluster url: %w", err)
			}
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		return opts, "cluster", nil

	case cfg.UseSentinel:
		opts.Addrs = cfg.SentinelAddrs()
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
		return opts, "sentinel", nil

	default:
		if strings.TrimSpace(cfg.URI) == "" {
			return nil, "", errors.New("redis direct configuration requires a URI")
		}
		if err := applyURI(opts, cfg.URI); err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return opts, "direct", nil
	}
}

// applyURI accepts either a redis:// or rediss:// URL or a bare host:port.
// URL credentials override the configured password.
func applyURI(opts *redis.UniversalOptions, raw string) error {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "redis://") && !strings.HasPrefix(raw, "rediss://") {
		opts.Addrs = []string{raw}
		return nil
	}
	parsed, err := redis.ParseURL(raw)
	if err != nil {
		return err
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

// pingOrClose pings within connectTimeout and closes the handle on failure.
func pingOrClose(ctx context.Context, ping func(context.Context) error, closeFn func() error) error {
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err := ping(pingCtx)
	if err == nil {
		return nil
	}
	if closeErr := closeFn(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close connection: %w", closeErr))
	}
	return err
}

// RunMigrations creates the role directory schema.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if db == nil {
		return errors.New("run migrations: database is not configured")
	}
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
