package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/webshell/config"
	redisadapter "github.com/target/webshell/internal/adapters/redis"
	"github.com/target/webshell/internal/format"
	httpx "github.com/target/webshell/internal/http"
	"github.com/target/webshell/internal/observability/metrics"
	"github.com/target/webshell/internal/query"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Auth        *AuthBundle
	RedisClient redis.UniversalClient
	DB          *sql.DB
	Metrics     *metrics.Recorder
	Logger      *slog.Logger
}

// BuildRouterServices maps configuration and infrastructure onto the router's dependencies.
func BuildRouterServices(cfg *HTTPServerConfig) httpx.RouterServices {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		CookieDomain: appCfg.HTTP.CookieDomain,
		UI:           appCfg.UI,
		Metrics:      cfg.Metrics,
		MetricsPath:  appCfg.Observability.Metrics.Path,
		Query: query.NewClient(query.Options{
			StaleTime:    appCfg.HTTP.QueryStaleTime,
			FetchTimeout: appCfg.HTTP.QueryFetchTimeout,
			Metrics:      cfg.Metrics,
		}),
		Health:      readinessChecks(cfg.RedisClient, cfg.DB),
		ImageLoader: format.PassthroughLoader{},
		IsDev:       appCfg.IsDev,
		Logger:      logger,
	}

	if cfg.Auth != nil && cfg.Auth.Service != nil {
		services.Auth = cfg.Auth.Service
		services.LocalLogin = cfg.Auth.LocalLogin
		services.SignInURL = cfg.Auth.SignInURL
		services.ProviderLogoutURL = cfg.Auth.ProviderLogoutURL
		services.SessionCookie = cfg.Auth.SessionCookie
		services.TokenCookie = cfg.Auth.TokenCookie
	}

	if cfg.RedisClient != nil {
		services.Visits = redisadapter.NewCounter(cfg.RedisClient)
	} else {
		logger.Info("redis not configured; visit counter is per-process")
		services.Visits = &httpx.MemoryVisitCounter{}
	}

	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		services.Compression = &httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel}
	}

	return services
}

func readinessChecks(client redis.UniversalClient, db *sql.DB) []httpx.ReadinessCheck {
	var checks []httpx.ReadinessCheck
	if client != nil {
		checks = append(checks, httpx.ReadinessCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	if db != nil {
		checks = append(checks, httpx.ReadinessCheck{Name: "postgres", Ping: db.PingContext})
	}
	return checks
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown, and a channel that
// receives the listener's error if it stops unexpectedly.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, <-chan error, error) {
	if cfg == nil {
		return nil, nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := httpx.NewRouter(BuildRouterServices(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("build router: %w", err)
	}

	httpCfg := config.HTTPConfig{}
	if cfg.Config != nil {
		httpCfg = cfg.Config.HTTP
	}
	server, errCh := startServer(logger, handler, httpCfg)
	return server, errCh, nil
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig) (*http.Server, <-chan error) {
	addr := cfg.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return server, errCh
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
