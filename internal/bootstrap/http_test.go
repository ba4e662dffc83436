package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/webshell/config"
	redisadapter "github.com/target/webshell/internal/adapters/redis"
	httpx "github.com/target/webshell/internal/http"
)

func TestBuildRouterServicesWithoutInfrastructure(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.HTTP.CompressionEnabled = true
	cfg.HTTP.CompressionLevel = 4
	cfg.HTTP.CookieDomain = "example.com"
	cfg.Observability.Metrics.Path = "/prom"

	services := BuildRouterServices(&HTTPServerConfig{Config: cfg, Logger: discardLogger()})

	assert.Nil(t, services.Auth)
	assert.False(t, services.LocalLogin)
	assert.IsType(t, &httpx.MemoryVisitCounter{}, services.Visits)
	assert.Empty(t, services.Health)
	require.NotNil(t, services.Compression)
	assert.Equal(t, 4, services.Compression.Level)
	assert.Equal(t, "example.com", services.CookieDomain)
	assert.Equal(t, "/prom", services.MetricsPath)
	assert.NotNil(t, services.Query)
	assert.NotNil(t, services.ImageLoader)
}

func TestBuildRouterServicesWithRedisAndAuth(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	bundle, err := BuildAuthService(context.Background(), AuthConfig{
		Auth: config.AuthConfig{
			Mode:          config.AuthModeMock,
			DevAuth:       config.DevAuthConfig{UserID: "dev", Email: "dev@example.com"},
			SessionCookie: "session_id",
		},
		RedisClient: client,
		Logger:      discardLogger(),
	})
	require.NoError(t, err)

	services := BuildRouterServices(&HTTPServerConfig{
		Config:      &config.AppConfig{},
		Auth:        bundle,
		RedisClient: client,
		Logger:      discardLogger(),
	})

	assert.NotNil(t, services.Auth)
	assert.True(t, services.LocalLogin)
	assert.Equal(t, "session_id", services.SessionCookie)
	assert.IsType(t, &redisadapter.Counter{}, services.Visits)
	require.Len(t, services.Health, 1)
	assert.Equal(t, "redis", services.Health[0].Name)
	assert.Nil(t, services.Compression)
}

func TestShutdownHTTPServerNilServer(t *testing.T) {
	require.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}

func TestRunWithShutdownStopsOnContextCancel(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.ShutdownTimeout = time.Second
	cfg.UI.Metadata.Title = "Webshell"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunWithShutdown(ctx, &RunConfig{
			Config: cfg,
			Server: &HTTPServerConfig{Config: cfg, Logger: discardLogger()},
			Logger: discardLogger(),
		})
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestStartHTTPServerRequiresConfig(t *testing.T) {
	_, _, err := StartHTTPServer(nil)
	require.Error(t, err)
}

func TestConnectDBDisabled(t *testing.T) {
	db, err := ConnectDB(context.Background(), DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestValidateConfig(t *testing.T) {
	require.Error(t, ValidateConfig(nil))

	cfg := &config.AppConfig{}
	cfg.Auth.Mode = config.AuthModeMock
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
