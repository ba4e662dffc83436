package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the externally visible origin, used for canonical and OpenGraph URLs.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies. Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`
	// CompressionLevel is the gzip level (1-9).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"15s"`

	// QueryStaleTime is how long the request query client serves a fetched value.
	QueryStaleTime time.Duration `env:"QUERY_STALE_TIME" envDefault:"60s"`
	// QueryFetchTimeout bounds one origin fetch shared by concurrent requests.
	QueryFetchTimeout time.Duration `env:"QUERY_FETCH_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
	if h.QueryStaleTime <= 0 {
		h.QueryStaleTime = 60 * time.Second
	}
	if h.QueryFetchTimeout <= 0 {
		h.QueryFetchTimeout = 10 * time.Second
	}
}
