package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DBConfig contains PostgreSQL configuration for the role directory.
// The directory is optional; when disabled, roles come from IdP group mapping only.
type DBConfig struct {
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"webshell"`
	Password string `env:"PASSWORD" envDefault:"webshell"`
	Name     string `env:"NAME"     envDefault:"webshell"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // 'require' in production
	// RunMigrationsOnStart applies embedded migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN renders a pgx connection URL. Credentials are escaped.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig contains Redis configuration for sessions and counters.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// SentinelAddrs returns the sentinel nodes with SentinelPort applied to bare hosts.
func (c RedisConfig) SentinelAddrs() []string {
	out := make([]string, 0, len(c.SentinelNodes))
	for _, n := range c.SentinelNodes {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(n); err != nil && c.SentinelPort != "" {
			n = net.JoinHostPort(n, c.SentinelPort)
		}
		out = append(out, n)
	}
	return out
}
