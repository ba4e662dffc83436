package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/webshell/config"
	"github.com/target/webshell/internal/adapters/authroles"
	"github.com/target/webshell/internal/adapters/devauth"
	"github.com/target/webshell/internal/adapters/oidc"
	redisadapter "github.com/target/webshell/internal/adapters/redis"
	"github.com/target/webshell/internal/adapters/sessiontoken"
	"github.com/target/webshell/internal/data"
	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/observability/metrics"
	"github.com/target/webshell/internal/ports"
	"github.com/target/webshell/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	// DB enables the role directory when set.
	DB      *sql.DB
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// AuthBundle is the auth service plus the route settings that follow from the auth mode.
type AuthBundle struct {
	Service *service.AuthService

	LocalLogin        bool
	SignInURL         string
	ProviderLogoutURL string
	SessionCookie     string
	TokenCookie       string
}

var errRedisRequired = errors.New("redis is required for server-side sessions")

// BuildAuthService creates an auth service based on the configured auth mode.
// ctx bounds background work such as JWKS refreshes.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*AuthBundle, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := service.AuthServiceOptions{
		Roles: authroles.StaticRoleMapper{
			AdminGroup:   cfg.Auth.AdminGroup,
			TrainerGroup: cfg.Auth.TrainerGroup,
		},
		Metrics: cfg.Metrics,
		Logger:  logger,
	}
	if cfg.DB != nil {
		opts.Directory = data.NewRoleRepo(cfg.DB)
	}

	bundle := &AuthBundle{}
	if cfg.Auth.SessionToken.Enabled() {
		verifier, err := buildTokenVerifier(ctx, cfg.Auth.SessionToken)
		if err != nil {
			return nil, err
		}
		opts.Tokens = verifier
		bundle.TokenCookie = cfg.Auth.SessionToken.CookieName
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		if err := withSessions(&opts, bundle, cfg); err != nil {
			return nil, err
		}
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:    cfg.Auth.DevAuth.UserID,
			Email:     cfg.Auth.DevAuth.Email,
			FirstName: cfg.Auth.DevAuth.FirstName,
			LastName:  cfg.Auth.DevAuth.LastName,
			Groups:    cfg.Auth.DevAuth.Groups,
			Role:      domainauth.Role(cfg.Auth.DevAuth.Role),
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		logger.Warn("mock auth enabled; every sign-in is the configured dev identity",
			"user_id", cfg.Auth.DevAuth.UserID)
		opts.Provider = prov

	case config.AuthModeOAuth:
		if err := withSessions(&opts, bundle, cfg); err != nil {
			return nil, err
		}
		oauth := cfg.Auth.OAuth
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
			RoleClaim:    oauth.RoleClaim,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		opts.Provider = prov
		bundle.ProviderLogoutURL = prov.LogoutURL()

	case config.AuthModeToken:
		if opts.Tokens == nil {
			return nil, errors.New("token mode requires a session token key source")
		}
		bundle.SignInURL = cfg.Auth.SignInURL

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}

	bundle.Service = service.NewAuthService(opts)
	return bundle, nil
}

// withSessions attaches the Redis session store used by the local login modes.
func withSessions(opts *service.AuthServiceOptions, bundle *AuthBundle, cfg AuthConfig) error {
	if cfg.RedisClient == nil {
		return fmt.Errorf("%s mode: %w", cfg.Auth.Mode, errRedisRequired)
	}
	opts.Sessions = redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")
	bundle.LocalLogin = true
	bundle.SessionCookie = cfg.Auth.SessionCookie
	return nil
}

//nolint:ireturn // callers only need the port.
func buildTokenVerifier(ctx context.Context, cfg config.SessionTokenConfig) (ports.TokenVerifier, error) {
	v, err := sessiontoken.NewVerifier(ctx, sessiontoken.Config{
		Secret:   []byte(cfg.Secret),
		JWKSURL:  cfg.JWKSURL,
		Issuer:   cfg.Issuer,
		RolePath: cfg.RolePath,
		Leeway:   cfg.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("create session token verifier: %w", err)
	}
	return v, nil
}
