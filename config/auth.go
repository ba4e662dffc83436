package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth signs users in through an OIDC provider and keeps server-side sessions.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock signs in a fixed local identity (development only).
	AuthModeMock AuthMode = "mock"
	// AuthModeToken trusts session tokens issued by a hosted provider; there is no local login.
	AuthModeToken AuthMode = "token"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock", "token":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock, token)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
	RoleClaim    string `env:"ROLE_CLAIM"    envDefault:"metadata.role"`
}

// DevAuthConfig controls the identity used when AUTH_MODE=mock.
type DevAuthConfig struct {
	UserID    string   `env:"USER_ID"    envDefault:"dev-user"`
	Email     string   `env:"EMAIL"      envDefault:"dev@example.com"`
	FirstName string   `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string   `env:"LAST_NAME"  envDefault:"User"`
	Groups    []string `env:"GROUPS"     envDefault:"admins" envSeparator:";"`
	Role      string   `env:"ROLE"`
}

// SessionTokenConfig controls verification of provider-issued session tokens
// presented in the session token cookie or an Authorization bearer header.
type SessionTokenConfig struct {
	Secret     string        `env:"SECRET"`
	JWKSURL    string        `env:"JWKS_URL"`
	Issuer     string        `env:"ISSUER"`
	RolePath   string        `env:"ROLE_PATH"   envDefault:"metadata.role"`
	CookieName string        `env:"COOKIE_NAME" envDefault:"__session"`
	Leeway     time.Duration `env:"LEEWAY"      envDefault:"5s"`
}

// Enabled reports whether a key source is configured.
func (c SessionTokenConfig) Enabled() bool {
	return c.Secret != "" || c.JWKSURL != ""
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	SessionToken SessionTokenConfig `envPrefix:"SESSION_TOKEN_"`

	// AdminGroup and TrainerGroup are the IdP group names mapped to roles at login.
	AdminGroup   string `env:"ADMIN_GROUP"   envDefault:"admins"`
	TrainerGroup string `env:"TRAINER_GROUP" envDefault:"trainers"`

	// SessionCookie names the cookie carrying the server-side session ID.
	SessionCookie string `env:"SESSION_COOKIE" envDefault:"session_id"`

	// SignInURL is the hosted sign-in page used in token mode.
	SignInURL string `env:"AUTH_SIGN_IN_URL"`
}

// Sanitize trims values and restores defaults that were set to blank.
func (c *AuthConfig) Sanitize() {
	c.OAuth.DiscoveryURL = strings.TrimSpace(c.OAuth.DiscoveryURL)
	c.OAuth.RoleClaim = strings.TrimSpace(c.OAuth.RoleClaim)
	c.SessionToken.JWKSURL = strings.TrimSpace(c.SessionToken.JWKSURL)
	c.SignInURL = strings.TrimSpace(c.SignInURL)
	c.DevAuth.Role = strings.TrimSpace(c.DevAuth.Role)
	c.SessionToken.RolePath = strings.TrimSpace(c.SessionToken.RolePath)
	if c.SessionToken.RolePath == "" {
		c.SessionToken.RolePath = "metadata.role"
	}
	if c.SessionToken.CookieName == "" {
		c.SessionToken.CookieName = "__session"
	}
	if c.SessionCookie == "" {
		c.SessionCookie = "session_id"
	}
	if c.SessionToken.Leeway < 0 {
		c.SessionToken.Leeway = 0
	}
}

// Validate fails when the selected mode cannot be constructed.
func (c *AuthConfig) Validate() error {
	var errs []error
	switch c.Mode {
	case AuthModeOAuth:
		if c.OAuth.DiscoveryURL == "" {
			errs = append(errs, errors.New("OAUTH_DISCOVERY_URL is required"))
		}
		if c.OAuth.ClientID == "" {
			errs = append(errs, errors.New("OAUTH_CLIENT_ID is required"))
		}
		if c.OAuth.ClientSecret == "" {
			errs = append(errs, errors.New("OAUTH_CLIENT_SECRET is required"))
		}
	case AuthModeMock:
		if c.DevAuth.UserID == "" || c.DevAuth.Email == "" {
			errs = append(errs, errors.New("DEV_AUTH_USER_ID and DEV_AUTH_EMAIL are required"))
		}
		if r := c.DevAuth.Role; r != "" && r != "admin" && r != "trainer" {
			errs = append(errs, fmt.Errorf("DEV_AUTH_ROLE %q is not one of admin, trainer", r))
		}
	case AuthModeToken:
		if !c.SessionToken.Enabled() {
			errs = append(errs, errors.New("SESSION_TOKEN_SECRET or SESSION_TOKEN_JWKS_URL is required"))
		}
		if c.SignInURL == "" {
			errs = append(errs, errors.New("AUTH_SIGN_IN_URL is required in token mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth mode %q", c.Mode))
	}
	if c.SessionToken.Secret != "" && c.SessionToken.JWKSURL != "" {
		errs = append(errs, errors.New("SESSION_TOKEN_SECRET and SESSION_TOKEN_JWKS_URL are mutually exclusive"))
	}
	if c.SessionToken.Secret != "" && len(c.SessionToken.Secret) < 32 {
		errs = append(errs, errors.New("SESSION_TOKEN_SECRET must be at least 32 bytes"))
	}
	return errors.Join(errs...)
}
