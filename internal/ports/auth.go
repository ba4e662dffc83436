// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/target/webshell/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
// Get returns domainauth.ErrSessionNotFound for unknown or expired sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to application roles.
// It returns domainauth.RoleNone when no group grants a role.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// RoleDirectory holds roles assigned to users explicitly (outside IdP groups).
// Get returns RoleNone and a nil error when the user has no assignment.
type RoleDirectory interface {
	Get(ctx context.Context, userID string) (domainauth.Role, error)
}

// TokenVerifier validates a provider-issued session token and returns its claims.
// Rejected tokens wrap domainauth.ErrInvalidSessionToken; other errors mean the
// verifier itself could not do its job.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domainauth.SessionClaims, error)
}

// ClaimsSource retrieves the claims of the session bound to ctx.
// It returns (nil, nil) when ctx carries no session.
type ClaimsSource interface {
	SessionClaims(ctx context.Context) (*domainauth.SessionClaims, error)
}
