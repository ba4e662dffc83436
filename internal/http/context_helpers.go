package httpx

import (
	"context"

	domainauth "github.com/target/webshell/internal/domain/auth"
)

type (
	sessionKey struct{}
	claimsKey  struct{}
)

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the server-side session resolved for the request, if any.
// Requests authenticated by a provider session token carry claims but no session.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok {
		return s
	}
	return nil
}

// SetClaimsInContext returns a child context carrying the claims resolved for the request.
func SetClaimsInContext(ctx context.Context, claims *domainauth.SessionClaims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaimsFromContext returns the claims resolved by OptionalAuth, or nil for anonymous requests.
func GetClaimsFromContext(ctx context.Context) *domainauth.SessionClaims {
	if c, ok := ctx.Value(claimsKey{}).(*domainauth.SessionClaims); ok {
		return c
	}
	return nil
}

// IsSignedIn reports whether OptionalAuth resolved a session for the request.
func IsSignedIn(ctx context.Context) bool {
	return GetClaimsFromContext(ctx) != nil
}
