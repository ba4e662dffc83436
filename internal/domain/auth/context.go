package auth

import "context"

// Credential is what an inbound request presented to identify its session.
// At most one of SessionID and Token is normally set; Token wins when both are.
type Credential struct {
	// SessionID references a server-side session created by the login flow.
	SessionID string
	// Token is a provider-issued session token (JWT).
	Token string
}

// IsZero reports whether the credential carries nothing.
func (c Credential) IsZero() bool { return c.SessionID == "" && c.Token == "" }

type credentialKey struct{}

// WithCredential returns a child context carrying the credential.
// A zero credential leaves ctx unchanged.
func WithCredential(ctx context.Context, c Credential) context.Context {
	if c.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, credentialKey{}, c)
}

// CredentialFromContext returns the credential stored in ctx, if any.
func CredentialFromContext(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	if !ok || c.IsZero() {
		return Credential{}, false
	}
	return c, true
}
