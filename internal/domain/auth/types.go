// Package auth contains domain-level types for authentication, sessions and roles.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"errors"
	"time"
)

// Role represents an elevated access level attached to a user session.
// The set of roles is closed; the zero value means "no elevated role".
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"

	// RoleNone is the absence of a role. It is never a member of the closed set.
	RoleNone Role = ""
)

// Roles lists every valid role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTrainer}
}

// IsValid reports whether r is a member of the closed role set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTrainer:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts s into a Role. Matching is exact; unknown values yield (RoleNone, false).
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.IsValid() {
		return RoleNone, false
	}
	return r, true
}

// ErrSessionNotFound is returned by session stores when a session does not exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSessionToken is returned by token verifiers when a presented token
// fails validation. Callers treat it as an absent session.
var ErrInvalidSessionToken = errors.New("invalid session token")

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (e.g., samAccountName or sub)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	Role      Role      // role asserted by the IdP itself, if any
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasRole reports whether the session carries a valid elevated role.
func (s Session) HasRole() bool { return s.Role.IsValid() }

// DisplayName returns the best available human name for the session owner.
func (s Session) DisplayName() string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	case s.FirstName != "":
		return s.FirstName
	case s.Email != "":
		return s.Email
	default:
		return s.UserID
	}
}

// Claims projects the stored session into the claims shape used for role checks.
func (s Session) Claims() *SessionClaims {
	c := &SessionClaims{
		Subject:   s.UserID,
		SessionID: s.ID,
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
	}
	if s.Role.IsValid() {
		role := s.Role
		c.Metadata.Role = &role
	}
	return c
}

// SessionMetadata is the custom metadata block attached to session claims.
type SessionMetadata struct {
	Role *Role `json:"role,omitempty"`
}

// SessionClaims is the provider-issued view of the current session.
// It is read-only from the application's perspective.
type SessionClaims struct {
	Subject   string          `json:"sub"`
	SessionID string          `json:"sid,omitempty"`
	Email     string          `json:"email,omitempty"`
	Metadata  SessionMetadata `json:"metadata"`
	ExpiresAt time.Time       `json:"-"`
}

// Role returns the role carried in the claims metadata, or RoleNone when the claims,
// the metadata, or the role are absent or not in the closed set.
func (c *SessionClaims) Role() Role {
	if c == nil || c.Metadata.Role == nil {
		return RoleNone
	}
	if !c.Metadata.Role.IsValid() {
		return RoleNone
	}
	return *c.Metadata.Role
}
