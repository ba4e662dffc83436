// Package devauth signs in a fixed local identity without contacting an identity provider.
package devauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/ports"
)

const (
	callbackPath    = "/auth/callback"
	defaultDuration = 8 * time.Hour
)

// Config describes the identity handed out by the dev provider.
type Config struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Groups    []string
	// Role, when set, is asserted directly instead of being derived from Groups.
	Role            domainauth.Role
	SessionDuration time.Duration
}

// Provider is a ports.AuthProvider whose Begin redirects straight back to our
// own callback and whose Exchange hands out the configured identity.
type Provider struct {
	identity domainauth.Identity
	ttl      time.Duration
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider validates cfg. UserID and Email are required; an unknown Role is rejected.
func NewProvider(cfg Config) (*Provider, error) {
	switch {
	case cfg.UserID == "":
		return nil, errors.New("dev auth: UserID is required")
	case cfg.Email == "":
		return nil, errors.New("dev auth: Email is required")
	case cfg.Role != domainauth.RoleNone && !cfg.Role.IsValid():
		return nil, fmt.Errorf("dev auth: unknown role %q", cfg.Role)
	}

	ttl := cfg.SessionDuration
	if ttl <= 0 {
		ttl = defaultDuration
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID:    cfg.UserID,
			Email:     cfg.Email,
			FirstName: cfg.FirstName,
			LastName:  cfg.LastName,
			Groups:    slices.Clone(cfg.Groups),
			Role:      cfg.Role,
		},
		ttl: ttl,
	}, nil
}

// Begin returns the local callback URL carrying a fresh state.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, nonce := uuid.NewString(), uuid.NewString()
	q := url.Values{"code": {"dev"}, "state": {state}}
	return callbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange ignores the code and returns a copy of the identity with a fresh expiry.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	id := p.identity
	id.Groups = slices.Clone(p.identity.Groups)
	id.ExpiresAt = time.Now().Add(p.ttl)
	return id, nil
}
