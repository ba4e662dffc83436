// Package oidc signs users in against an OpenID Connect identity provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/ports"
)

const (
	wellKnownSuffix = "/.well-known/openid-configuration"
	stateLength     = 32
	defaultTTL      = time.Hour
)

// Claim names tried in order for each identity field. Directory-style claims
// (ADFS, Entra) come first so they shadow their generic counterparts.
//
//nolint:gochecknoglobals // read-only lookup tables
var (
	userIDClaims    = []string{"samaccountname", "preferred_username", "sub"}
	emailClaims     = []string{"mail", "email"}
	givenNameClaims = []string{"firstname", "given_name"}
	familyClaims    = []string{"lastname", "family_name"}
	groupClaims     = []string{"memberof", "groups"}
)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	// RoleClaim is a JMESPath expression locating the role inside the ID token
	// or userinfo claims. Empty disables claim-based roles.
	RoleClaim  string
	HTTPClient *http.Client
}

// Provider implements ports.AuthProvider with the authorization code flow.
type Provider struct {
	oauth     *oauth2.Config
	op        *gooidc.Provider
	verifier  *gooidc.IDTokenVerifier
	client    *http.Client
	roleClaim string
	logoutURL string
}

var _ ports.AuthProvider = (*Provider)(nil)

func (c ProviderConfig) validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.RedirectURL == "" {
		missing = append(missing, "redirect URL")
	}
	if c.DiscoveryURL == "" {
		missing = append(missing, "discovery URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is required", strings.Join(missing, ", "))
	}
	return nil
}

// issuerFromDiscovery strips the well-known suffix so go-oidc can rebuild it.
func issuerFromDiscovery(u string) string {
	u = strings.TrimSuffix(u, "/")
	return strings.TrimSuffix(u, wellKnownSuffix)
}

// NewProvider fetches the discovery document once and configures the code flow from it.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{client: client, logoutURL: cfg.LogoutURL}

	if expr := strings.TrimSpace(cfg.RoleClaim); expr != "" {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile role claim %q: %w", expr, err)
		}
		p.roleClaim = expr
	}

	op, err := gooidc.NewProvider(p.clientContext(context.Background()), issuerFromDiscovery(cfg.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	p.op = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: cfg.ClientID})
	p.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       strings.Fields(cfg.Scope),
		Endpoint:     op.Endpoint(),
	}
	return p, nil
}

// LogoutURL returns the provider's end-session URL, or "" when none is configured.
func (p *Provider) LogoutURL() string { return p.logoutURL }

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// Begin builds the provider authorization URL with a fresh state and nonce.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := randomToken(stateLength)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken(stateLength)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri stays the configured one; IdPs match it exactly.
	authURL := p.oauth.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange redeems the code, verifies the ID token and nonce, and falls back to
// the userinfo endpoint for anything the ID token left out.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = p.clientContext(ctx)
	tok, err := p.oauth.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims := claimSet{}
	if slices.Contains(p.oauth.Scopes, gooidc.ScopeOpenID) {
		if claims, err = p.idTokenClaims(ctx, tok, in.Nonce); err != nil {
			return domainauth.Identity{}, err
		}
	}

	id := p.identity(claims)
	if id.UserID == "" || id.Email == "" {
		info, infoErr := p.userInfoClaims(ctx, tok)
		if infoErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", infoErr)
		}
		id = mergeIdentity(id, p.identity(info))
	}

	id.ExpiresAt = tok.Expiry
	if id.ExpiresAt.IsZero() {
		id.ExpiresAt = time.Now().Add(defaultTTL)
	}
	return id, nil
}

func (p *Provider) idTokenClaims(ctx context.Context, tok *oauth2.Token, nonce string) (claimSet, error) {
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("missing id_token in token response")
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != nonce {
		return nil, errors.New("invalid nonce")
	}
	var claims claimSet
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	return claims, nil
}

func (p *Provider) userInfoClaims(ctx context.Context, tok *oauth2.Token) (claimSet, error) {
	info, err := p.op.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, err
	}
	var claims claimSet
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return claims, nil
}

// identity projects a claim set; missing claims leave fields empty.
func (p *Provider) identity(c claimSet) domainauth.Identity {
	return domainauth.Identity{
		UserID:    c.first(userIDClaims...),
		Email:     c.first(emailClaims...),
		FirstName: c.first(givenNameClaims...),
		LastName:  c.first(familyClaims...),
		Groups:    c.list(groupClaims...),
		Role:      p.role(c),
	}
}

// role evaluates the role claim; anything but a known role string is RoleNone.
func (p *Provider) role(c claimSet) domainauth.Role {
	if p.roleClaim == "" || len(c) == 0 {
		return domainauth.RoleNone
	}
	found, err := jmespath.Search(p.roleClaim, map[string]any(c))
	if err != nil {
		return domainauth.RoleNone
	}
	s, _ := found.(string)
	role, _ := domainauth.ParseRole(s)
	return role
}

// mergeIdentity fills empty fields of base from extra.
func mergeIdentity(base, extra domainauth.Identity) domainauth.Identity {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&base.UserID, extra.UserID)
	fill(&base.Email, extra.Email)
	fill(&base.FirstName, extra.FirstName)
	fill(&base.LastName, extra.LastName)
	if len(base.Groups) == 0 {
		base.Groups = extra.Groups
	}
	if base.Role == domainauth.RoleNone {
		base.Role = extra.Role
	}
	return base
}

// claimSet is a decoded JSON claims object.
type claimSet map[string]any

func (c claimSet) first(names ...string) string {
	for _, n := range names {
		if s, ok := c[n].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// list returns the first non-empty string array among names. A bare string
// counts as a one-element list since some IdPs collapse single groups.
func (c claimSet) list(names ...string) []string {
	for _, n := range names {
		switch v := c[n].(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// randomToken returns a URL-safe random string of exactly n characters.
func randomToken(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, base64.RawURLEncoding.DecodedLen(n)+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
