// Package sessiontoken verifies the signed session tokens an identity provider
// hands to the browser and projects them into domain session claims.
package sessiontoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/ports"
)

// DefaultRolePath locates the role inside the token's custom metadata block.
const DefaultRolePath = "metadata.role"

// Config selects how tokens are verified. Exactly one of Secret or JWKSURL must be set.
type Config struct {
	Secret   []byte
	JWKSURL  string
	Issuer   string
	RolePath string
	Leeway   time.Duration
}

// Verifier implements ports.TokenVerifier.
type Verifier struct {
	secret   []byte
	keys     *gooidc.RemoteKeySet
	issuer   string
	rolePath string
	leeway   time.Duration
}

var _ ports.TokenVerifier = (*Verifier)(nil)

var (
	ErrNoKeySource   = errors.New("session token: one of secret or JWKS URL is required")
	ErrTwoKeySources = errors.New("session token: secret and JWKS URL are mutually exclusive")
)

// NewVerifier validates cfg and compiles the role path. The JWKS key set is fetched lazily.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	switch {
	case len(cfg.Secret) == 0 && cfg.JWKSURL == "":
		return nil, ErrNoKeySource
	case len(cfg.Secret) > 0 && cfg.JWKSURL != "":
		return nil, ErrTwoKeySources
	}

	rolePath := strings.TrimSpace(cfg.RolePath)
	if rolePath == "" {
		rolePath = DefaultRolePath
	}
	if _, err := jmespath.Compile(rolePath); err != nil {
		return nil, fmt.Errorf("compile role path %q: %w", rolePath, err)
	}

	v := &Verifier{
		secret:   cfg.Secret,
		issuer:   cfg.Issuer,
		rolePath: rolePath,
		leeway:   cfg.Leeway,
	}
	if cfg.JWKSURL != "" {
		v.keys = gooidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
	}
	return v, nil
}

func (v *Verifier) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.leeway))
	}
	return opts
}

// Verify checks the token signature and registered claims, then extracts the session claims.
// Tokens that fail validation wrap domainauth.ErrInvalidSessionToken. A key set that
// cannot be fetched is reported as a plain error.
func (v *Verifier) Verify(ctx context.Context, raw string) (*domainauth.SessionClaims, error) {
	if raw == "" {
		return nil, invalid(errors.New("token is empty"))
	}

	var claims jwt.MapClaims
	if v.keys != nil {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{}); err != nil {
			return nil, invalid(err)
		}
		payload, err := v.keys.VerifySignature(ctx, raw)
		if err != nil {
			// go-oidc reports key set fetch failures only through the message.
			if strings.HasPrefix(err.Error(), "fetching keys") {
				return nil, fmt.Errorf("verify signature: %w", err)
			}
			return nil, invalid(fmt.Errorf("verify signature: %w", err))
		}
		if err := json.Unmarshal(payload, &claims); err != nil {
			return nil, invalid(fmt.Errorf("decode claims: %w", err))
		}
		if err := jwt.NewValidator(v.parserOptions()...).Validate(claims); err != nil {
			return nil, invalid(err)
		}
	} else {
		opts := append(v.parserOptions(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return v.secret, nil }, opts...)
		if err != nil {
			return nil, invalid(err)
		}
		mc, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return nil, errors.New("unexpected claims type")
		}
		claims = mc
	}

	return v.project(claims)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domainauth.ErrInvalidSessionToken, err)
}

func (v *Verifier) project(claims jwt.MapClaims) (*domainauth.SessionClaims, error) {
	out := &domainauth.SessionClaims{}
	out.Subject, _ = claims.GetSubject()
	out.SessionID, _ = claims["sid"].(string)
	out.Email, _ = claims["email"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	found, err := jmespath.Search(v.rolePath, map[string]any(claims))
	if err != nil {
		return nil, fmt.Errorf("evaluate role path: %w", err)
	}
	if s, ok := found.(string); ok {
		if role, valid := domainauth.ParseRole(s); valid {
			out.Metadata.Role = &role
		}
	}
	return out, nil
}

// MintInput describes a token to sign with Mint.
type MintInput struct {
	Subject   string
	SessionID string
	Email     string
	Issuer    string
	Role      domainauth.Role
	TTL       time.Duration
}

// Mint signs an HS256 session token in the default claims shape.
// It exists for local development and the admin CLI.
func Mint(secret []byte, in MintInput) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("signing secret is required")
	}
	if in.Subject == "" {
		return "", errors.New("subject is required")
	}
	if in.TTL <= 0 {
		in.TTL = time.Hour
	}

	now := time.Now()
	metadata := map[string]any{}
	if in.Role.IsValid() {
		metadata["role"] = in.Role.String()
	}
	claims := jwt.MapClaims{
		"sub":      in.Subject,
		"iat":      now.Unix(),
		"exp":      now.Add(in.TTL).Unix(),
		"metadata": metadata,
	}
	if in.SessionID != "" {
		claims["sid"] = in.SessionID
	}
	if in.Email != "" {
		claims["email"] = in.Email
	}
	if in.Issuer != "" {
		claims["iss"] = in.Issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}
