package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/webshell/internal/domain/auth"
	obserrors "github.com/target/webshell/internal/observability/errors"
	"github.com/target/webshell/internal/observability/metrics"
	"github.com/target/webshell/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper
	// Optional: explicit per-user role assignments consulted before group mapping.
	Directory ports.RoleDirectory
	// Optional: verifies provider session tokens presented instead of a session cookie.
	Tokens  ports.TokenVerifier
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// AuthService orchestrates authentication flows by coordinating provider, role mapping, and session persistence.
// It is also the application's ClaimsSource: every lookup goes back to the session store or token verifier.
type AuthService struct {
	provider  ports.AuthProvider
	sessions  ports.SessionStore
	roles     ports.RoleMapper
	directory ports.RoleDirectory
	tokens    ports.TokenVerifier
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

var (
	errSessionExpired = errors.New("session expired")

	_ ports.ClaimsSource = (*AuthService)(nil)
)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider:  opts.Provider,
		sessions:  opts.Sessions,
		roles:     opts.Roles,
		directory: opts.Directory,
		tokens:    opts.Tokens,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	input := ports.BeginInput{RedirectURL: redirectURL}
	authURL, state, nonce, err := s.provider.Begin(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin completes an authentication flow by exchanging the code for an identity,
// resolving the role, and persisting a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	role, err := s.resolveRole(ctx, identity)
	if err != nil {
		return nil, err
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    identity.UserID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Role:      role,
		ExpiresAt: identity.ExpiresAt,
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	return &CompleteLoginResult{
		Session: session,
	}, nil
}

// resolveRole prefers an explicit directory assignment, then a role the IdP
// asserted directly, then group membership.
func (s *AuthService) resolveRole(ctx context.Context, identity domainauth.Identity) (domainauth.Role, error) {
	if s.directory != nil {
		role, err := s.directory.Get(ctx, identity.UserID)
		if err != nil {
			return domainauth.RoleNone, fmt.Errorf("lookup role assignment: %w", err)
		}
		if role.IsValid() {
			return role, nil
		}
	}
	if identity.Role.IsValid() {
		return identity.Role, nil
	}
	if s.roles == nil {
		return domainauth.RoleNone, nil
	}
	return s.roles.Map(identity.Groups), nil
}

// GetSession retrieves a session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("get session: %w", domainauth.ErrSessionNotFound)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" || s.sessions == nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// SessionClaims fetches the claims for the credential carried by ctx.
// Nothing is cached: each call hits the session store or re-verifies the token.
// A missing credential, an unknown or expired session, or a rejected token yields (nil, nil).
func (s *AuthService) SessionClaims(ctx context.Context) (*domainauth.SessionClaims, error) {
	cred, ok := domainauth.CredentialFromContext(ctx)
	if !ok {
		return nil, nil
	}

	if cred.Token != "" {
		if s.tokens == nil {
			return nil, errors.New("session token presented but no token verifier is configured")
		}
		claims, err := s.tokens.Verify(ctx, cred.Token)
		if errors.Is(err, domainauth.ErrInvalidSessionToken) {
			s.logger.DebugContext(ctx, "session token rejected", slog.String("error", err.Error()))
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("verify session token: %w", err)
		}
		return claims, nil
	}

	session, err := s.GetSession(ctx, cred.SessionID)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) || errors.Is(err, errSessionExpired) {
			return nil, nil
		}
		return nil, err
	}
	return session.Claims(), nil
}

// CheckRole reports whether the current session's role metadata equals role.
// Absent sessions or metadata compare as false; provider failures are returned as-is.
func (s *AuthService) CheckRole(ctx context.Context, role domainauth.Role) (bool, error) {
	return CheckRole(ctx, RoleCheckDeps{Source: s, Logger: s.logger, Metrics: s.metrics}, role)
}

// RoleCheckDeps groups the collaborators used by CheckRole.
type RoleCheckDeps struct {
	Source  ports.ClaimsSource
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// CheckRole fetches the session claims from deps.Source and compares their role to role.
// Every call logs the observed and requested role.
func CheckRole(ctx context.Context, deps RoleCheckDeps, role domainauth.Role) (bool, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	claims, err := deps.Source.SessionClaims(ctx)
	if err != nil {
		deps.Metrics.RoleCheck(role.String(), metrics.ResultError)
		logger.WarnContext(ctx, "role check failed",
			slog.String("requested_role", role.String()),
			slog.String("error_type", obserrors.Classify(err)),
		)
		return false, err
	}

	observed := claims.Role()
	logger.InfoContext(ctx, "role check",
		slog.String("observed_role", observed.String()),
		slog.String("requested_role", role.String()),
	)

	ok := observed != domainauth.RoleNone && observed == role
	if ok {
		deps.Metrics.RoleCheck(role.String(), metrics.ResultGranted)
	} else {
		deps.Metrics.RoleCheck(role.String(), metrics.ResultDenied)
	}
	return ok, nil
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.New().String()
}
