package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/observability/metrics"
)

type routeKey struct{}

// recordRoute reports the ServeMux pattern matched for r back to Logging.
// Middleware between the two copies the request, so the pattern travels through a context slot.
func recordRoute(r *http.Request) {
	if slot, ok := r.Context().Value(routeKey{}).(*string); ok && r.Pattern != "" {
		*slot = r.Pattern
	}
}

// Logging returns a middleware that logs HTTP requests and records request metrics.
// The route label is the matched ServeMux pattern so path parameters do not explode cardinality.
func Logging(logger *slog.Logger, rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := new(string)
			r = r.WithContext(context.WithValue(r.Context(), routeKey{}, route))
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			d := time.Since(start)

			pattern := *route
			if pattern == "" {
				pattern = r.Pattern
			}
			if pattern == "" {
				pattern = "unmatched"
			}
			rec.ObserveHTTP(r.Method, pattern, ww.status, d)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", pattern),
				slog.Int("status", ww.status),
				slog.Duration("duration", d),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel re-panicked by net/http
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionReader resolves sessions and claims for OptionalAuth.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	SessionClaims(ctx context.Context) (*domainauth.SessionClaims, error)
}

// RoleChecker answers whether the request's session holds a role.
type RoleChecker interface {
	CheckRole(ctx context.Context, role domainauth.Role) (bool, error)
}

// AuthMiddlewareConfig configures OptionalAuth.
type AuthMiddlewareConfig struct {
	Sessions SessionReader
	// SessionCookie carries a server-side session ID.
	SessionCookie string
	// TokenCookie carries a provider-issued session token; empty disables cookie tokens.
	TokenCookie string
	Logger      *slog.Logger
}

// credentialFromRequest extracts the session credential from cookies or a bearer token.
// A server-side session cookie wins over a token.
func credentialFromRequest(r *http.Request, cfg AuthMiddlewareConfig) domainauth.Credential {
	if cfg.SessionCookie != "" {
		if c, err := r.Cookie(cfg.SessionCookie); err == nil && c.Value != "" {
			return domainauth.Credential{SessionID: c.Value}
		}
	}
	if cfg.TokenCookie != "" {
		if c, err := r.Cookie(cfg.TokenCookie); err == nil && c.Value != "" {
			return domainauth.Credential{Token: c.Value}
		}
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		if tok := strings.TrimSpace(h[7:]); tok != "" {
			return domainauth.Credential{Token: tok}
		}
	}
	return domainauth.Credential{}
}

// OptionalAuth resolves the request's credential into a session and claims when possible.
// Lookup failures are logged and the request continues anonymously.
func OptionalAuth(cfg AuthMiddlewareConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := credentialFromRequest(r, cfg)
			if cred.IsZero() || cfg.Sessions == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := domainauth.WithCredential(r.Context(), cred)
			if cred.SessionID != "" {
				session, err := cfg.Sessions.GetSession(ctx, cred.SessionID)
				if err != nil {
					if !errors.Is(err, domainauth.ErrSessionNotFound) {
						logger.DebugContext(ctx, "session lookup failed", slog.Any("error", err))
					}
				} else {
					ctx = SetSessionInContext(ctx, session)
					ctx = SetClaimsInContext(ctx, session.Claims())
				}
			} else {
				claims, err := cfg.Sessions.SessionClaims(ctx)
				if err != nil {
					logger.WarnContext(ctx, "session token rejected", slog.Any("error", err))
				} else {
					ctx = SetClaimsInContext(ctx, claims)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection marks whether downstream handlers should answer with HTML or JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest treats /api/ and /static/ as non-browser, htmx as browser,
// and otherwise looks for text/html in Accept (missing Accept counts as a browser).
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

func writeAuthRequired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

// RoleGuardConfig configures RequireRoleBrowser.
type RoleGuardConfig struct {
	Checker RoleChecker
	Role    domainauth.Role
	// LoginPath is where anonymous browsers are sent.
	LoginPath string
	// Denied renders the browser response for 403 and 500 outcomes; nil falls back to plain text.
	Denied func(w http.ResponseWriter, r *http.Request, status int)
}

// RequireRoleBrowser checks the role through the RoleChecker on every request.
// Checker failures are answered with 500 rather than treated as a denial.
func RequireRoleBrowser(cfg RoleGuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			browser := IsBrowserRequest(r)
			if !IsSignedIn(r.Context()) {
				if browser {
					redirectToLogin(w, r, cfg.LoginPath)
					return
				}
				writeAuthRequired(w)
				return
			}

			ok, err := cfg.Checker.CheckRole(r.Context(), cfg.Role)
			if err != nil {
				if browser {
					cfg.deny(w, r, http.StatusInternalServerError)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "role_check_failed",
					Err:     errors.New("unable to verify role"),
				})
				return
			}
			if !ok {
				if browser {
					cfg.deny(w, r, http.StatusForbidden)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c RoleGuardConfig) deny(w http.ResponseWriter, r *http.Request, status int) {
	if c.Denied != nil {
		c.Denied(w, r, status)
		return
	}
	if status == http.StatusForbidden {
		http.Error(w, "Access Denied: You don't have permission to access this resource", status)
		return
	}
	http.Error(w, http.StatusText(status), status)
}

// redirectToLogin redirects browser requests to loginPath with the current URL as redirect_uri.
// htmx requests are sent to the signed-out page instead of having an error swapped in.
func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	redirectParam := url.QueryEscape(redirectPathForRequest(r))

	if IsHTMX(r) {
		SetHXRedirect(w, "/auth/signed-out?redirect_uri="+redirectParam)
		w.WriteHeader(http.StatusOK)
		return
	}
	if loginPath == "" {
		loginPath = "/auth/login"
	}
	sep := "?"
	if strings.Contains(loginPath, "?") {
		sep = "&"
	}
	http.Redirect(w, r, loginPath+sep+"redirect_uri="+redirectParam, http.StatusSeeOther)
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the redirect is a same-origin relative path starting with "/".
// Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}

// isSecureRequest reports HTTPS directly or via a proxy's X-Forwarded-Proto.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
