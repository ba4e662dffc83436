package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/http/ui/viewmodel"
	"github.com/target/webshell/internal/service"
)

// AuthServiceInterface defines the auth service operations used by the handlers.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

const oauthCookieMaxAge = 600

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	// SessionCookie holds the server-side session ID.
	SessionCookie string
	// TokenCookie holds a provider session token; it is cleared on logout.
	TokenCookie string
	// ProviderLogoutURL, when set, ends the provider session after the local one.
	ProviderLogoutURL string
	Logger            *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) sessionCookie() string {
	if h.SessionCookie == "" {
		return "session_id"
	}
	return h.SessionCookie
}

// Login starts the provider flow.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", slog.Any("error", err))
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start sign-in"),
		})
		return
	}

	h.setTempCookie(w, r, cookieOAuthState, result.State)
	h.setTempCookie(w, r, cookieOAuthNonce, result.Nonce)
	h.setTempCookie(w, r, cookiePostLoginRedirect, redirectURI)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the provider flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	if code == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_code", Err: errors.New("authorization code is required")})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_state", Err: errors.New("state parameter is required")})
		return
	}

	stateCookie, err := r.Cookie(cookieOAuthState)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_state", Err: errors.New("invalid or missing state parameter")})
		return
	}
	nonceCookie, err := r.Cookie(cookieOAuthNonce)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_nonce", Err: errors.New("missing nonce parameter")})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", slog.Any("error", err))
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("unable to complete sign-in"),
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, cookieOAuthState)
	h.clearCookie(w, r, cookieOAuthNonce)

	redirectURI := "/"
	if c, err := r.Cookie(cookiePostLoginRedirect); err == nil {
		redirectURI = safeRedirectPath(c.Value)
		h.clearCookie(w, r, cookiePostLoginRedirect)
	}
	SetFlash(w, r, signedInToast(result.Session))
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

func signedInToast(s domainauth.Session) viewmodel.Toast {
	name := s.DisplayName()
	if name == "" {
		return viewmodel.Toast{Message: "Signed in", Type: "success"}
	}
	return viewmodel.Toast{Message: "Signed in as " + name, Type: "success"}
}

// Logout ends the local session and clears credentials.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.sessionCookie()); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", slog.Any("error", logoutErr))
		}
	}
	h.clearCookie(w, r, h.sessionCookie())
	if h.TokenCookie != "" {
		h.clearCookie(w, r, h.TokenCookie)
	}

	redirectURI := r.FormValue("redirect_uri")
	if redirectURI == "" {
		redirectURI = r.URL.Query().Get("redirect_uri")
	}
	target := h.signedOutURL(safeRedirectPath(redirectURI))

	if IsHTMX(r) {
		SetHXRedirect(w, target)
		HTMX(w).NoContent()
		return
	}
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": target,
		})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// signedOutURL points at the provider logout when configured, else the local signed-out page.
func (h *AuthHandlers) signedOutURL(redirectURI string) string {
	if h.ProviderLogoutURL != "" {
		return h.ProviderLogoutURL
	}
	u := url.URL{Path: "/auth/signed-out"}
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	return u.String()
}

// Status reports the claims OptionalAuth resolved for the request.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	user := map[string]any{
		"id":    claims.Subject,
		"email": claims.Email,
		"role":  claims.Role().String(),
	}
	if s := GetSessionFromContext(r.Context()); s != nil {
		user["first_name"] = s.FirstName
		user["last_name"] = s.LastName
	}
	resp := map[string]any{"authenticated": true, "user": user}
	if !claims.ExpiresAt.IsZero() {
		resp["expires_at"] = claims.ExpiresAt
	}
	WriteJSON(w, http.StatusOK, resp)
}

// clearCookie mirrors the attributes used when setting cookies so browsers delete them.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   oauthCookieMaxAge,
	})
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionCookie(),
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}
