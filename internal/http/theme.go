package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/target/webshell/config"
	"github.com/target/webshell/internal/http/ui/viewmodel"
)

const (
	themeCookieMaxAge = 365 * 24 * 3600
	// prefersColorSchemeHint is the client hint browsers send once asked via Accept-CH.
	prefersColorSchemeHint = "Sec-Ch-Prefers-Color-Scheme"
)

var errInvalidTheme = errors.New("theme must be light, dark or system")

type themeKey struct{}

// ResolveTheme computes the theme context for r.
// An explicit light/dark cookie wins; "system" follows the color-scheme client hint
// and stays unresolved when the browser has not sent one.
func ResolveTheme(r *http.Request, cfg config.ThemeConfig) viewmodel.Theme {
	t := viewmodel.Theme{
		Preference:   cfg.DefaultTheme,
		Attribute:    cfg.Attribute,
		EnableSystem: cfg.EnableSystem,
	}
	if c, err := r.Cookie(cfg.CookieName); err == nil {
		if pref, ok := normalizeTheme(c.Value, cfg.EnableSystem); ok {
			t.Preference = pref
		}
	}

	switch t.Preference {
	case config.ThemeLight, config.ThemeDark:
		t.Resolved = t.Preference
	case config.ThemeSystem:
		hint := strings.Trim(strings.ToLower(r.Header.Get(prefersColorSchemeHint)), `" `)
		if hint == config.ThemeLight || hint == config.ThemeDark {
			t.Resolved = hint
		}
	}
	return t
}

// normalizeTheme accepts light, dark and (when enabled) system.
func normalizeTheme(v string, enableSystem bool) (string, bool) {
	switch v = strings.ToLower(strings.TrimSpace(v)); v {
	case config.ThemeLight, config.ThemeDark:
		return v, true
	case config.ThemeSystem:
		return v, enableSystem
	default:
		return "", false
	}
}

// Theme resolves the theme once per request and asks browsers for the color-scheme hint.
func Theme(cfg config.ThemeConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.EnableSystem {
				w.Header().Set("Accept-CH", prefersColorSchemeHint)
				w.Header().Add("Vary", prefersColorSchemeHint)
			}
			t := ResolveTheme(r, cfg)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), themeKey{}, t)))
		})
	}
}

// ThemeFromContext returns the theme resolved by the Theme middleware.
func ThemeFromContext(ctx context.Context) (viewmodel.Theme, bool) {
	t, ok := ctx.Value(themeKey{}).(viewmodel.Theme)
	return t, ok
}

// ThemeHandlers serves the theme switcher.
type ThemeHandlers struct {
	Config       config.ThemeConfig
	CookieDomain string
}

// Set stores the chosen theme.
// POST /theme with form field "theme". htmx callers get toast and theme:changed events
// and apply the theme in place; plain form posts are redirected back with a flash toast.
func (h *ThemeHandlers) Set(w http.ResponseWriter, r *http.Request) {
	pref, ok := normalizeTheme(r.PostFormValue("theme"), h.Config.EnableSystem)
	if !ok {
		if IsBrowserRequest(r) && !IsHTMX(r) {
			http.Error(w, "unknown theme", http.StatusBadRequest)
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_theme", Err: errInvalidTheme})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.Config.CookieName,
		Value:    pref,
		Path:     "/",
		Domain:   h.CookieDomain,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   themeCookieMaxAge,
	})

	toast := viewmodel.Toast{Message: "Theme set to " + pref, Type: "success"}
	if IsHTMX(r) {
		HTMX(w).
			Trigger("showToast", toast).
			Trigger("theme:changed", map[string]string{"preference": pref}).
			NoContent()
		return
	}
	SetFlash(w, r, toast)
	redirect := safeRedirectPath(r.PostFormValue("redirect_uri"))
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}
