package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/target/webshell/internal/http/ui/viewmodel"
)

// errorPage is the data for error.tmpl.
type errorPage struct {
	Title       string
	Code        string
	Message     string
	ShowLogin   bool
	RedirectURI string
	SignInURL   string
	Theme       viewmodel.Theme
}

// SignedOut renders the signed-out page with a sign-in button.
// GET /auth/signed-out.
func (h *UIHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	redirect := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	layout := h.buildLayout(w, r, PageMeta{Title: "Signed out", PageTitle: "Signed out"})
	data := map[string]any{
		"Layout":      layout,
		"Title":       "Signed out",
		"RedirectURI": redirect,
		"SignInURL":   layout.Auth.SignInURL + "?redirect_uri=" + url.QueryEscape(redirect),
		"LocalLogin":  layout.Auth.LocalLogin,
	}
	body, err := h.T.renderFragment("signed-out-page", data)
	if err != nil {
		h.logAndRenderTemplateError(w, r, err, "signed-out render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger().Error("failed to write signed-out response", "error", err)
	}
}

// NotFound answers 404: an HTML page for browsers and JSON for API callers.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("not found"),
		})
		return
	}
	h.renderErrorPage(w, r, http.StatusNotFound, "The page you're looking for doesn't exist.")
}

// Denied renders the browser response for role-gated routes.
func (h *UIHandlers) Denied(w http.ResponseWriter, r *http.Request, status int) {
	msg := "You don't have permission to access this page."
	if status != http.StatusForbidden {
		msg = "We couldn't verify your access right now. Please try again."
	}
	h.renderErrorPage(w, r, status, msg)
}

func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	signedIn := IsSignedIn(r.Context())
	theme := ResolveTheme(r, h.Shell.UI.Theme)
	if t, ok := ThemeFromContext(r.Context()); ok {
		theme = t
	}
	data := errorPage{
		Title:       http.StatusText(status),
		Code:        strconv.Itoa(status),
		Message:     msg,
		ShowLogin:   !signedIn,
		RedirectURI: r.URL.RequestURI(),
		SignInURL:   h.Shell.signInURL(),
		Theme:       theme,
	}
	if h.T == nil {
		http.Error(w, msg, status)
		return
	}
	body, err := h.T.renderFragment("error-layout", data)
	if err != nil {
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger().Error("failed to write error page", "error", err)
	}
}
