package httpx

import (
	"context"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/webshell/config"
	"github.com/target/webshell/internal/http/ui/fonts"
	"github.com/target/webshell/internal/http/ui/viewmodel"
	"github.com/target/webshell/internal/observability/metrics"
)

// ShellConfig is the static part of the page shell, computed once at startup.
type ShellConfig struct {
	UI config.UIConfig
	// LocalLogin is false in token mode where sign-in happens at the hosted provider.
	LocalLogin bool
	// SignInURL overrides /auth/login, e.g. a hosted sign-in page.
	SignInURL string
}

func (c ShellConfig) signInURL() string {
	if c.SignInURL == "" {
		return "/auth/login"
	}
	return c.SignInURL
}

// fontsView precomputes the font link and variables for the layout.
func (c ShellConfig) fontsView() viewmodel.Fonts {
	fs := fonts.Defaults()
	v := viewmodel.Fonts{Enabled: c.UI.Fonts.Enabled, BodyClasses: "font-sans antialiased overflow-x-hidden"}
	if !c.UI.Fonts.Enabled {
		return v
	}
	// #nosec G203 - built from the fixed font list
	v.RootCSS = template.CSS(fonts.RootCSS(fs))
	v.StylesheetURL = fonts.StylesheetURL(c.UI.Fonts.CSSURL, fs)
	v.Preconnect = fonts.Origins(c.UI.Fonts.CSSURL)
	return v
}

// metaView maps the configured metadata onto the <head> view model.
func (c ShellConfig) metaView() viewmodel.Meta {
	m := c.UI.Metadata
	return viewmodel.Meta{
		Title:        m.Title,
		Description:  m.Description,
		Keywords:     strings.Join(m.Keywords, ", "),
		Canonical:    m.BaseURL,
		Locale:       m.Locale,
		SiteName:     m.SiteName,
		OGType:       m.OpenGraph.Type,
		OGTitle:      m.OpenGraph.Title,
		OGDesc:       m.OpenGraph.Description,
		OGURL:        m.OpenGraph.URL,
		TwitterCard:  m.Twitter.Card,
		TwitterTitle: m.Twitter.Title,
		TwitterDesc:  m.Twitter.Description,
	}
}

// VisitCounter backs the home page visit widget.
type VisitCounter interface {
	Incr(ctx context.Context, name string) (int64, error)
	Get(ctx context.Context, name string) (int64, error)
}

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T       *TemplateRenderer
	Shell   ShellConfig
	Visits  VisitCounter // optional
	Metrics *metrics.Recorder
	IsDev   bool // show template errors in the response
	Logger  *slog.Logger
	Now     func() time.Time
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout assembles the shared chrome from the request context: theme, auth, CSRF and queued toasts.
func (h *UIHandlers) buildLayout(w http.ResponseWriter, r *http.Request, meta PageMeta) viewmodel.Layout {
	ui := h.Shell.UI
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		Meta:        h.Shell.metaView(),
		Fonts:       h.Shell.fontsView(),
		Year:        h.now().Year(),
		Toaster: viewmodel.Toaster{
			Position:   ui.Toaster.Position,
			DurationMS: ui.Toaster.Duration.Milliseconds(),
			ClassName:  ui.Toaster.ClassName,
		},
	}
	if layout.Title == "" {
		layout.Title = ui.Metadata.Title
	}
	if w != nil {
		layout.Toaster.Toasts = PopFlash(w, r)
	}

	if t, ok := ThemeFromContext(r.Context()); ok {
		layout.Theme = t
	} else {
		layout.Theme = ResolveTheme(r, ui.Theme)
	}

	layout.Auth = h.authView(r)
	layout.Nav = navItems(layout.Auth.Role, meta.CurrentPage)
	return layout
}

func (h *UIHandlers) authView(r *http.Request) viewmodel.Auth {
	a := viewmodel.Auth{
		SignInURL:  h.Shell.signInURL(),
		SignOutURL: "/auth/logout",
		LocalLogin: h.Shell.LocalLogin,
	}
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		return a
	}
	a.SignedIn = true
	a.Role = claims.Role().String()
	u := &viewmodel.User{Email: claims.Email, Role: a.Role, Name: claims.Email}
	if s := GetSessionFromContext(r.Context()); s != nil {
		u.Name = s.DisplayName()
	}
	if u.Name == "" {
		u.Name = claims.Subject
	}
	a.User = u
	return a
}

// navItems lists Home plus the area matching the viewer's role.
// The links are a convenience; the routes enforce access themselves.
func navItems(role, current string) []viewmodel.NavItem {
	items := []viewmodel.NavItem{{Label: "Home", Href: "/", Page: PageHome}}
	switch role {
	case "admin":
		items = append(items, viewmodel.NavItem{Label: "Admin", Href: "/admin", Page: PageAdmin})
	case "trainer":
		items = append(items, viewmodel.NavItem{Label: "Trainer", Href: "/trainer", Page: PageTrainer})
	}
	for i := range items {
		items[i].Active = items[i].Page == current
	}
	return items
}

// PageSpec defines metadata and an optional fetch for page-specific content.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context) (any, error)
}

// Page builds the layout, runs the optional fetch and renders.
// A failed fetch still renders the page with an error message in place of content.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := &viewmodel.Page{Layout: h.buildLayout(w, r, spec.Meta)}
	if spec.Fetch != nil {
		content, err := spec.Fetch(r.Context())
		if err != nil {
			h.logger().WarnContext(r.Context(), "page fetch failed",
				slog.String("page", spec.Meta.CurrentPage),
				slog.Any("error", err),
			)
			data.Error = true
			data.ErrorMessage = "An unexpected error occurred. Please try again."
		}
		data.Content = content
	}
	h.renderPage(w, r, data)
}

// renderPage renders the full document, or for htmx navigation only the main content
// plus a <title> so the document title follows the swap.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, data *viewmodel.Page) {
	page := data.CurrentPage
	if !WantsPartial(r) {
		err := h.T.RenderFull(w, r, data)
		h.Metrics.PageRender(page, err == nil)
		if err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	body, err := h.T.renderFragment("content", data)
	h.Metrics.PageRender(page, err == nil)
	if err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	if _, err := w.Write([]byte(`<title>` + html.EscapeString(data.Title) + `</title>`)); err != nil {
		h.logger().Error("failed to write partial document title", slog.Any("error", err))
		return
	}
	if _, err := w.Write(body); err != nil {
		h.logger().Error("failed to write partial content", slog.Any("error", err))
	}
}

// logAndRenderTemplateError answers 500; dev mode includes the template error.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		slog.Any("error", err),
		slog.String("context", context),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		if _, writeErr := w.Write([]byte(`<div style="padding:20px;margin:20px;border:2px solid #c33;background:#fee;font-family:monospace">` +
			`<h2 style="color:#c33;margin-top:0">Template Rendering Error</h2>` +
			`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
			`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
			`<pre style="background:#fff;padding:10px;border:1px solid #ccc;overflow-x:auto">` + html.EscapeString(err.Error()) + `</pre>` +
			`</div>`)); writeErr != nil {
			h.logger().Error("failed to write template error response", slog.Any("error", writeErr))
		}
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
