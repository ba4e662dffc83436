package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	webshell "github.com/target/webshell"
	"github.com/target/webshell/config"
	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/format"
	httpassets "github.com/target/webshell/internal/http/assets"
	"github.com/target/webshell/internal/observability/metrics"
	"github.com/target/webshell/internal/query"
)

// AuthAPI is everything the router needs from the auth service.
type AuthAPI interface {
	AuthServiceInterface
	SessionReader
	RoleChecker
}

// RouterServices holds the services and settings needed by the HTTP router.
type RouterServices struct {
	Auth AuthAPI
	// LocalLogin registers /auth/login and /auth/callback; false in token mode.
	LocalLogin        bool
	SignInURL         string
	ProviderLogoutURL string
	CookieDomain      string
	SessionCookie     string
	TokenCookie       string

	UI          config.UIConfig
	Compression *CompressionConfig // nil disables gzip
	Metrics     *metrics.Recorder
	MetricsPath string
	Query       *query.Client
	Visits      VisitCounter
	Health      []ReadinessCheck
	ImageLoader format.ImageLoader

	// TemplateFS and StaticFS override the embedded or on-disk frontend.
	TemplateFS fs.FS
	StaticFS   fs.FS

	IsDev  bool
	Logger *slog.Logger
}

// NewRouter wires routes and middleware. It fails when the templates cannot be parsed.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := frontendFS(services)
	if err != nil {
		return nil, err
	}
	resolver, err := httpassets.NewAssetResolver(httpassets.Options{
		FS:           staticFS,
		ManifestPath: "manifest.json",
		DevMode:      services.IsDev,
		Logger:       logger,
	})
	if err != nil {
		logger.Warn("asset manifest unavailable; using logical asset names", slog.Any("error", err))
		resolver = nil
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS:    templateFS,
		Resolver:      resolver,
		CriticalCSSFS: staticFS,
		DevMode:       services.IsDev,
		ImageLoader:   services.ImageLoader,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	ui := &UIHandlers{
		T: tr,
		Shell: ShellConfig{
			UI:         services.UI,
			LocalLogin: services.LocalLogin,
			SignInURL:  services.SignInURL,
		},
		Visits:  services.Visits,
		Metrics: services.Metrics,
		IsDev:   services.IsDev,
		Logger:  logger,
	}

	mux := http.NewServeMux()
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})
	loginPath := ui.Shell.signInURL()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", &readyHandler{h: &HealthHandlers{Checks: services.Health, Logger: logger}})
	if services.Metrics != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.Metrics.Handler())
	}
	mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))

	mux.Handle("POST /theme", csrf(http.HandlerFunc((&ThemeHandlers{
		Config:       services.UI.Theme,
		CookieDomain: services.CookieDomain,
	}).Set)))

	registerUIRoutes(mux, ui, uiRouteConfig{
		Checker:   services.Auth,
		LoginPath: loginPath,
		CSRF:      csrf,
	})

	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{
			Svc:               services.Auth,
			CookieDomain:      services.CookieDomain,
			SessionCookie:     services.SessionCookie,
			TokenCookie:       services.TokenCookie,
			ProviderLogoutURL: services.ProviderLogoutURL,
			Logger:            logger,
		}, services.LocalLogin, csrf)
		mux.HandleFunc("GET /api/roles/check", (&RoleHandlers{Checker: services.Auth, Logger: logger}).Check)
	}

	var handler http.Handler = &notFoundHandler{mux: mux, uiHandlers: ui}
	handler = QueryContext(services.Query)(handler)
	if services.Auth != nil {
		handler = OptionalAuth(AuthMiddlewareConfig{
			Sessions:      services.Auth,
			SessionCookie: services.SessionCookie,
			TokenCookie:   services.TokenCookie,
			Logger:        logger,
		})(handler)
	}
	handler = Theme(services.UI.Theme)(handler)
	handler = BrowserDetection()(handler)
	if services.Compression != nil {
		cc := *services.Compression
		cc.Logger = logger
		handler = Compression(cc)(handler)
	}
	handler = Logging(logger, services.Metrics)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

// frontendFS picks the template and static filesystems: explicit overrides,
// then disk in dev mode for hot reloading, then the embedded copies.
func frontendFS(s RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := s.TemplateFS, s.StaticFS
	if templateFS == nil {
		if s.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(webshell.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				return nil, nil, fmt.Errorf("embedded templates: %w", err)
			}
			templateFS = sub
		}
	}
	if staticFS == nil {
		if s.IsDev {
			staticFS = os.DirFS("frontend/static")
		} else {
			sub, err := fs.Sub(webshell.StaticFS, "frontend/static")
			if err != nil {
				return nil, nil, fmt.Errorf("embedded static assets: %w", err)
			}
			staticFS = sub
		}
	}
	return templateFS, staticFS, nil
}

// staticWithCacheHeaders marks fingerprinted files immutable and everything else uncacheable.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	hashedFilePattern := regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		handler.ServeHTTP(w, r)
	})
}

type readyHandler struct{ h *HealthHandlers }

func (rh *readyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { rh.h.Ready(w, r) }

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, localLogin bool, csrf func(http.Handler) http.Handler) {
	if localLogin {
		mux.HandleFunc("GET /auth/login", h.Login)
		mux.HandleFunc("GET /auth/callback", h.Callback)
	}
	mux.Handle("POST /auth/logout", csrf(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("GET /auth/status", h.Status)
}

type uiRouteConfig struct {
	Checker   RoleChecker
	LoginPath string
	CSRF      func(http.Handler) http.Handler
	Denied    func(http.ResponseWriter, *http.Request, int)
}

// roleWrap gates a page on role; with no checker configured nobody holds any role.
func (cfg uiRouteConfig) roleWrap(role domainauth.Role) func(http.Handler) http.Handler {
	checker := cfg.Checker
	if checker == nil {
		checker = denyAll{}
	}
	guard := RequireRoleBrowser(RoleGuardConfig{
		Checker:   checker,
		Role:      role,
		LoginPath: cfg.LoginPath,
		Denied:    cfg.Denied,
	})
	return func(h http.Handler) http.Handler { return cfg.CSRF(guard(h)) }
}

type denyAll struct{}

func (denyAll) CheckRole(context.Context, domainauth.Role) (bool, error) { return false, nil }

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	cfg.Denied = h.Denied
	mux.Handle("GET /{$}", cfg.CSRF(http.HandlerFunc(h.Home)))
	mux.Handle("GET /admin", cfg.roleWrap(domainauth.RoleAdmin)(http.HandlerFunc(h.Admin)))
	mux.Handle("GET /trainer", cfg.roleWrap(domainauth.RoleTrainer)(http.HandlerFunc(h.Trainer)))
	mux.Handle("GET /auth/signed-out", cfg.CSRF(http.HandlerFunc(h.SignedOut)))
}

// notFoundHandler replaces the mux's plain-text 404s with the error page or JSON.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	h.mux.ServeHTTP(cw, r)
	recordRoute(r)

	if cw.status == http.StatusNotFound && !strings.HasPrefix(r.URL.Path, "/static/") {
		h.uiHandlers.NotFound(w, r)
		return
	}
	cw.flushTo(w)
}

// captureWriter buffers a response so a mux 404 can be swapped for a rendered page.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		slog.Default().Debug("failed to write captured response", slog.Any("error", err))
	}
}
