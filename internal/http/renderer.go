package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/target/webshell/internal/format"
	httpassets "github.com/target/webshell/internal/http/assets"
	assetfuncs "github.com/target/webshell/internal/http/templates/assets"
	corefuncs "github.com/target/webshell/internal/http/templates/core"
)

const (
	criticalCSSPath = "css/critical.css"
	// fallbackCriticalCSS keeps first paint legible when the bundle lacks critical.css.
	fallbackCriticalCSS = ":root{--background:#fff;--foreground:#0a0a0a}.dark{--background:#0a0a0a;--foreground:#fafafa}"
)

// AssetResolver aliases the asset resolver so callers only import httpx.
type AssetResolver = httpassets.AssetResolver

// TemplateRenderer renders the layout, page fragments and error pages.
type TemplateRenderer struct {
	t             *template.Template
	criticalCSSFS fs.FS
	devMode       bool
	logger        *slog.Logger

	cssOnce     sync.Once
	criticalCSS string
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS          // required
	Resolver   *AssetResolver // optional; nil resolves logical names
	// CriticalCSSFS contains css/critical.css; in dev mode it is re-read per render.
	CriticalCSSFS fs.FS
	DevMode       bool
	ImageLoader   format.ImageLoader
	Logger        *slog.Logger
}

// NewTemplateRenderer parses every template up front; a parse failure is fatal to startup.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &TemplateRenderer{
		criticalCSSFS: cfg.CriticalCSSFS,
		devMode:       cfg.DevMode,
		logger:        logger,
	}

	var t *template.Template
	funcs := template.FuncMap{}
	mergeTemplateFuncs(funcs,
		corefuncs.Funcs(corefuncs.Deps{
			Template:           &t,
			ContentTemplateFor: ContentTemplateFor,
			ImageLoader:        cfg.ImageLoader,
		}),
		assetfuncs.Funcs(assetfuncs.Options{
			Resolver:    cfg.Resolver,
			CriticalCSS: r.getCriticalCSS,
		}),
	)

	t, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	r.t = t
	return r, nil
}

// getCriticalCSS returns critical.css, cached after the first read outside dev mode.
func (r *TemplateRenderer) getCriticalCSS() string {
	if r.criticalCSSFS == nil {
		return fallbackCriticalCSS
	}
	if r.devMode {
		return r.readCriticalCSS()
	}
	r.cssOnce.Do(func() { r.criticalCSS = r.readCriticalCSS() })
	return r.criticalCSS
}

func (r *TemplateRenderer) readCriticalCSS() string {
	b, err := fs.ReadFile(r.criticalCSSFS, criticalCSSPath)
	if err != nil {
		r.logger.Warn("critical css unavailable", slog.String("path", criticalCSSPath), slog.Any("error", err))
		return fallbackCriticalCSS
	}
	return string(b)
}

// RenderFull renders the full document: layout, chrome and page content.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, "layout", data)
}

// Lookup reports whether a named template exists.
func (r *TemplateRenderer) Lookup(name string) bool {
	return r != nil && r.t != nil && r.t.Lookup(name) != nil
}

// renderFragment executes name into memory for callers that assemble a response themselves.
func (r *TemplateRenderer) renderFragment(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderTemplate buffers the output so a failing template never writes a partial page.
func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func mergeTemplateFuncs(dst template.FuncMap, sources ...template.FuncMap) {
	for _, src := range sources {
		for key, val := range src {
			dst[key] = val
		}
	}
}
