package httpx

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/target/webshell/config"
)

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// ContainsInOrder reports whether every sub appears in s, each after the previous one.
func ContainsInOrder(s string, subs ...string) bool {
	for _, sub := range subs {
		i := strings.Index(s, sub)
		if i < 0 {
			return false
		}
		s = s[i+len(sub):]
	}
	return true
}

// TestUIConfig returns a sanitized UI config with the defaults the env loader would produce.
func TestUIConfig() config.UIConfig {
	ui := config.UIConfig{
		Theme:   config.ThemeConfig{Attribute: "class", DefaultTheme: config.ThemeSystem, EnableSystem: true, CookieName: "theme"},
		Toaster: config.ToasterConfig{Position: "bottom-right", Duration: 3 * time.Second, ClassName: "bg-[var(--card)]"},
		Fonts:   config.FontsConfig{Enabled: true, CSSURL: "https://fonts.googleapis.com/css2"},
		Metadata: config.MetadataConfig{
			Title:       "Web Shell",
			Description: "A production-ready Go web starter.",
			Keywords:    []string{"go", "htmx"},
			BaseURL:     "https://example.com",
			Locale:      "en_US",
			SiteName:    "Web Shell",
			OpenGraph:   config.OpenGraphConfig{Type: "website"},
			Twitter:     config.TwitterConfig{Card: "summary_large_image"},
		},
	}
	ui.Sanitize()
	return ui
}

// NewTestRouter builds the production router over the on-disk frontend.
// mutate may adjust the services before the router is built.
func NewTestRouter(t *testing.T, auth AuthAPI, mutate func(*RouterServices)) http.Handler {
	t.Helper()
	SkipIfNoTemplates(t)
	services := RouterServices{
		Auth:          auth,
		LocalLogin:    true,
		SessionCookie: "session_id",
		TokenCookie:   "__session",
		UI:            TestUIConfig(),
		TemplateFS:    os.DirFS(TemplatePathFromTest),
		StaticFS:      os.DirFS(staticPathFromTest),
		Logger:        slog.New(slog.DiscardHandler),
	}
	if mutate != nil {
		mutate(&services)
	}
	h, err := NewRouter(services)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return h
}

const staticPathFromTest = "../../frontend/static"

// SkipIfNoTemplates checks if templates are available and skips the test if not.
func SkipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("Templates not available, skipping integration test")
	}
}
