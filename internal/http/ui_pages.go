package httpx

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/target/webshell/internal/query"
)

const visitsCounterKey = "visits"

// HomeContent is the data behind the home page.
type HomeContent struct {
	ShowVisits bool
	Visits     int64
	Features   []Feature
}

// Feature is one card in the home page feature grid.
type Feature struct {
	Title       string
	Description string
	Icon        string
}

//nolint:gochecknoglobals // static page copy
var homeFeatures = []Feature{
	{Title: "Server-rendered pages", Description: "html/template layouts with htmx partial navigation.", Icon: "/static/img/layout.svg"},
	{Title: "Hosted authentication", Description: "OIDC sign-in or provider session tokens with role metadata.", Icon: "/static/img/lock.svg"},
	{Title: "Light and dark themes", Description: "Cookie-backed theme choice that follows the system preference.", Icon: "/static/img/theme.svg"},
	{Title: "Tailwind CSS", Description: "Utility classes merged server-side without conflicts.", Icon: "/static/img/palette.svg"},
}

// Home renders the public landing page.
// GET /.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}
	h.Page(w, r, PageSpec{
		Meta:  PageMeta{PageTitle: "Home", CurrentPage: PageHome},
		Fetch: h.homeContent,
	})
}

// homeContent records the visit and reads the counter back through the request's query client,
// so concurrent renders share one counter read.
func (h *UIHandlers) homeContent(ctx context.Context) (any, error) {
	content := HomeContent{Features: homeFeatures}
	if h.Visits == nil {
		return content, nil
	}
	if _, err := h.Visits.Incr(ctx, visitsCounterKey); err != nil {
		return content, fmt.Errorf("record visit: %w", err)
	}

	read := func(ctx context.Context) (int64, error) { return h.Visits.Get(ctx, visitsCounterKey) }
	var (
		n   int64
		err error
	)
	if qc, ok := query.FromContext(ctx); ok {
		n, err = query.FetchAs(ctx, qc, visitsCounterKey, read)
	} else {
		n, err = read(ctx)
	}
	if err != nil {
		return content, fmt.Errorf("read visits: %w", err)
	}
	content.ShowVisits = true
	content.Visits = n
	return content, nil
}

// AreaContent is the data behind the role-gated area pages.
type AreaContent struct {
	Heading     string
	Description string
	Role        string
}

// Admin renders the admin area. Access is enforced by RequireRoleBrowser.
// GET /admin.
func (h *UIHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Admin", PageTitle: "Admin", CurrentPage: PageAdmin},
		Fetch: func(context.Context) (any, error) {
			return AreaContent{
				Heading:     "Admin dashboard",
				Description: "Only sessions whose metadata role is admin can see this page.",
				Role:        "admin",
			}, nil
		},
	})
}

// Trainer renders the trainer area. Access is enforced by RequireRoleBrowser.
// GET /trainer.
func (h *UIHandlers) Trainer(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Trainer", PageTitle: "Trainer", CurrentPage: PageTrainer},
		Fetch: func(context.Context) (any, error) {
			return AreaContent{
				Heading:     "Trainer workspace",
				Description: "Only sessions whose metadata role is trainer can see this page.",
				Role:        "trainer",
			}, nil
		},
	})
}

// MemoryVisitCounter is an in-memory VisitCounter for single-instance deployments without Redis.
type MemoryVisitCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (c *MemoryVisitCounter) Incr(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	c.counts[name]++
	return c.counts[name], nil
}

func (c *MemoryVisitCounter) Get(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name], nil
}
