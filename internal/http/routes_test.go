package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/webshell/internal/adapters/sessiontoken"
	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/http/ui/viewmodel"
	mockauth "github.com/target/webshell/internal/mocks/auth"
	"github.com/target/webshell/internal/observability/metrics"
	"github.com/target/webshell/internal/query"
	"github.com/target/webshell/internal/service"
)

func browserGet(target string, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "text/html")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRouter_HomeLayout(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	w := serve(h, browserGet("/"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.True(t, ContainsInOrder(body, `id="navbar"`, `<main id="main"`, `id="footer"`, `id="toaster"`),
		"chrome should render navbar, main, footer, then the toaster")
	assert.Contains(t, body, `<html lang="en" class="overflow-x-hidden"`)
	assert.Contains(t, body, `class="font-sans antialiased overflow-x-hidden"`)
	assert.Contains(t, body, `class="flex min-h-screen bg-[var(--background)] w-full overflow-x-hidden"`)
	assert.Contains(t, body, `data-position="bottom-right"`)
	assert.Contains(t, body, `data-duration="3000"`)

	// head metadata and fonts
	assert.Contains(t, body, `<title>Home | Web Shell</title>`)
	assert.Contains(t, body, `<meta name="description" content="A production-ready Go web starter.">`)
	assert.Contains(t, body, `<meta property="og:url" content="https://example.com">`)
	assert.Contains(t, body, `family=Inter`)
	assert.Contains(t, body, `--font-inter`)

	// anonymous chrome
	assert.Contains(t, body, `href="/auth/login"`)
	assert.NotContains(t, body, `href="/admin"`)
	assert.NotContains(t, body, "Sign out")

	assert.NotNil(t, findCookie(t, w, DefaultCSRFCookieName), "pages issue a CSRF token")
}

func TestRouter_SignedInChrome(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	w := serve(h, browserGet("/", &http.Cookie{Name: "session_id", Value: "admin-sid"}))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Sign out")
	assert.Contains(t, body, `href="/admin"`)
	assert.NotContains(t, body, `href="/trainer"`)
}

func TestRouter_ThemeCookieAppliedToHTML(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	w := serve(h, browserGet("/", &http.Cookie{Name: "theme", Value: "dark"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<html lang="en" class="overflow-x-hidden dark"`)
	assert.Contains(t, w.Body.String(), `data-theme-preference="dark"`)
}

func TestRouter_FlashToastRendered(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	set := httptest.NewRecorder()
	SetFlash(set, httptest.NewRequest(http.MethodGet, "/", nil), viewmodel.Toast{Message: "Welcome back", Type: "success"})

	w := serve(h, browserGet("/", findCookie(t, set, cookieFlash)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ContainsInOrder(w.Body.String(), `id="toaster"`, "Welcome back"))
	cleared := findCookie(t, w, cookieFlash)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestRouter_RoleGating(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	t.Run("anonymous redirected to sign in", func(t *testing.T) {
		w := serve(h, browserGet("/admin"))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/auth/login?redirect_uri=%2Fadmin", w.Header().Get("Location"))
	})

	t.Run("wrong role gets rendered 403", func(t *testing.T) {
		w := serve(h, browserGet("/admin", &http.Cookie{Name: "session_id", Value: "trainer-sid"}))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "403")
		assert.Contains(t, w.Body.String(), "permission")
	})

	t.Run("no role metadata gets 403", func(t *testing.T) {
		w := serve(h, browserGet("/trainer", &http.Cookie{Name: "session_id", Value: "plain-sid"}))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin sees admin area", func(t *testing.T) {
		w := serve(h, browserGet("/admin", &http.Cookie{Name: "session_id", Value: "admin-sid"}))
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Admin dashboard")
		assert.Contains(t, body, `aria-current="page"`)
	})

	t.Run("trainer sees trainer area", func(t *testing.T) {
		w := serve(h, browserGet("/trainer", &http.Cookie{Name: "session_id", Value: "trainer-sid"}))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Trainer workspace")
	})

	t.Run("provider token cookie", func(t *testing.T) {
		w := serve(h, browserGet("/admin", &http.Cookie{Name: "__session", Value: "admin-token"}))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("store failure is a 500 not a denial", func(t *testing.T) {
		svc, store := newAuthServiceForTest(t)
		h := NewTestRouter(t, svc, nil)
		// Claims already resolved for the request; the store then fails during the role check.
		r := browserGet("/admin")
		ctx := domainauth.WithCredential(r.Context(), domainauth.Credential{SessionID: "admin-sid"})
		ctx = SetClaimsInContext(ctx, &domainauth.SessionClaims{Subject: "u-admin"})
		store.GetErr = assert.AnError
		w := serve(h, r.WithContext(ctx))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRouter_HTMXPartialNavigation(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	r := browserGet("/admin", &http.Cookie{Name: "session_id", Value: "admin-sid"})
	r.Header.Set("Hx-Request", "true")
	w := serve(h, r)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<title>Admin</title>"))
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.NotContains(t, body, `id="navbar"`)
	assert.Contains(t, body, "Admin dashboard")
	assert.Contains(t, w.Header().Get("Hx-Trigger"), "nav:activate")
}

func TestRouter_NotFound(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	w := serve(h, browserGet("/does-not-exist"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	r := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w = serve(h, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"not_found"`)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "<!DOCTYPE html>")
}

func TestRouter_SignedOutPage(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	w := serve(h, browserGet("/auth/signed-out?redirect_uri=/trainer"))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "You have been signed out")
	assert.Contains(t, body, `href="/auth/login?redirect_uri=%2Ftrainer"`)
}

func TestRouter_ThemeRequiresCSRF(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	form := url.Values{"theme": {"dark"}, "redirect_uri": {"/"}}
	r := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(h, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	form.Set(DefaultCSRFCookieName, "tok123")
	r = httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok123"})
	w = serve(h, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	c := findCookie(t, w, "theme")
	require.NotNil(t, c)
	assert.Equal(t, "dark", c.Value)
}

func TestRouter_LogoutRequiresCSRF(t *testing.T) {
	svc, store := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)
	before := store.Len()

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "admin-sid"})
	assert.Equal(t, http.StatusForbidden, serve(h, r).Code)
	assert.Equal(t, before, store.Len())

	r = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "admin-sid"})
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	r.Header.Set(DefaultCSRFHeaderName, "tok")
	w := serve(h, r)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, before-1, store.Len())
}

func TestRouter_TokenModeHasNoLocalLogin(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, func(s *RouterServices) {
		s.LocalLogin = false
		s.SignInURL = "https://accounts.example.com/sign-in"
	})

	w := serve(h, browserGet("/auth/login"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h, browserGet("/admin"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://accounts.example.com/sign-in?redirect_uri=%2Fadmin", w.Header().Get("Location"))

	w = serve(h, browserGet("/"))
	assert.Contains(t, w.Body.String(), `href="https://accounts.example.com/sign-in"`)
}

func TestRouter_RolesAPI(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/roles/check?role=admin", nil)
	r.Header.Set("Authorization", "Bearer admin-token")
	w := serve(h, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"admin","has_role":true}`, w.Body.String())
}

func TestRouter_RolesAPIRejectedTokens(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	verifier, err := sessiontoken.NewVerifier(t.Context(), sessiontoken.Config{Secret: secret})
	require.NoError(t, err)
	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider: mockauth.NewMockAuthProvider(),
		Sessions: mockauth.NewMemorySessionStore(),
		Tokens:   verifier,
	})
	h := NewTestRouter(t, svc, nil)

	wrongKey, err := sessiontoken.Mint([]byte("another-secret-another-secret-00"),
		sessiontoken.MintInput{Subject: "u1", Role: domainauth.RoleAdmin})
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "u1",
		"exp":      time.Now().Add(-time.Hour).Unix(),
		"metadata": map[string]any{"role": "admin"},
	}).SignedString(secret)
	require.NoError(t, err)

	for name, token := range map[string]string{"wrong key": wrongKey, "expired": expired, "garbage": "abc"} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/roles/check?role=admin", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			w := serve(h, r)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"role":"admin","has_role":false}`, w.Body.String())
		})
	}
}

func TestRouter_AuthStatus(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "trainer-sid"})
	w := serve(h, r)
	assert.Contains(t, w.Body.String(), `"role":"trainer"`)
}

func TestRouter_VisitCounter(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	visits := &MemoryVisitCounter{}
	h := NewTestRouter(t, svc, func(s *RouterServices) { s.Visits = visits })

	serve(h, browserGet("/"))
	w := serve(h, browserGet("/"))
	assert.Contains(t, w.Body.String(), "2 visits")
}

func TestRouter_VisitCounterThroughQueryClient(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	visits := &MemoryVisitCounter{}
	h := NewTestRouter(t, svc, func(s *RouterServices) {
		s.Visits = visits
		s.Query = query.NewClient(query.Options{})
	})

	serve(h, browserGet("/"))
	w := serve(h, browserGet("/"))
	// The read is served from the query cache while fresh; the counter itself still advances.
	assert.Contains(t, w.Body.String(), "1 visits")
	n, err := visits.Get(t.Context(), visitsCounterKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRouter_StaticAndHealth(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	h := NewTestRouter(t, svc, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/static/css/styles.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))

	w = serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CompressionAndMetrics(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	rec, err := metrics.NewRecorder("webshell_test")
	require.NoError(t, err)
	h := NewTestRouter(t, svc, func(s *RouterServices) {
		s.Compression = &CompressionConfig{MinSize: 256}
		s.Metrics = rec
	})

	r := browserGet("/admin", &http.Cookie{Name: "session_id", Value: "admin-sid"})
	r.Header.Set("Accept-Encoding", "gzip")
	w := serve(h, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "Admin dashboard")

	w = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `webshell_test_http_requests_total{method="GET",route="GET /admin",status="200"} 1`)
	assert.Contains(t, body, `webshell_test_role_checks_total{result="granted",role="admin"} 1`)
	assert.Contains(t, body, `webshell_test_page_renders_total`)
}
