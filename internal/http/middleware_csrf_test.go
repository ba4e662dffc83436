package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seen string
	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCSRFToken(r)
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestCSRFProtection_IssuesTokenOnGet(t *testing.T) {
	h, seen := csrfHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, DefaultCSRFCookieName, c.Name)
	assert.False(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, c.Value, *seen)
}

func TestCSRFProtection_ReusesExistingCookie(t *testing.T) {
	h, seen := csrfHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, "existing", *seen)
}

func TestCSRFProtection_SecureBehindProxy(t *testing.T) {
	h, _ := csrfHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "http, https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, rec.Result().Cookies(), 1)
	assert.True(t, rec.Result().Cookies()[0].Secure)
}

func TestCSRFProtection_Post(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *http.Request
		status int
	}{
		{
			name:   "no cookie",
			build:  func() *http.Request { return httptest.NewRequest(http.MethodPost, "/theme", nil) },
			status: http.StatusForbidden,
		},
		{
			name: "cookie without submitted token",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/theme", nil)
				r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "header matches",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/theme", nil)
				r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				r.Header.Set(DefaultCSRFHeaderName, "tok")
				return r
			},
			status: http.StatusOK,
		},
		{
			name: "header mismatch",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/theme", nil)
				r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				r.Header.Set(DefaultCSRFHeaderName, "other")
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "form field matches",
			build: func() *http.Request {
				form := url.Values{"csrf_token": {"tok"}, "theme": {"dark"}}
				r := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				return r
			},
			status: http.StatusOK,
		},
		{
			name: "form field ignored for json bodies",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(`{"csrf_token":"tok"}`))
				r.Header.Set("Content-Type", "application/json")
				r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				return r
			},
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := csrfHandler(t)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.build())
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCSRFProtection_SafeMethodsExempt(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		h, _ := csrfHandler(t)
		req := httptest.NewRequest(m, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, m)
	}
}

func TestGetCSRFToken_NoToken(t *testing.T) {
	assert.Empty(t, GetCSRFToken(httptest.NewRequest(http.MethodGet, "/", nil)))
}
