package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandlerGET(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandlerHEAD(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler(rec, httptest.NewRequest(http.MethodHead, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHealthHandlers_Ready(t *testing.T) {
	ok := ReadinessCheck{Name: "postgres", Ping: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("dial tcp: refused") }}

	t.Run("all healthy", func(t *testing.T) {
		h := &HealthHandlers{Checks: []ReadinessCheck{ok}}
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("one failing", func(t *testing.T) {
		h := &HealthHandlers{Checks: []ReadinessCheck{ok, down}}
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unavailable", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok", "redis": "unavailable"}, body.Checks)
		assert.NotContains(t, rec.Body.String(), "refused")
	})

	t.Run("no checks", func(t *testing.T) {
		rec := httptest.NewRecorder()
		(&HealthHandlers{}).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
