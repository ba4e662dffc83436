package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/webshell/internal/http/ui/viewmodel"
)

func TestFlash_RoundTripAndClear(t *testing.T) {
	w := httptest.NewRecorder()
	SetFlash(w, httptest.NewRequest(http.MethodGet, "/", nil),
		viewmodel.Toast{Message: "Saved", Type: "success"},
		viewmodel.Toast{Message: ""},
	)
	c := findCookie(t, w, cookieFlash)
	require.NotNil(t, c)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	w2 := httptest.NewRecorder()
	toasts := PopFlash(w2, r)

	assert.Equal(t, []viewmodel.Toast{{Message: "Saved", Type: "success"}}, toasts)
	cleared := findCookie(t, w2, cookieFlash)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestFlash_Limits(t *testing.T) {
	many := make([]viewmodel.Toast, 0, 8)
	for i := range 8 {
		many = append(many, viewmodel.Toast{Message: fmt.Sprintf("t%d", i)})
	}
	w := httptest.NewRecorder()
	SetFlash(w, httptest.NewRequest(http.MethodGet, "/", nil), many...)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(findCookie(t, w, cookieFlash))
	assert.Len(t, PopFlash(httptest.NewRecorder(), r), maxFlashToasts)
}

func TestFlash_Malformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieFlash, Value: "!!not-base64"})
	assert.Empty(t, PopFlash(httptest.NewRecorder(), r))

	assert.Nil(t, PopFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestFlash_NothingToSet(t *testing.T) {
	w := httptest.NewRecorder()
	SetFlash(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, findCookie(t, w, cookieFlash))
}
