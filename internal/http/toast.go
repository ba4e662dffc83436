package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/target/webshell/internal/http/ui/viewmodel"
)

const maxFlashToasts = 5

// SetFlash queues a toast to be shown on the next full page render.
func SetFlash(w http.ResponseWriter, r *http.Request, toasts ...viewmodel.Toast) {
	if len(toasts) == 0 {
		return
	}
	if len(toasts) > maxFlashToasts {
		toasts = toasts[:maxFlashToasts]
	}
	b, err := json.Marshal(toasts)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieFlash,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// PopFlash reads and clears queued toasts. Malformed cookies are dropped.
func PopFlash(w http.ResponseWriter, r *http.Request) []viewmodel.Toast {
	c, err := r.Cookie(cookieFlash)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: cookieFlash, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var toasts []viewmodel.Toast
	if err := json.Unmarshal(raw, &toasts); err != nil {
		return nil
	}
	out := toasts[:0]
	for _, t := range toasts {
		if t.Message != "" {
			out = append(out, t)
		}
	}
	if len(out) > maxFlashToasts {
		out = out[:maxFlashToasts]
	}
	return out
}
