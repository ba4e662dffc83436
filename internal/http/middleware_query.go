package httpx

import (
	"net/http"

	"github.com/target/webshell/internal/query"
)

// QueryContext makes the application query client available to handlers via query.FromContext.
func QueryContext(client *query.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if client == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(query.WithClient(r.Context(), client)))
		})
	}
}
