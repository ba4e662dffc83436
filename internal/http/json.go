package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/target/webshell/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Client went away; nothing to recover.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteAppError maps err to a status code via its AppError code and writes it as JSON.
// Errors without a code are reported as internal errors without leaking their text.
func WriteAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	code := string(apperrors.GetCode(err))
	if code == "" || status == http.StatusInternalServerError {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal_error",
			"message": http.StatusText(http.StatusInternalServerError),
		})
		return
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: err})
}
