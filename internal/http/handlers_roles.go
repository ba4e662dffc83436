package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/webshell/internal/domain/auth"
)

var errUnknownRole = errors.New("role must be admin or trainer")

// RoleHandlers exposes role checks to client-side code.
type RoleHandlers struct {
	Checker RoleChecker
	Logger  *slog.Logger
}

type roleCheckResponse struct {
	Role    string `json:"role"`
	HasRole bool   `json:"has_role"`
}

// Check reports whether the caller holds the requested role.
// GET /api/roles/check?role=admin. Anonymous callers get has_role=false.
func (h *RoleHandlers) Check(w http.ResponseWriter, r *http.Request) {
	role, valid := domainauth.ParseRole(r.URL.Query().Get("role"))
	if !valid {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_role", Err: errUnknownRole})
		return
	}

	ok, err := h.Checker.CheckRole(r.Context(), role)
	if err != nil {
		if h.Logger != nil {
			h.Logger.ErrorContext(r.Context(), "role check failed", slog.String("role", role.String()), slog.Any("error", err))
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "role_check_failed",
			Err:     errors.New("unable to verify role"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, roleCheckResponse{Role: role.String(), HasRole: ok})
}
