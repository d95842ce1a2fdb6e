package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/service"
	"github.com/sellora/identity/pkg/httputil"
	"github.com/sellora/identity/pkg/pagination"
	"github.com/sellora/identity/pkg/validator"
)

// AdminHandler handles HTTP requests for administrative user management.
type AdminHandler struct {
	accounts *service.AccountService
	sessions *service.SessionService
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(accounts *service.AccountService, sessions *service.SessionService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, sessions: sessions, logger: logger}
}

// --- Request DTOs ---

// BanRequest is the JSON request body for banning a user. An absent expiry
// means the ban is permanent.
type BanRequest struct {
	Reason    string     `json:"reason" validate:"required,min=1,max=500"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SetRoleRequest is the JSON request body for changing a user's system role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user member admin owner super_admin"`
}

// StopImpersonationRequest identifies the impersonation session to revoke.
type StopImpersonationRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Handlers ---

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	users, total, err := h.accounts.ListUsers(r.Context(), params.PerPage, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(users, total, params),
	})
}

// GetUser handles GET /api/v1/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), pathParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// BanUser handles POST /api/v1/admin/users/{id}/ban
func (h *AdminHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p := PrincipalFromContext(r.Context())
	if err := h.accounts.Ban(r.Context(), p.User, pathParam(r, "id"), service.BanInput{
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
	}); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "user banned"},
	})
}

// UnbanUser handles POST /api/v1/admin/users/{id}/unban
func (h *AdminHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.accounts.Unban(r.Context(), p.User, pathParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "user unbanned"},
	})
}

// SetRole handles POST /api/v1/admin/users/{id}/role
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p := PrincipalFromContext(r.Context())
	if err := h.accounts.SetSystemRole(r.Context(), p.User, pathParam(r, "id"), domain.SystemRole(req.Role)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "role updated"},
	})
}

// StopImpersonation handles POST /api/v1/admin/impersonation/stop
func (h *AdminHandler) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req StopImpersonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p := PrincipalFromContext(r.Context())
	if err := h.sessions.StopImpersonating(r.Context(), p.User, req.Token); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "impersonation session revoked"},
	})
}

// Impersonate handles POST /api/v1/admin/users/{id}/impersonate
func (h *AdminHandler) Impersonate(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	session, err := h.sessions.Impersonate(r.Context(), p.User, pathParam(r, "id"), requestContext(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// The impersonation token is returned in the body rather than as a
	// cookie so the admin's own session stays intact in their browser.
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]any{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	}})
}
