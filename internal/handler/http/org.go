package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/service"
	"github.com/sellora/identity/pkg/httputil"
	"github.com/sellora/identity/pkg/pagination"
	"github.com/sellora/identity/pkg/validator"
)

// OrgHandler handles HTTP requests for organization endpoints.
type OrgHandler struct {
	orgs   *service.OrganizationService
	logger *slog.Logger
}

// NewOrgHandler creates a new organization HTTP handler.
func NewOrgHandler(orgs *service.OrganizationService, logger *slog.Logger) *OrgHandler {
	return &OrgHandler{orgs: orgs, logger: logger}
}

// --- Request DTOs ---

// CreateOrganizationRequest is the JSON request body for creating a tenant.
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	Slug string `json:"slug,omitempty" validate:"omitempty,min=3,max=63"`
}

// UpdateOrganizationRequest is the JSON request body for a partial tenant
// update. The slug is fixed at creation and cannot be changed here.
type UpdateOrganizationRequest struct {
	Name     *string           `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// InviteRequest is the JSON request body for inviting a member.
type InviteRequest struct {
	Email  string `json:"email" validate:"required,email"`
	RoleID string `json:"role_id" validate:"required,uuid"`
}

// UpdateMemberRequest is the JSON request body for changing a member's role or
// enabled flag. Nil fields are left untouched.
type UpdateMemberRequest struct {
	RoleID  *string `json:"role_id,omitempty" validate:"omitempty,uuid"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// CreateRoleRequest is the JSON request body for creating a custom role.
type CreateRoleRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=50"`
	Permissions json.RawMessage `json:"permissions" validate:"required"`
	Position    int             `json:"position" validate:"gte=0"`
}

// UpdateRoleRequest is the JSON request body for updating a custom role.
type UpdateRoleRequest struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Permissions json.RawMessage `json:"permissions,omitempty"`
	Position    *int            `json:"position,omitempty" validate:"omitempty,gte=0"`
}

// --- Organization lifecycle ---

// Create handles POST /api/v1/orgs
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateOrganizationRequest
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
	org, err := h.orgs.CreateOrganization(r.Context(), p.User, service.CreateOrganizationInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: org})
}

// Get handles GET /api/v1/orgs/{orgId}
func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	org, err := h.orgs.GetOrganization(r.Context(), p.User, pathParam(r, "orgId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: org})
}

// Update handles PATCH /api/v1/orgs/{orgId}
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateOrganizationRequest
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
	org, err := h.orgs.UpdateOrganization(r.Context(), p.User, pathParam(r, "orgId"), service.UpdateOrganizationInput{
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: org})
}

// Delete handles DELETE /api/v1/orgs/{orgId}
func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.orgs.DeleteOrganization(r.Context(), p.User, pathParam(r, "orgId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "organization deleted"},
	})
}

// --- Invitations ---

// Invite handles POST /api/v1/orgs/{orgId}/invitations
func (h *OrgHandler) Invite(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req InviteRequest
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
	invitation, err := h.orgs.Invite(r.Context(), p.User, pathParam(r, "orgId"), service.InviteInput{
		Identifier: req.Email,
		RoleID:     req.RoleID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: invitation})
}

// ListInvitations handles GET /api/v1/orgs/{orgId}/invitations
func (h *OrgHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	invitations, err := h.orgs.ListInvitations(r.Context(), p.User, pathParam(r, "orgId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: invitations})
}

// CancelInvitation handles DELETE /api/v1/orgs/{orgId}/invitations/{id}
func (h *OrgHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.orgs.CancelInvitation(r.Context(), p.User, pathParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "invitation canceled"},
	})
}

// AcceptInvitation handles POST /api/v1/invitations/{id}/accept
func (h *OrgHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	member, err := h.orgs.AcceptInvitation(r.Context(), p.User, pathParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: member})
}

// RejectInvitation handles POST /api/v1/invitations/{id}/reject
func (h *OrgHandler) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.orgs.RejectInvitation(r.Context(), p.User, pathParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "invitation rejected"},
	})
}

// --- Members ---

// ListMembers handles GET /api/v1/orgs/{orgId}/members
func (h *OrgHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	params := pagination.FromRequest(r)

	members, total, err := h.orgs.ListMembers(r.Context(), p.User, pathParam(r, "orgId"), params.PerPage, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(members, total, params),
	})
}

// UpdateMember handles PATCH /api/v1/orgs/{orgId}/members/{id}
func (h *OrgHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateMemberRequest
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
	orgID := pathParam(r, "orgId")
	memberID := pathParam(r, "id")

	var member *domain.Member
	var err error
	switch {
	case req.RoleID != nil:
		member, err = h.orgs.UpdateMemberRole(r.Context(), p.User, orgID, memberID, *req.RoleID)
	case req.Enabled != nil:
		member, err = h.orgs.SetMemberEnabled(r.Context(), p.User, orgID, memberID, *req.Enabled)
	default:
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "either role_id or enabled must be provided"},
		})
		return
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: member})
}

// RemoveMember handles DELETE /api/v1/orgs/{orgId}/members/{id}
func (h *OrgHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.orgs.RemoveMember(r.Context(), p.User, pathParam(r, "orgId"), pathParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "member removed"},
	})
}

// Leave handles POST /api/v1/orgs/{orgId}/leave
func (h *OrgHandler) Leave(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.orgs.LeaveOrganization(r.Context(), p.User, pathParam(r, "orgId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "left organization"},
	})
}

// --- Roles ---

// ListRoles handles GET /api/v1/orgs/{orgId}/roles
func (h *OrgHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	roles, err := h.orgs.ListRoles(r.Context(), p.User, pathParam(r, "orgId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: roles})
}

// CreateRole handles POST /api/v1/orgs/{orgId}/roles
func (h *OrgHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateRoleRequest
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

	var permissions domain.PermissionDocument
	if err := json.Unmarshal(req.Permissions, &permissions); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	p := PrincipalFromContext(r.Context())
	role, err := h.orgs.CreateRole(r.Context(), p.User, pathParam(r, "orgId"), service.CreateRoleInput{
		Name:        req.Name,
		Permissions: permissions,
		Position:    req.Position,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: role})
}

// UpdateRole handles PATCH /api/v1/orgs/{orgId}/roles/{id}
func (h *OrgHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateRoleRequest
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

	input := service.UpdateRoleInput{
		Name:     req.Name,
		Position: req.Position,
	}
	if len(req.Permissions) > 0 {
		var permissions domain.PermissionDocument
		if err := json.Unmarshal(req.Permissions, &permissions); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
			})
			return
		}
		input.Permissions = &permissions
	}

	p := PrincipalFromContext(r.Context())
	role, err := h.orgs.UpdateRole(r.Context(), p.User, pathParam(r, "orgId"), pathParam(r, "id"), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: role})
}

// DeleteRole handles DELETE /api/v1/orgs/{orgId}/roles/{id}
func (h *OrgHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.orgs.DeleteRole(r.Context(), p.User, pathParam(r, "orgId"), pathParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "role deleted"},
	})
}
