package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/branded-hq/branded/internal/platform/httpx"
	"github.com/branded-hq/branded/internal/shared"
)

// Handler exposes the authorization core over JSON HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers the authorization API.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/authz", func(r chi.Router) {
		r.Post("/check", h.check)
		r.Get("/users/{userID}/permissions", h.userPermissions)
	})

	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.listRoles)
		r.Get("/{slug}", h.getRole)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAnyPermission("users.manage_permissions", "users.assign_roles"))
		r.Get("/permissions", h.listPermissions)
	})

	r.Route("/assignments", func(r chi.Router) {
		r.Use(h.mw.RequirePermission("users.assign_roles", LevelManage))
		r.Post("/", h.assignRole)
		r.Patch("/{assignmentID}", h.updateAssignment)
		r.Delete("/{assignmentID}", h.removeRole)
	})
}

type checkRequest struct {
	UserID         uuid.UUID  `json:"user_id"`
	Permission     string     `json:"permission"`
	RequiredLevel  string     `json:"required_level,omitempty"`
	WorkspaceID    *uuid.UUID `json:"workspace_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	ProjectID      *uuid.UUID `json:"project_id,omitempty"`
	TeamID         *uuid.UUID `json:"team_id,omitempty"`
}

// check returns a full authorization decision. The response is always a
// decision; backend trouble shows up as a deny, not a 5xx.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no principal")
		return
	}

	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if req.Permission == "" || req.UserID == uuid.Nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "user_id and permission are required")
		return
	}

	// Anyone may check their own access; inspecting someone else's requires
	// user-activity visibility.
	if req.UserID != principal.UserID &&
		!h.service.HasPermission(r.Context(), principal.UserID, "users.view_activity", CheckOptions{}) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "cannot check another user's access")
		return
	}

	opts := CheckOptions{Scope: ScopeFilter{
		WorkspaceID:    req.WorkspaceID,
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		TeamID:         req.TeamID,
	}}
	if req.RequiredLevel != "" {
		level, err := ParseAccessLevel(req.RequiredLevel)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
			return
		}
		opts.RequiredLevel = level
	}

	httpx.JSON(w, http.StatusOK, h.service.CheckPermission(r.Context(), req.UserID, req.Permission, opts))
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no principal")
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "userID must be a UUID")
		return
	}
	if userID != principal.UserID &&
		!h.service.HasPermission(r.Context(), principal.UserID, "users.view_activity", CheckOptions{}) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "cannot inspect another user's permissions")
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", err.Error())
		return
	}
	permissions, err := h.service.UserPermissions(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("user permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "permissions": permissions})
}

type roleResponse struct {
	Slug                    string    `json:"slug"`
	Name                    string    `json:"name"`
	Description             string    `json:"description"`
	Level                   int       `json:"level"`
	Scope                   RoleScope `json:"scope"`
	CanBeTimeLimited        bool      `json:"can_be_time_limited"`
	CanHaveCustomPermission bool      `json:"can_have_custom_permissions"`
}

func toRoleResponse(role Role) roleResponse {
	return roleResponse{
		Slug:                    role.Slug,
		Name:                    role.Name,
		Description:             role.Description,
		Level:                   role.Level,
		Scope:                   role.Scope,
		CanBeTimeLimited:        role.CanBeTimeLimited,
		CanHaveCustomPermission: role.CanHaveCustomPermission,
	}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.service.Registry().All()
	out := make([]roleResponse, len(roles))
	for i, role := range roles {
		out[i] = toRoleResponse(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	role, err := h.service.Registry().Get(slug)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown role")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":        toRoleResponse(role),
		"permissions": h.service.Matrix().RolePermissions(slug),
	})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	matrix := h.service.Matrix()
	type permissionRow struct {
		Permission string                 `json:"permission"`
		Levels     map[string]AccessLevel `json:"levels"`
	}
	keys := matrix.Permissions()
	rows := make([]permissionRow, len(keys))
	for i, key := range keys {
		rows[i] = permissionRow{Permission: key, Levels: matrix.Row(key)}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": rows})
}

type assignRequest struct {
	UserID         uuid.UUID              `json:"user_id"`
	RoleSlug       string                 `json:"role"`
	WorkspaceID    uuid.UUID              `json:"workspace_id"`
	OrganizationID *uuid.UUID             `json:"organization_id,omitempty"`
	ProjectID      *uuid.UUID             `json:"project_id,omitempty"`
	TeamID         *uuid.UUID             `json:"team_id,omitempty"`
	DepartmentID   *uuid.UUID             `json:"department_id,omitempty"`
	ValidFrom      *time.Time             `json:"valid_from,omitempty"`
	ValidUntil     *time.Time             `json:"valid_until,omitempty"`
	CustomPerms    map[string]AccessLevel `json:"custom_permissions,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	input := AssignRoleInput{
		UserID:            req.UserID,
		RoleSlug:          req.RoleSlug,
		WorkspaceID:       req.WorkspaceID,
		OrganizationID:    req.OrganizationID,
		ProjectID:         req.ProjectID,
		TeamID:            req.TeamID,
		DepartmentID:      req.DepartmentID,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		CustomPermissions: req.CustomPerms,
		Notes:             req.Notes,
	}
	if principal != nil {
		input.AssignedBy = &principal.UserID
	}
	assignment, err := h.service.AssignRole(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"assignment_id": assignment.ID})
}

type updateAssignmentRequest struct {
	IsActive        *bool                  `json:"is_active,omitempty"`
	ValidUntil      *time.Time             `json:"valid_until,omitempty"`
	ClearValidUntil bool                   `json:"clear_valid_until,omitempty"`
	CustomPerms     map[string]AccessLevel `json:"custom_permissions,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
}

func (h *Handler) updateAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := uuid.Parse(chi.URLParam(r, "assignmentID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "assignmentID must be a UUID")
		return
	}
	var req updateAssignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	patch := AssignmentPatch{
		IsActive:          req.IsActive,
		ValidUntil:        req.ValidUntil,
		ClearValidUntil:   req.ClearValidUntil,
		CustomPermissions: req.CustomPerms,
		Notes:             req.Notes,
	}
	var performedBy *uuid.UUID
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		performedBy = &principal.UserID
	}
	if err := h.service.UpdateAssignment(r.Context(), assignmentID, patch, performedBy); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignment_id": assignmentID})
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := uuid.Parse(chi.URLParam(r, "assignmentID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "assignmentID must be a UUID")
		return
	}
	var removedBy *uuid.UUID
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		removedBy = &principal.UserID
	}
	if err := h.service.RemoveRole(r.Context(), assignmentID, removedBy); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignment_id": assignmentID, "removed": true})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnknownRole):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAssignmentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("rbac handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func filterFromQuery(r *http.Request) (ScopeFilter, error) {
	var filter ScopeFilter
	for param, target := range map[string]**uuid.UUID{
		"workspace_id":    &filter.WorkspaceID,
		"organization_id": &filter.OrganizationID,
		"project_id":      &filter.ProjectID,
		"team_id":         &filter.TeamID,
	} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return ScopeFilter{}, errors.New(param + " must be a UUID")
		}
		*target = &id
	}
	return filter, nil
}
