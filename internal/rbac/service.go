package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrValidation indicates an administrative mutation violated an assignment
// invariant. The assignment is not written.
var ErrValidation = errors.New("rbac: validation failed")

// DecisionRecorder receives evaluation outcomes for observability. A nil
// recorder is valid and records nothing.
type DecisionRecorder interface {
	AuthzDecision(granted bool, source DecisionSource)
	AuthzStoreFailure()
}

// Service is the permission evaluator: it combines the role registry, the
// permission matrix and the assignment store into authorization decisions,
// and guards the administrative mutations on assignments.
//
// Evaluation is stateless and side-effect-free apart from the store fetch;
// concurrent checks need no coordination.
type Service struct {
	registry *Registry
	matrix   *Matrix
	store    AssignmentStore
	logger   *slog.Logger
	metrics  DecisionRecorder
	validate *validator.Validate
	now      func() time.Time
}

// ServiceParams groups the dependencies of a Service.
type ServiceParams struct {
	Registry *Registry
	Matrix   *Matrix
	Store    AssignmentStore
	Logger   *slog.Logger
	Metrics  DecisionRecorder
}

// NewService constructs the evaluator. The matrix is validated against the
// registry so a malformed policy fails at startup, not at decision time.
func NewService(p ServiceParams) (*Service, error) {
	if p.Registry == nil || p.Matrix == nil || p.Store == nil {
		return nil, errors.New("rbac: registry, matrix and store are required")
	}
	if err := p.Matrix.Validate(p.Registry); err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: p.Registry,
		matrix:   p.Matrix,
		store:    p.Store,
		logger:   logger,
		metrics:  p.Metrics,
		validate: validator.New(),
		now:      time.Now,
	}, nil
}

// Registry exposes the role catalog backing this service.
func (s *Service) Registry() *Registry { return s.registry }

// Matrix exposes the permission policy backing this service.
func (s *Service) Matrix() *Matrix { return s.matrix }

// activeAssignments fetches the user's active, scope-filtered assignments.
// The activity and scope invariants are re-checked in memory so the decision
// does not depend on the backing store applying them correctly.
func (s *Service) activeAssignments(ctx context.Context, userID uuid.UUID, filter ScopeFilter) ([]Assignment, error) {
	fetched, err := s.store.ActiveAssignments(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := fetched[:0]
	for _, a := range fetched {
		if a.ActiveAt(now) && a.Scope.MatchesFilter(filter) {
			active = append(active, a)
		}
	}
	return active, nil
}

// CheckPermission resolves whether a user may perform a permission within a
// scope. The result is pure data: a store failure is logged, counted and
// resolved to a deny, never surfaced as an error.
//
// All active assignments are evaluated; the highest candidate level wins,
// whether it comes from the matrix or a per-assignment override. The implicit
// requirement is view when the caller does not specify one.
func (s *Service) CheckPermission(ctx context.Context, userID uuid.UUID, permission string, opts CheckOptions) CheckResult {
	required := opts.RequiredLevel
	if required == "" {
		required = LevelView
	}

	assignments, err := s.activeAssignments(ctx, userID, opts.Scope)
	if err != nil {
		s.logger.Error("rbac check permission: assignment fetch failed, denying",
			slog.String("user_id", userID.String()),
			slog.String("permission", permission),
			slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.AuthzStoreFailure()
		}
		return s.record(deniedResult())
	}
	if len(assignments) == 0 {
		return s.record(deniedResult())
	}

	var (
		best       = LevelNone
		bestRole   Role
		bestSource = SourceDirect
		found      bool
	)
	for _, a := range assignments {
		role, err := s.registry.Get(a.Role)
		if err != nil {
			// A stored assignment referencing a role the process does not
			// know cannot grant anything.
			s.logger.Warn("rbac check permission: skipping assignment with unknown role",
				slog.String("assignment_id", a.ID.String()),
				slog.String("role", a.Role))
			continue
		}

		if role.CanHaveCustomPermission {
			if override, ok := a.CustomPermissions[permission]; ok {
				if !found || CompareLevels(override, best) > 0 {
					best, bestRole, bestSource, found = override, role, SourceCustom, true
				}
			}
		}

		level := s.matrix.AccessLevel(permission, role.Slug)
		if level != LevelNone && (!found || CompareLevels(level, best) > 0) {
			best, bestRole, bestSource, found = level, role, SourceDirect, true
		}
	}

	if !found || best == LevelNone {
		return s.record(deniedResult())
	}

	return s.record(CheckResult{
		Granted:   MeetsRequirement(best, required),
		Level:     best,
		RoleLevel: bestRole.Level,
		RoleName:  bestRole.Name,
		Source:    bestSource,
	})
}

func (s *Service) record(r CheckResult) CheckResult {
	if s.metrics != nil {
		s.metrics.AuthzDecision(r.Granted, r.Source)
	}
	return r
}

// HasPermission reports only the boolean of CheckPermission.
func (s *Service) HasPermission(ctx context.Context, userID uuid.UUID, permission string, opts CheckOptions) bool {
	return s.CheckPermission(ctx, userID, permission, opts).Granted
}

// UserPermissions merges every known permission across the user's active
// assignments, returning the non-none results. Used to render a capability
// summary; O(permissions x assignments), acceptable for both sets' sizes.
func (s *Service) UserPermissions(ctx context.Context, userID uuid.UUID, filter ScopeFilter) (map[string]AccessLevel, error) {
	assignments, err := s.activeAssignments(ctx, userID, filter)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AuthzStoreFailure()
		}
		return nil, fmt.Errorf("rbac: user permissions: %w", err)
	}

	merged := make(map[string]AccessLevel)
	for _, permission := range s.matrix.Permissions() {
		best := LevelNone
		for _, a := range assignments {
			role, err := s.registry.Get(a.Role)
			if err != nil {
				continue
			}
			if role.CanHaveCustomPermission {
				if override, ok := a.CustomPermissions[permission]; ok {
					best = MergeLevels(best, override)
				}
			}
			best = MergeLevels(best, s.matrix.AccessLevel(permission, role.Slug))
		}
		if best != LevelNone {
			merged[permission] = best
		}
	}
	return merged, nil
}

// HasRole reports whether the user holds an active assignment of the role
// within the filtered scope. Store failures resolve to false.
func (s *Service) HasRole(ctx context.Context, userID uuid.UUID, roleSlug string, filter ScopeFilter) bool {
	assignments, err := s.activeAssignments(ctx, userID, filter)
	if err != nil {
		s.logger.Error("rbac has role: assignment fetch failed, denying",
			slog.String("user_id", userID.String()), slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.AuthzStoreFailure()
		}
		return false
	}
	for _, a := range assignments {
		if a.Role == roleSlug {
			return true
		}
	}
	return false
}

// HighestRoleLevel returns the strongest (numerically lowest) role level the
// user holds in the filtered scope, or 999 when the user holds nothing.
func (s *Service) HighestRoleLevel(ctx context.Context, userID uuid.UUID, filter ScopeFilter) int {
	assignments, err := s.activeAssignments(ctx, userID, filter)
	if err != nil {
		s.logger.Error("rbac highest role level: assignment fetch failed",
			slog.String("user_id", userID.String()), slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.AuthzStoreFailure()
		}
		return noGrantRoleLevel
	}
	highest := noGrantRoleLevel
	for _, a := range assignments {
		role, err := s.registry.Get(a.Role)
		if err != nil {
			continue
		}
		if role.Level < highest {
			highest = role.Level
		}
	}
	return highest
}

// HasRoleLevel reports whether the user holds a role at or above the given
// authority level (lower number means more authority).
func (s *Service) HasRoleLevel(ctx context.Context, userID uuid.UUID, maximumLevel int, filter ScopeFilter) bool {
	return s.HighestRoleLevel(ctx, userID, filter) <= maximumLevel
}

// AssignRoleInput carries everything needed to grant a role.
type AssignRoleInput struct {
	UserID      uuid.UUID `validate:"required"`
	RoleSlug    string    `validate:"required"`
	WorkspaceID uuid.UUID `validate:"required"`

	OrganizationID *uuid.UUID
	ProjectID      *uuid.UUID
	TeamID         *uuid.UUID
	DepartmentID   *uuid.UUID

	ValidFrom  *time.Time
	ValidUntil *time.Time

	CustomPermissions map[string]AccessLevel

	AssignedBy *uuid.UUID
	Notes      string `validate:"max=2000"`
}

// AssignRole validates and persists a new role assignment.
func (s *Service) AssignRole(ctx context.Context, input AssignRoleInput) (Assignment, error) {
	if err := s.validate.Struct(input); err != nil {
		return Assignment{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	role, err := s.registry.Get(input.RoleSlug)
	if err != nil {
		return Assignment{}, err
	}
	if input.ValidUntil != nil {
		if !role.CanBeTimeLimited {
			return Assignment{}, fmt.Errorf("%w: role %q cannot be time limited", ErrValidation, role.Slug)
		}
		if !input.ValidUntil.After(s.now()) {
			return Assignment{}, fmt.Errorf("%w: valid_until must be in the future", ErrValidation)
		}
		if input.ValidFrom != nil && !input.ValidUntil.After(*input.ValidFrom) {
			return Assignment{}, fmt.Errorf("%w: valid_until must be after valid_from", ErrValidation)
		}
	}
	if err := s.validateCustomPermissions(role, input.CustomPermissions); err != nil {
		return Assignment{}, err
	}

	now := s.now()
	validFrom := now
	if input.ValidFrom != nil {
		validFrom = *input.ValidFrom
	}
	assignment := Assignment{
		ID:     uuid.New(),
		UserID: input.UserID,
		Role:   role.Slug,
		Scope: AssignmentScope{
			WorkspaceID:    input.WorkspaceID,
			OrganizationID: input.OrganizationID,
			ProjectID:      input.ProjectID,
			TeamID:         input.TeamID,
			DepartmentID:   input.DepartmentID,
		},
		ValidFrom:         validFrom,
		ValidUntil:        input.ValidUntil,
		IsActive:          true,
		CustomPermissions: input.CustomPermissions,
		AssignedBy:        input.AssignedBy,
		Notes:             input.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.InsertAssignment(ctx, assignment); err != nil {
		return Assignment{}, err
	}
	s.audit(ctx, AuditAssigned, assignment, input.AssignedBy, input.Notes)
	return assignment, nil
}

// RemoveRole soft-deletes an assignment. Rows are never hard-deleted; the
// inactive row stays behind as audit trail.
func (s *Service) RemoveRole(ctx context.Context, assignmentID uuid.UUID, removedBy *uuid.UUID) error {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	inactive := false
	if err := s.store.UpdateAssignment(ctx, assignmentID, AssignmentPatch{IsActive: &inactive}); err != nil {
		return err
	}
	s.audit(ctx, AuditRemoved, assignment, removedBy, "")
	return nil
}

// UpdateAssignment applies an administrative patch after re-validating the
// role's invariants against the new values.
func (s *Service) UpdateAssignment(ctx context.Context, assignmentID uuid.UUID, patch AssignmentPatch, performedBy *uuid.UUID) error {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	role, err := s.registry.Get(assignment.Role)
	if err != nil {
		return err
	}
	if patch.ValidUntil != nil && !role.CanBeTimeLimited {
		return fmt.Errorf("%w: role %q cannot be time limited", ErrValidation, role.Slug)
	}
	if patch.CustomPermissions != nil {
		if err := s.validateCustomPermissions(role, patch.CustomPermissions); err != nil {
			return err
		}
	}
	if err := s.store.UpdateAssignment(ctx, assignmentID, patch); err != nil {
		return err
	}
	s.audit(ctx, AuditModified, assignment, performedBy, "")
	return nil
}

// SweepExpired deactivates every assignment whose expiry has passed and
// audits each transition. Returns the number of rows affected.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, a := range expired {
		s.audit(ctx, AuditExpired, a, nil, "")
	}
	return len(expired), nil
}

func (s *Service) validateCustomPermissions(role Role, perms map[string]AccessLevel) error {
	if len(perms) == 0 {
		return nil
	}
	if !role.CanHaveCustomPermission {
		return fmt.Errorf("%w: role %q cannot carry custom permissions", ErrValidation, role.Slug)
	}
	for key, level := range perms {
		if !s.matrix.Has(key) {
			return fmt.Errorf("%w: unknown permission %q in custom permissions", ErrValidation, key)
		}
		if !level.Valid() {
			return fmt.Errorf("%w: invalid access level %q for permission %q", ErrValidation, level, key)
		}
	}
	return nil
}

// audit records a lifecycle event. Audit write failures are logged and do
// not roll back the mutation they describe.
func (s *Service) audit(ctx context.Context, action AuditAction, assignment Assignment, performedBy *uuid.UUID, notes string) {
	entry := AuditEntry{
		ID:           uuid.New(),
		Action:       action,
		AssignmentID: assignment.ID,
		UserID:       assignment.UserID,
		Role:         assignment.Role,
		PerformedBy:  performedBy,
		Notes:        notes,
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Warn("rbac audit append failed",
			slog.String("action", string(action)),
			slog.String("assignment_id", assignment.ID.String()),
			slog.Any("error", err))
	}
}
