package rbac

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentScope anchors an assignment to concrete workspace structures.
// A nil anchor means the grant applies across that whole scope class; the
// matching rule lives in MatchesFilter rather than being scattered through
// store queries.
type AssignmentScope struct {
	WorkspaceID    uuid.UUID
	OrganizationID *uuid.UUID
	ProjectID      *uuid.UUID
	TeamID         *uuid.UUID
	DepartmentID   *uuid.UUID
}

// ScopeFilter narrows an evaluation to a workspace slice. Nil fields impose
// no constraint.
type ScopeFilter struct {
	WorkspaceID    *uuid.UUID
	OrganizationID *uuid.UUID
	ProjectID      *uuid.UUID
	TeamID         *uuid.UUID
}

// MatchesFilter reports whether the scope satisfies a filter. Each filter
// dimension matches when it is unset, when the anchor equals it, or when the
// anchor is nil (a scope-wide grant applies to every instance).
func (s AssignmentScope) MatchesFilter(f ScopeFilter) bool {
	if f.WorkspaceID != nil && s.WorkspaceID != *f.WorkspaceID {
		return false
	}
	return matchAnchor(s.OrganizationID, f.OrganizationID) &&
		matchAnchor(s.ProjectID, f.ProjectID) &&
		matchAnchor(s.TeamID, f.TeamID)
}

func matchAnchor(anchor, want *uuid.UUID) bool {
	if want == nil || anchor == nil {
		return true
	}
	return *anchor == *want
}

// Assignment is one grant of one role to one user within one scope instance.
// Assignments are soft-deleted only; the row doubles as the audit trail.
type Assignment struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   string
	Scope  AssignmentScope

	ValidFrom  time.Time
	ValidUntil *time.Time
	IsActive   bool

	CustomPermissions map[string]AccessLevel

	AssignedBy *uuid.UUID
	Notes      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt reports whether the assignment grants anything at the given
// instant: switched on, past its start, and not yet expired.
func (a Assignment) ActiveAt(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if !a.ValidFrom.IsZero() && now.Before(a.ValidFrom) {
		return false
	}
	if a.ValidUntil != nil && !now.Before(*a.ValidUntil) {
		return false
	}
	return true
}

// DecisionSource records where the winning grant of a check came from.
type DecisionSource string

const (
	// SourceDirect marks a grant taken from the permission matrix.
	SourceDirect DecisionSource = "direct"
	// SourceCustom marks a grant taken from a per-assignment override.
	SourceCustom DecisionSource = "custom"
)

// CheckOptions tunes a permission check. The zero value requires view-level
// access with no scope constraint.
type CheckOptions struct {
	RequiredLevel AccessLevel
	Scope         ScopeFilter
}

// CheckResult is a full authorization decision. It is pure data: evaluation
// never surfaces errors to callers, store failures resolve to a deny.
type CheckResult struct {
	Granted   bool           `json:"granted"`
	Level     AccessLevel    `json:"level"`
	RoleLevel int            `json:"role_level"`
	RoleName  string         `json:"role_name"`
	Source    DecisionSource `json:"source"`
}

// noGrantRoleLevel is reported when no role contributed to a decision.
const noGrantRoleLevel = 999

func deniedResult() CheckResult {
	return CheckResult{
		Granted:   false,
		Level:     LevelNone,
		RoleLevel: noGrantRoleLevel,
		RoleName:  "None",
		Source:    SourceDirect,
	}
}

// AuditAction enumerates recorded assignment lifecycle events.
type AuditAction string

const (
	AuditAssigned AuditAction = "assigned"
	AuditRemoved  AuditAction = "removed"
	AuditModified AuditAction = "modified"
	AuditExpired  AuditAction = "expired"
)

// AuditEntry is one immutable row in the role audit log.
type AuditEntry struct {
	ID           uuid.UUID
	Action       AuditAction
	AssignmentID uuid.UUID
	UserID       uuid.UUID
	Role         string
	PerformedBy  *uuid.UUID
	Notes        string
	CreatedAt    time.Time
}
