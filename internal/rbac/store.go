package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrAssignmentNotFound indicates the referenced assignment row is absent.
var ErrAssignmentNotFound = errors.New("rbac: assignment not found")

// AssignmentPatch describes a partial administrative update. Nil fields are
// left untouched; ClearValidUntil removes an existing expiry.
type AssignmentPatch struct {
	IsActive          *bool
	ValidUntil        *time.Time
	ClearValidUntil   bool
	CustomPermissions map[string]AccessLevel
	Notes             *string
}

// AssignmentStore is the persistence boundary the evaluator consumes. The
// core is agnostic to the backing technology; it needs filtering by user and
// activity plus equality-or-null matching on the scope anchors.
type AssignmentStore interface {
	// ActiveAssignments returns the user's currently active assignments
	// restricted by the scope filter.
	ActiveAssignments(ctx context.Context, userID uuid.UUID, filter ScopeFilter) ([]Assignment, error)

	// GetAssignment fetches one assignment row regardless of activity.
	GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error)

	// InsertAssignment persists a new assignment.
	InsertAssignment(ctx context.Context, a Assignment) error

	// UpdateAssignment applies a partial update to one row.
	UpdateAssignment(ctx context.Context, id uuid.UUID, patch AssignmentPatch) error

	// DeactivateExpired flips is_active off for rows whose expiry has
	// passed and returns the affected assignments.
	DeactivateExpired(ctx context.Context, now time.Time) ([]Assignment, error)

	// AppendAudit records one immutable audit log entry.
	AppendAudit(ctx context.Context, entry AuditEntry) error
}
