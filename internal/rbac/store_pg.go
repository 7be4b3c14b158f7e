package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const assignmentColumns = `id, user_id, role_slug, workspace_id, organization_id, project_id, team_id,
	department_id, valid_from, valid_until, is_active, custom_permissions, assigned_by, notes,
	created_at, updated_at`

// PGStore provides PostgreSQL backed persistence for role assignments.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a store over the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// ActiveAssignments returns active, non-expired assignments for a user,
// narrowed by the scope filter. Anchor filters match rows whose anchor equals
// the requested id or is null (scope-wide grants).
func (s *PGStore) ActiveAssignments(ctx context.Context, userID uuid.UUID, filter ScopeFilter) ([]Assignment, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + assignmentColumns + ` FROM role_assignments
	WHERE user_id = $1
	  AND is_active
	  AND valid_from <= now()
	  AND (valid_until IS NULL OR valid_until > now())`)
	args := []any{userID}

	if filter.WorkspaceID != nil {
		args = append(args, *filter.WorkspaceID)
		sb.WriteString(" AND workspace_id = $" + strconv.Itoa(len(args)))
	}
	for _, anchor := range []struct {
		column string
		id     *uuid.UUID
	}{
		{"organization_id", filter.OrganizationID},
		{"project_id", filter.ProjectID},
		{"team_id", filter.TeamID},
	} {
		if anchor.id == nil {
			continue
		}
		args = append(args, *anchor.id)
		n := strconv.Itoa(len(args))
		sb.WriteString(" AND (" + anchor.column + " = $" + n + " OR " + anchor.column + " IS NULL)")
	}
	sb.WriteString(" ORDER BY created_at")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("rbac: query active assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: iterate assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignment fetches one row by id.
func (s *PGStore) GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+assignmentColumns+` FROM role_assignments WHERE id = $1`, id)
	if err != nil {
		return Assignment{}, fmt.Errorf("rbac: get assignment: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Assignment{}, fmt.Errorf("rbac: get assignment: %w", err)
		}
		return Assignment{}, ErrAssignmentNotFound
	}
	return scanAssignment(rows)
}

// InsertAssignment persists a new assignment row.
func (s *PGStore) InsertAssignment(ctx context.Context, a Assignment) error {
	custom, err := marshalCustomPermissions(a.CustomPermissions)
	if err != nil {
		return err
	}
	validFrom := a.ValidFrom
	if validFrom.IsZero() {
		validFrom = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO role_assignments
		(id, user_id, role_slug, workspace_id, organization_id, project_id, team_id, department_id,
		 valid_from, valid_until, is_active, custom_permissions, assigned_by, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, $11, $12, $13, now(), now())`,
		a.ID, a.UserID, a.Role, a.Scope.WorkspaceID, a.Scope.OrganizationID, a.Scope.ProjectID,
		a.Scope.TeamID, a.Scope.DepartmentID, validFrom, a.ValidUntil, custom, a.AssignedBy, a.Notes)
	if err != nil {
		return fmt.Errorf("rbac: insert assignment: %w", err)
	}
	return nil
}

// UpdateAssignment applies a partial patch to one row. Assignments are never
// deleted; removal is an is_active flip recorded here.
func (s *PGStore) UpdateAssignment(ctx context.Context, id uuid.UUID, patch AssignmentPatch) error {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	if patch.IsActive != nil {
		args = append(args, *patch.IsActive)
		sets = append(sets, "is_active = $"+strconv.Itoa(len(args)))
	}
	switch {
	case patch.ClearValidUntil:
		sets = append(sets, "valid_until = NULL")
	case patch.ValidUntil != nil:
		args = append(args, *patch.ValidUntil)
		sets = append(sets, "valid_until = $"+strconv.Itoa(len(args)))
	}
	if patch.CustomPermissions != nil {
		custom, err := marshalCustomPermissions(patch.CustomPermissions)
		if err != nil {
			return err
		}
		args = append(args, custom)
		sets = append(sets, "custom_permissions = $"+strconv.Itoa(len(args)))
	}
	if patch.Notes != nil {
		args = append(args, *patch.Notes)
		sets = append(sets, "notes = $"+strconv.Itoa(len(args)))
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE role_assignments SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
	if err != nil {
		return fmt.Errorf("rbac: update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// DeactivateExpired flips off assignments whose expiry has passed and
// returns them so callers can audit the transition.
func (s *PGStore) DeactivateExpired(ctx context.Context, now time.Time) ([]Assignment, error) {
	rows, err := s.pool.Query(ctx, `UPDATE role_assignments
		SET is_active = false, updated_at = now()
		WHERE is_active AND valid_until IS NOT NULL AND valid_until <= $1
		RETURNING `+assignmentColumns, now)
	if err != nil {
		return nil, fmt.Errorf("rbac: deactivate expired: %w", err)
	}
	defer rows.Close()

	var expired []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: deactivate expired: %w", err)
	}
	return expired, nil
}

// AppendAudit records one audit log entry.
func (s *PGStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO role_audit_log
		(id, action, assignment_id, user_id, role_slug, performed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		entry.ID, entry.Action, entry.AssignmentID, entry.UserID, entry.Role, entry.PerformedBy, entry.Notes)
	if err != nil {
		return fmt.Errorf("rbac: append audit: %w", err)
	}
	return nil
}

func scanAssignment(rows pgx.Rows) (Assignment, error) {
	var (
		a      Assignment
		custom []byte
	)
	if err := rows.Scan(&a.ID, &a.UserID, &a.Role, &a.Scope.WorkspaceID, &a.Scope.OrganizationID,
		&a.Scope.ProjectID, &a.Scope.TeamID, &a.Scope.DepartmentID, &a.ValidFrom, &a.ValidUntil,
		&a.IsActive, &custom, &a.AssignedBy, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Assignment{}, fmt.Errorf("rbac: scan assignment: %w", err)
	}
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &a.CustomPermissions); err != nil {
			return Assignment{}, fmt.Errorf("rbac: decode custom permissions: %w", err)
		}
	}
	return a, nil
}

func marshalCustomPermissions(perms map[string]AccessLevel) ([]byte, error) {
	if len(perms) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(perms)
	if err != nil {
		return nil, fmt.Errorf("rbac: encode custom permissions: %w", err)
	}
	return data, nil
}

var _ AssignmentStore = (*PGStore)(nil)
