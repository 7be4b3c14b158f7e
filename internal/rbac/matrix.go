package rbac

import (
	"fmt"
	"sort"
)

// Matrix is the authoritative permission policy: an immutable mapping from
// permission key to per-role access level. It is deliberately one flat table
// rather than per-role objects so the whole policy stays in a single
// auditable, diffable place and lookups stay O(1).
type Matrix struct {
	rows map[string]map[string]AccessLevel
	keys []string
}

// NewMatrix builds a matrix from raw rows. Row contents are copied; the
// input map may be discarded afterwards.
func NewMatrix(rows map[string]map[string]AccessLevel) *Matrix {
	copied := make(map[string]map[string]AccessLevel, len(rows))
	keys := make([]string, 0, len(rows))
	for permission, byRole := range rows {
		row := make(map[string]AccessLevel, len(byRole))
		for slug, level := range byRole {
			row[slug] = level
		}
		copied[permission] = row
		keys = append(keys, permission)
	}
	sort.Strings(keys)
	return &Matrix{rows: copied, keys: keys}
}

// Validate checks the completeness invariant against a role catalog: every
// permission row must carry a level for every registered role, reference only
// registered roles, and use only known levels.
func (m *Matrix) Validate(registry *Registry) error {
	roles := registry.All()
	for _, permission := range m.keys {
		row := m.rows[permission]
		for _, role := range roles {
			level, ok := row[role.Slug]
			if !ok {
				return fmt.Errorf("rbac: permission %q missing level for role %q", permission, role.Slug)
			}
			if !level.Valid() {
				return fmt.Errorf("rbac: permission %q has invalid level %q for role %q", permission, level, role.Slug)
			}
		}
		for slug := range row {
			if !registry.Has(slug) {
				return fmt.Errorf("rbac: permission %q references unknown role %q", permission, slug)
			}
		}
	}
	return nil
}

// AccessLevel returns the level granted to a role for a permission. Unknown
// permission/role pairs resolve to none, never an error.
func (m *Matrix) AccessLevel(permission, role string) AccessLevel {
	row, ok := m.rows[permission]
	if !ok {
		return LevelNone
	}
	level, ok := row[role]
	if !ok {
		return LevelNone
	}
	return level
}

// HasPermission reports whether a role holds any level above none.
func (m *Matrix) HasPermission(role, permission string) bool {
	return m.AccessLevel(permission, role) != LevelNone
}

// Has reports whether a permission key is defined.
func (m *Matrix) Has(permission string) bool {
	_, ok := m.rows[permission]
	return ok
}

// Permissions returns every permission key in sorted order.
func (m *Matrix) Permissions() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Row returns the full per-role level mapping for one permission.
func (m *Matrix) Row(permission string) map[string]AccessLevel {
	row, ok := m.rows[permission]
	if !ok {
		return nil
	}
	out := make(map[string]AccessLevel, len(row))
	for slug, level := range row {
		out[slug] = level
	}
	return out
}

// RolesWithPermission returns the slugs of every role granted the permission
// at any level above none, sorted for stable output.
func (m *Matrix) RolesWithPermission(permission string) []string {
	row, ok := m.rows[permission]
	if !ok {
		return nil
	}
	var slugs []string
	for slug, level := range row {
		if level != LevelNone {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs
}

// RolePermissions returns every permission the role holds above none, keyed
// by permission. Used to render a role's capability summary.
func (m *Matrix) RolePermissions(role string) map[string]AccessLevel {
	out := make(map[string]AccessLevel)
	for _, permission := range m.keys {
		if level := m.rows[permission][role]; level != LevelNone && level != "" {
			out[permission] = level
		}
	}
	return out
}
