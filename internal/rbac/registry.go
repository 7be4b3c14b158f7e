package rbac

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownRole indicates a role slug absent from the registry. Hitting it
// is a programming error, not a business condition.
var ErrUnknownRole = errors.New("rbac: unknown role")

// RoleScope classifies the organizational boundary a role operates in.
type RoleScope string

const (
	ScopePlatform     RoleScope = "platform"
	ScopeOrganization RoleScope = "organization"
	ScopeProject      RoleScope = "project"
	ScopeTeam         RoleScope = "team"
	ScopeCustom       RoleScope = "custom"
)

// Role describes one entry in the static role catalog. Roles are defined at
// process start and never mutated.
type Role struct {
	Slug                    string
	Name                    string
	Description             string
	Level                   int
	Scope                   RoleScope
	CanBeTimeLimited        bool
	CanHaveCustomPermission bool
}

// Registry is the immutable catalog of roles. Construct it once with
// NewRegistry and share it freely; all methods are safe for concurrent use.
type Registry struct {
	bySlug  map[string]Role
	ordered []Role
}

// NewRegistry builds a registry from a role list. Duplicate slugs and
// duplicate levels are rejected so the authority order stays total.
func NewRegistry(roles []Role) (*Registry, error) {
	bySlug := make(map[string]Role, len(roles))
	byLevel := make(map[int]string, len(roles))
	for _, role := range roles {
		if role.Slug == "" {
			return nil, errors.New("rbac: role slug required")
		}
		if _, ok := bySlug[role.Slug]; ok {
			return nil, fmt.Errorf("rbac: duplicate role slug %q", role.Slug)
		}
		if prev, ok := byLevel[role.Level]; ok {
			return nil, fmt.Errorf("rbac: roles %q and %q share level %d", prev, role.Slug, role.Level)
		}
		bySlug[role.Slug] = role
		byLevel[role.Level] = role.Slug
	}

	ordered := make([]Role, 0, len(roles))
	for _, role := range bySlug {
		ordered = append(ordered, role)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Level < ordered[j].Level })

	return &Registry{bySlug: bySlug, ordered: ordered}, nil
}

// Get returns the role for a slug.
func (r *Registry) Get(slug string) (Role, error) {
	role, ok := r.bySlug[slug]
	if !ok {
		return Role{}, fmt.Errorf("%w: %q", ErrUnknownRole, slug)
	}
	return role, nil
}

// Has reports whether a slug is defined.
func (r *Registry) Has(slug string) bool {
	_, ok := r.bySlug[slug]
	return ok
}

// All returns every role ordered by ascending level (strongest first).
func (r *Registry) All() []Role {
	out := make([]Role, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// InScope returns the roles belonging to one scope class, ordered by level.
func (r *Registry) InScope(scope RoleScope) []Role {
	var out []Role
	for _, role := range r.ordered {
		if role.Scope == scope {
			out = append(out, role)
		}
	}
	return out
}

// LevelOf returns the authority level for a slug.
func (r *Registry) LevelOf(slug string) (int, error) {
	role, err := r.Get(slug)
	if err != nil {
		return 0, err
	}
	return role.Level, nil
}

// CompareRoles orders two roles by authority: negative when a outranks b
// (lower level number wins), zero when equal, positive otherwise.
func (r *Registry) CompareRoles(a, b string) (int, error) {
	ra, err := r.Get(a)
	if err != nil {
		return 0, err
	}
	rb, err := r.Get(b)
	if err != nil {
		return 0, err
	}
	switch {
	case ra.Level < rb.Level:
		return -1, nil
	case ra.Level > rb.Level:
		return 1, nil
	default:
		return 0, nil
	}
}

// IsHigher reports whether role a holds more authority than role b.
func (r *Registry) IsHigher(a, b string) (bool, error) {
	cmp, err := r.CompareRoles(a, b)
	if err != nil {
		return false, err
	}
	return cmp < 0, nil
}

// CanBeTimeLimited reports whether assignments of the role accept an expiry.
func (r *Registry) CanBeTimeLimited(slug string) (bool, error) {
	role, err := r.Get(slug)
	if err != nil {
		return false, err
	}
	return role.CanBeTimeLimited, nil
}

// CanHaveCustomPermissions reports whether assignments of the role accept
// per-assignment permission overrides.
func (r *Registry) CanHaveCustomPermissions(slug string) (bool, error) {
	role, err := r.Get(slug)
	if err != nil {
		return false, err
	}
	return role.CanHaveCustomPermission, nil
}
