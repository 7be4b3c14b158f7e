package rbac

// Role slugs for the eleven platform roles, strongest to weakest.
const (
	RoleLegend     = "legend"
	RolePhantom    = "phantom"
	RoleAviator    = "aviator"
	RoleGladiator  = "gladiator"
	RoleNavigator  = "navigator"
	RoleDeviator   = "deviator"
	RoleRaider     = "raider"
	RoleMerchant   = "merchant"
	RoleVisitor    = "visitor"
	RolePassenger  = "passenger"
	RoleAmbassador = "ambassador"
)

// DefaultRoles returns the platform role catalog. Only the externally facing
// roles (merchant, visitor, passenger) accept time-limited assignments, and
// only visitor accepts per-assignment permission overrides.
func DefaultRoles() []Role {
	return []Role{
		{Slug: RoleLegend, Name: "Legend", Description: "Platform super admin", Level: 1, Scope: ScopePlatform},
		{Slug: RolePhantom, Name: "Phantom", Description: "Organization super admin", Level: 2, Scope: ScopeOrganization},
		{Slug: RoleAviator, Name: "Aviator", Description: "Strategic leader", Level: 3, Scope: ScopeOrganization},
		{Slug: RoleGladiator, Name: "Gladiator", Description: "Project manager", Level: 4, Scope: ScopeProject},
		{Slug: RoleNavigator, Name: "Navigator", Description: "Department manager", Level: 5, Scope: ScopeProject},
		{Slug: RoleDeviator, Name: "Deviator", Description: "Team lead", Level: 6, Scope: ScopeTeam},
		{Slug: RoleRaider, Name: "Raider", Description: "Team member", Level: 7, Scope: ScopeTeam},
		{Slug: RoleMerchant, Name: "Merchant", Description: "External contractor", Level: 8, Scope: ScopeCustom, CanBeTimeLimited: true},
		{Slug: RoleVisitor, Name: "Visitor", Description: "Temporary custom access", Level: 9, Scope: ScopeCustom, CanBeTimeLimited: true, CanHaveCustomPermission: true},
		{Slug: RolePassenger, Name: "Passenger", Description: "Read-only stakeholder", Level: 10, Scope: ScopeCustom, CanBeTimeLimited: true},
		{Slug: RoleAmbassador, Name: "Ambassador", Description: "Marketing affiliate", Level: 11, Scope: ScopeCustom},
	}
}

// NewDefaultRegistry builds the registry from DefaultRoles. The catalog is
// fixed, so construction cannot fail.
func NewDefaultRegistry() *Registry {
	registry, err := NewRegistry(DefaultRoles())
	if err != nil {
		panic(err)
	}
	return registry
}
