package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Role{
		{Slug: "alpha", Level: 1},
		{Slug: "alpha", Level: 2},
	})
	require.Error(t, err)

	_, err = NewRegistry([]Role{
		{Slug: "alpha", Level: 1},
		{Slug: "beta", Level: 1},
	})
	require.Error(t, err)

	_, err = NewRegistry([]Role{{Slug: "", Level: 1}})
	require.Error(t, err)
}

func TestDefaultRegistryCatalog(t *testing.T) {
	registry := NewDefaultRegistry()

	all := registry.All()
	require.Len(t, all, 11)

	// Ordered by ascending level, strongest first.
	assert.Equal(t, RoleLegend, all[0].Slug)
	assert.Equal(t, RoleAmbassador, all[10].Slug)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Level, all[i-1].Level)
	}

	legend, err := registry.Get(RoleLegend)
	require.NoError(t, err)
	assert.Equal(t, 1, legend.Level)
	assert.Equal(t, ScopePlatform, legend.Scope)
	assert.False(t, legend.CanBeTimeLimited)
	assert.False(t, legend.CanHaveCustomPermission)

	visitor, err := registry.Get(RoleVisitor)
	require.NoError(t, err)
	assert.True(t, visitor.CanBeTimeLimited)
	assert.True(t, visitor.CanHaveCustomPermission)

	_, err = registry.Get("superuser")
	require.ErrorIs(t, err, ErrUnknownRole)
	assert.False(t, registry.Has("superuser"))
}

func TestRegistryTimeLimitFlags(t *testing.T) {
	registry := NewDefaultRegistry()

	limited := map[string]bool{RoleMerchant: true, RoleVisitor: true, RolePassenger: true}
	for _, role := range registry.All() {
		ok, err := registry.CanBeTimeLimited(role.Slug)
		require.NoError(t, err)
		assert.Equal(t, limited[role.Slug], ok, role.Slug)
	}

	for _, role := range registry.All() {
		ok, err := registry.CanHaveCustomPermissions(role.Slug)
		require.NoError(t, err)
		assert.Equal(t, role.Slug == RoleVisitor, ok, role.Slug)
	}
}

func TestRegistryCompareRoles(t *testing.T) {
	registry := NewDefaultRegistry()

	cmp, err := registry.CompareRoles(RoleLegend, RoleRaider)
	require.NoError(t, err)
	assert.Negative(t, cmp)

	cmp, err = registry.CompareRoles(RolePassenger, RoleGladiator)
	require.NoError(t, err)
	assert.Positive(t, cmp)

	cmp, err = registry.CompareRoles(RoleAviator, RoleAviator)
	require.NoError(t, err)
	assert.Zero(t, cmp)

	higher, err := registry.IsHigher(RolePhantom, RoleDeviator)
	require.NoError(t, err)
	assert.True(t, higher)

	_, err = registry.IsHigher(RolePhantom, "nope")
	require.True(t, errors.Is(err, ErrUnknownRole))
}

func TestRegistryInScope(t *testing.T) {
	registry := NewDefaultRegistry()

	platform := registry.InScope(ScopePlatform)
	require.Len(t, platform, 1)
	assert.Equal(t, RoleLegend, platform[0].Slug)

	custom := registry.InScope(ScopeCustom)
	require.Len(t, custom, 4)
	assert.Equal(t, RoleMerchant, custom[0].Slug)

	level, err := registry.LevelOf(RoleNavigator)
	require.NoError(t, err)
	assert.Equal(t, 5, level)
}
