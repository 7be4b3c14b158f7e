package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheFixture(t *testing.T) (*AssignmentCache, *mockStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newMockStore()
	return NewAssignmentCache(store, redisClient, time.Minute), store, mr
}

func TestAssignmentCacheServesFromCache(t *testing.T) {
	cache, store, _ := newCacheFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	grant(store, userID, RoleRaider, AssignmentScope{WorkspaceID: uuid.New()})

	first, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, store.activeCalls)

	second, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, store.activeCalls, "second read must hit the cache")
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestAssignmentCacheKeysPerFilter(t *testing.T) {
	cache, store, _ := newCacheFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	project := uuid.New()

	grant(store, userID, RoleRaider, AssignmentScope{WorkspaceID: uuid.New()})

	_, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	_, err = cache.ActiveAssignments(ctx, userID, ScopeFilter{ProjectID: &project})
	require.NoError(t, err)
	assert.Equal(t, 2, store.activeCalls, "distinct filters use distinct keys")
}

func TestAssignmentCacheInvalidationOnMutation(t *testing.T) {
	cache, store, _ := newCacheFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	a := grant(store, userID, RoleRaider, AssignmentScope{WorkspaceID: uuid.New()})

	got, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	inactive := false
	require.NoError(t, cache.UpdateAssignment(ctx, a.ID, AssignmentPatch{IsActive: &inactive}))

	got, err = cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	assert.Empty(t, got, "mutation must drop the stale cached view")
}

func TestAssignmentCacheInvalidationOnInsert(t *testing.T) {
	cache, _, _ := newCacheFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	got, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	require.Empty(t, got)

	fresh := Assignment{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      RoleRaider,
		Scope:     AssignmentScope{WorkspaceID: uuid.New()},
		ValidFrom: time.Now().Add(-time.Minute),
		IsActive:  true,
	}
	require.NoError(t, cache.InsertAssignment(ctx, fresh))

	got, err = cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)
}

func TestAssignmentCacheFirstInvalidationTakesEffect(t *testing.T) {
	cache, store, _ := newCacheFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	a := grant(store, userID, RoleRaider, AssignmentScope{WorkspaceID: uuid.New()})

	got, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Revoke behind the cache's back, then invalidate. The user has no
	// version key yet, so this exercises the very first bump.
	a.IsActive = false
	store.assignments[a.ID] = a
	cache.InvalidateUser(ctx, userID)

	got, err = cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	assert.Empty(t, got, "revoked assignment must not be served after invalidation")
}

func TestAssignmentCacheExpiresByTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newMockStore()
	cache := NewAssignmentCache(store, redisClient, 10*time.Second)
	ctx := context.Background()
	userID := uuid.New()

	grant(store, userID, RoleRaider, AssignmentScope{WorkspaceID: uuid.New()})

	_, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, store.activeCalls)

	mr.FastForward(11 * time.Second)

	_, err = cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.activeCalls, "entry must lapse with its TTL")
}

func TestAssignmentCacheDegradesWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newMockStore()
	cache := NewAssignmentCache(store, redisClient, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	grant(store, userID, RoleRaider, AssignmentScope{WorkspaceID: uuid.New()})
	mr.Close()

	got, err := cache.ActiveAssignments(ctx, userID, ScopeFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1, "cache trouble must not deny access")
}

func TestAssignmentCacheNilClientPassesThrough(t *testing.T) {
	store := newMockStore()
	cache := NewAssignmentCache(store, nil, time.Minute)
	userID := uuid.New()

	grant(store, userID, RoleRaider, AssignmentScope{WorkspaceID: uuid.New()})

	got, err := cache.ActiveAssignments(context.Background(), userID, ScopeFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAssignmentCachePropagatesStoreError(t *testing.T) {
	cache, store, _ := newCacheFixture(t)
	store.activeError = errors.New("down")

	_, err := cache.ActiveAssignments(context.Background(), uuid.New(), ScopeFilter{})
	require.Error(t, err)
}

func TestNewAssignmentCacheClampsTTL(t *testing.T) {
	store := newMockStore()

	cache := NewAssignmentCache(store, nil, time.Hour)
	assert.Equal(t, 5*time.Minute, cache.ttl)

	cache = NewAssignmentCache(store, nil, 0)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
