package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL bounds assignment staleness. A revoked role must stop
// granting access promptly, so the ceiling is deliberately short; favor
// freshness over hit rate.
const DefaultCacheTTL = 15 * time.Second

const maxCacheTTL = 5 * time.Minute

// AssignmentCache is a read-through Redis cache in front of an
// AssignmentStore. Entries are keyed per user and filter with a per-user
// version counter, so invalidating a user is one counter bump instead of a
// key scan. Concurrent misses for the same key collapse into one store load.
type AssignmentCache struct {
	store  AssignmentStore
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewAssignmentCache wraps a store with caching. TTLs above five minutes are
// clamped; zero or negative TTLs fall back to DefaultCacheTTL.
func NewAssignmentCache(store AssignmentStore, client *redis.Client, ttl time.Duration) *AssignmentCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > maxCacheTTL {
		ttl = maxCacheTTL
	}
	return &AssignmentCache{store: store, client: client, ttl: ttl}
}

// ActiveAssignments serves from cache when possible, falling back to the
// underlying store. Cache infrastructure failures degrade to a direct store
// read; they never turn into a denial by themselves.
func (c *AssignmentCache) ActiveAssignments(ctx context.Context, userID uuid.UUID, filter ScopeFilter) ([]Assignment, error) {
	if c.client == nil {
		return c.store.ActiveAssignments(ctx, userID, filter)
	}

	key, err := c.buildKey(ctx, userID, filter)
	if err != nil {
		return c.store.ActiveAssignments(ctx, userID, filter)
	}

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached []Assignment
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		assignments, err := c.store.ActiveAssignments(ctx, userID, filter)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(assignments); err == nil {
			c.client.Set(ctx, key, raw, c.ttl)
		}
		return assignments, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Assignment), nil
}

// InvalidateUser drops every cached filter view for one user by bumping the
// user's cache version.
func (c *AssignmentCache) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if c.client == nil {
		return
	}
	c.client.Incr(ctx, versionKey(userID))
}

func (c *AssignmentCache) buildKey(ctx context.Context, userID uuid.UUID, filter ScopeFilter) (string, error) {
	// A missing version key reads as 0 so that the first INCR (which leaves
	// the key at 1) actually changes the key space. Defaulting to 1 would make
	// the first invalidation for a user a no-op.
	ver, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if err == redis.Nil {
		ver = 0
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("rbac:assignments:%s:%d:%s", userID, ver, filterKey(filter)), nil
}

func versionKey(userID uuid.UUID) string {
	return "rbac:assignments:ver:" + userID.String()
}

func filterKey(f ScopeFilter) string {
	parts := make([]string, 0, 4)
	for _, id := range []*uuid.UUID{f.WorkspaceID, f.OrganizationID, f.ProjectID, f.TeamID} {
		if id == nil {
			parts = append(parts, "-")
			continue
		}
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ":")
}

// Pass-through methods keep the cache usable wherever a full store is
// expected; mutations invalidate the affected user.

func (c *AssignmentCache) GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	return c.store.GetAssignment(ctx, id)
}

func (c *AssignmentCache) InsertAssignment(ctx context.Context, a Assignment) error {
	if err := c.store.InsertAssignment(ctx, a); err != nil {
		return err
	}
	c.InvalidateUser(ctx, a.UserID)
	return nil
}

func (c *AssignmentCache) UpdateAssignment(ctx context.Context, id uuid.UUID, patch AssignmentPatch) error {
	existing, err := c.store.GetAssignment(ctx, id)
	if err != nil {
		return err
	}
	if err := c.store.UpdateAssignment(ctx, id, patch); err != nil {
		return err
	}
	c.InvalidateUser(ctx, existing.UserID)
	return nil
}

func (c *AssignmentCache) DeactivateExpired(ctx context.Context, now time.Time) ([]Assignment, error) {
	expired, err := c.store.DeactivateExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, a := range expired {
		c.InvalidateUser(ctx, a.UserID)
	}
	return expired, nil
}

func (c *AssignmentCache) AppendAudit(ctx context.Context, entry AuditEntry) error {
	return c.store.AppendAudit(ctx, entry)
}

var _ AssignmentStore = (*AssignmentCache)(nil)
