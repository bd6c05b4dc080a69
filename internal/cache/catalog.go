package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

const (
	ranksKey      = "catalog:ranks"
	milestonesKey = "catalog:streak_milestones"
	catalogTTL    = 10 * time.Minute
)

// CatalogCache is a read-through cache over the static rank and streak
// milestone tables. A nil receiver or nil client degrades to a miss on
// every call, so Redis stays optional.
type CatalogCache struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewCatalogCache(rdb *redis.Client, baseLog *logger.Logger) *CatalogCache {
	if rdb == nil {
		return nil
	}
	return &CatalogCache{rdb: rdb, log: baseLog.With("cache", "CatalogCache")}
}

func (c *CatalogCache) GetRanks(ctx context.Context) ([]*types.Rank, bool) {
	var out []*types.Rank
	if !c.get(ctx, ranksKey, &out) {
		return nil, false
	}
	return out, true
}

func (c *CatalogCache) SetRanks(ctx context.Context, ranks []*types.Rank) {
	c.set(ctx, ranksKey, ranks)
}

func (c *CatalogCache) GetMilestones(ctx context.Context) ([]*types.StreakMilestone, bool) {
	var out []*types.StreakMilestone
	if !c.get(ctx, milestonesKey, &out) {
		return nil, false
	}
	return out, true
}

func (c *CatalogCache) SetMilestones(ctx context.Context, milestones []*types.StreakMilestone) {
	c.set(ctx, milestonesKey, milestones)
}

// Invalidate drops both catalog keys; the seeder calls it after applying
// a new catalog file.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, ranksKey, milestonesKey).Err(); err != nil {
		c.log.Warn("Failed to invalidate catalog cache", "error", err)
	}
}

func (c *CatalogCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.log.Warn("Catalog cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("Catalog cache entry malformed, dropping", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, val interface{}) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		c.log.Warn("Catalog cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, catalogTTL).Err(); err != nil {
		c.log.Warn("Catalog cache write failed", "key", key, "error", err)
	}
}
