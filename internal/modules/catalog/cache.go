package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

const (
	snapshotKey = "catalog:questionnaire"
	snapshotTTL = 10 * time.Minute
)

// SnapshotCache keeps the rendered questionnaire tree in redis so the
// read side does not hit the database on every fetch. The catalog is
// small and changes rarely; any mutation invalidates the whole key.
// A nil *SnapshotCache disables caching.
type SnapshotCache struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewSnapshotCache(rdb *redis.Client, baseLog *logger.Logger) *SnapshotCache {
	if rdb == nil {
		return nil
	}
	return &SnapshotCache{rdb: rdb, log: baseLog.With("cache", "catalog_snapshot")}
}

func (c *SnapshotCache) Get(ctx context.Context) ([]*types.Dimension, bool) {
	raw, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("snapshot read failed", "error", err)
		}
		return nil, false
	}
	var dims []*types.Dimension
	if err := json.Unmarshal(raw, &dims); err != nil {
		c.log.Warn("snapshot decode failed", "error", err)
		return nil, false
	}
	return dims, true
}

func (c *SnapshotCache) Set(ctx context.Context, dims []*types.Dimension) {
	raw, err := json.Marshal(dims)
	if err != nil {
		c.log.Warn("snapshot encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, snapshotKey, raw, snapshotTTL).Err(); err != nil {
		c.log.Warn("snapshot write failed", "error", err)
	}
}

func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		c.log.Warn("snapshot invalidate failed", "error", err)
	}
}
