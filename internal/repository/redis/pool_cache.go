package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"revshare/internal/domain/pool"
	"revshare/pkg/errors"
)

// Compile-time check
var _ pool.Cache = (*PoolCache)(nil)

// PoolCache implements pool.Cache using Redis
type PoolCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPoolCache creates a new pool cache; ttl 0 keeps keys forever
func NewPoolCache(client *redis.Client, ttl time.Duration) *PoolCache {
	return &PoolCache{
		client: client,
		ttl:    ttl,
	}
}

// SetLatest stores the snapshot as the run's latest pool state
func (c *PoolCache) SetLatest(ctx context.Context, snapshot pool.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal pool snapshot: run_id=%s", snapshot.RunID)
	}

	if err := c.client.Set(ctx, c.getKey(snapshot.RunID), data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save pool snapshot to redis: run_id=%s", snapshot.RunID)
	}
	return nil
}

// GetLatest retrieves the run's latest pool state
func (c *PoolCache) GetLatest(ctx context.Context, runID uuid.UUID) (*pool.Snapshot, error) {
	data, err := c.client.Get(ctx, c.getKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "pool snapshot not found: run_id=%s", runID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get pool snapshot from redis: run_id=%s", runID)
	}

	var snapshot pool.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal pool snapshot: run_id=%s", runID)
	}
	return &snapshot, nil
}

func (c *PoolCache) getKey(runID uuid.UUID) string {
	return fmt.Sprintf("revshare:pool:%s:latest", runID)
}
