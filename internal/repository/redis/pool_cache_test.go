package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revshare/internal/domain/pool"
	"revshare/internal/testsupport"
	"revshare/pkg/errors"
)

func TestPoolCache_Key(t *testing.T) {
	cache := NewPoolCache(nil, 0)
	runID := uuid.MustParse("6f1c2f9e-3a47-4c1b-9a55-1d2b3c4d5e6f")

	assert.Equal(t, "revshare:pool:6f1c2f9e-3a47-4c1b-9a55-1d2b3c4d5e6f:latest", cache.getKey(runID))
}

func TestPoolCache_Integration(t *testing.T) {
	cache := NewPoolCache(testsupport.NewTestRedis(t), time.Minute)
	ctx := context.Background()
	runID := uuid.New()

	_, err := cache.GetLatest(ctx, runID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	for ts := 1; ts <= 3; ts++ {
		require.NoError(t, cache.SetLatest(ctx, pool.Snapshot{
			RunID:     runID,
			Timestep:  ts,
			Supply:    decimal.NewFromInt(int64(1000 + ts)),
			Reserve:   decimal.NewFromInt(1000),
			SpotPrice: decimal.NewFromFloat(1.99),
		}))
	}

	latest, err := cache.GetLatest(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Timestep)
	assert.True(t, decimal.NewFromInt(1003).Equal(latest.Supply))
}
