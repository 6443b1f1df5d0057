package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revshare/internal/adapters/config"
	"revshare/internal/simulation"
	"revshare/pkg/errors"
	"revshare/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Simulation: config.SimulationConfig{
			Seed:             5,
			Timesteps:        12,
			InitialSupply:    1000,
			InitialReserve:   1000,
			OwnersShare:      0.2,
			ExchangeRate:     1,
			MinPctDiffToAct:  0.02,
			TrendPeriod:      4,
			VestingPolicy:    simulation.VestingCliff,
			VestingCliff:     3,
			SnapshotInterval: 4,
		},
		Delegators: config.DelegatorConfig{
			Count:                4,
			FounderShares:        100,
			FounderMinimumShares: 20,
			ReserveTokenHoldings: 100,
			ExpectedRevenue:      10,
			DiscountRate:         0.9,
			ActivityRate:         0.6,
			SmoothingFactor:      0.9,
		},
	}
}

func TestProvideEngine_Runs(t *testing.T) {
	engine, err := provideEngine(testConfig(), simulation.NopRecorder{})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, result.Steps)
	assert.Len(t, result.Delegators, 4)
}

func TestProvideEngine_RejectsUnknownVesting(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.VestingPolicy = "linear"

	_, err := provideEngine(cfg, nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestEngineSettings(t *testing.T) {
	settings := engineSettings(testConfig().Simulation)

	assert.Equal(t, 12, settings.Timesteps)
	assert.Equal(t, 0.02, settings.MinPctDiffToAct)
	assert.Equal(t, 4, settings.SnapshotInterval)
	require.NoError(t, settings.Validate())
}

func TestPopulationConfig(t *testing.T) {
	cfg := populationConfig(testConfig().Delegators)

	assert.Equal(t, 4, cfg.Count)
	assert.Equal(t, 20.0, cfg.FounderMinimumShares)
	assert.False(t, cfg.MixedTypes)
}

func TestProvideRecorders_OnlyEnabledSinks(t *testing.T) {
	c := NewContainer()
	defer c.Cancel()
	c.Config = testConfig()
	c.Log = logger.Nop()

	recorders, err := provideRecorders(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, recorders)

	c.Config.Metrics.Enabled = true
	recorders, err = provideRecorders(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, recorders, 1)
	assert.Equal(t, "metrics", recorders[0].Name())
}
