package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revshare/internal/domain/delegator"
	"revshare/pkg/errors"
)

func newFounder(t *testing.T, shares float64) *delegator.Delegator {
	t.Helper()
	d, err := delegator.New(0, delegator.Params{
		InitialShares: shares,
		DiscountRate:  0.9,
	}, delegator.NewSource(3))
	require.NoError(t, err)
	return d
}

func TestCliffVesting(t *testing.T) {
	d := newFounder(t, 100)
	d.RecordVesting(10, 40)
	policy := CliffVesting{Steps: 30}

	assert.Equal(t, 0.0, policy.Apply(d, 29))
	assert.Equal(t, 140.0, d.TotalUnvestedShares())

	assert.Equal(t, 100.0, policy.Apply(d, 30))
	assert.Equal(t, 100.0, d.VestedShares())
	assert.Equal(t, []delegator.Grant{{Timestep: 10, Shares: 40}}, d.UnvestedGrants())

	assert.Equal(t, 40.0, policy.Apply(d, 45))
	assert.Equal(t, 140.0, d.VestedShares())
	assert.Empty(t, d.UnvestedGrants())
	assert.Equal(t, 140.0, d.TotalShares())
}

func TestCliffVesting_ZeroStepsVestsImmediately(t *testing.T) {
	d := newFounder(t, 25)

	assert.Equal(t, 25.0, CliffVesting{}.Apply(d, 0))
	assert.Equal(t, 25.0, d.VestedShares())
}

func TestHalfLifeVesting(t *testing.T) {
	d := newFounder(t, 100)
	policy := HalfLifeVesting{HalfLife: 1}

	// a grant never vests in the timestep it was made
	assert.Equal(t, 0.0, policy.Apply(d, 0))

	assert.InDelta(t, 50.0, policy.Apply(d, 1), 1e-9)
	assert.InDelta(t, 25.0, policy.Apply(d, 2), 1e-9)
	assert.InDelta(t, 75.0, d.VestedShares(), 1e-9)
	assert.InDelta(t, 100.0, d.TotalShares(), 1e-9)
}

func TestHalfLifeVesting_HalfAfterHalfLife(t *testing.T) {
	d := newFounder(t, 100)
	policy := HalfLifeVesting{HalfLife: 14}

	for ts := 1; ts <= 14; ts++ {
		policy.Apply(d, ts)
	}
	assert.InDelta(t, 50.0, d.VestedShares(), 1e-6)
}

func TestHalfLifeVesting_VestsDustOutright(t *testing.T) {
	d := newFounder(t, 1e-10)

	assert.Equal(t, 1e-10, HalfLifeVesting{HalfLife: 1}.Apply(d, 1))
	assert.Empty(t, d.UnvestedGrants())
}

func TestNewVestingPolicy(t *testing.T) {
	p, err := NewVestingPolicy(VestingCliff, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, CliffVesting{Steps: 30}, p)

	p, err = NewVestingPolicy(VestingHalfLife, 0, 14)
	require.NoError(t, err)
	assert.Equal(t, HalfLifeVesting{HalfLife: 14}, p)

	_, err = NewVestingPolicy(VestingHalfLife, 0, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = NewVestingPolicy(VestingCliff, -1, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = NewVestingPolicy("linear", 30, 14)
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "vesting_policy", verr.Field)
}
