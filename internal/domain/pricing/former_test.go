package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revshare/internal/domain/delegator"
)

func newDelegator(t *testing.T, smoothing float64) *delegator.Delegator {
	t.Helper()
	d, err := delegator.New(0, delegator.Params{DiscountRate: 0.9, SmoothingFactor: smoothing}, delegator.NewSource(1))
	require.NoError(t, err)
	return d
}

func TestFormer_MeanReversionSmoothsSpot(t *testing.T) {
	f := NewFormer(5)
	d := newDelegator(t, 0.9)

	f.Observe(2)
	assert.InDelta(t, 2.0, f.Signals(d, 0).MeanReversion, 1e-12)

	f.Observe(3)
	assert.InDelta(t, 2.1, f.Signals(d, 0).MeanReversion, 1e-12)
}

func TestFormer_TrendFlatUntilHistoryFills(t *testing.T) {
	f := NewFormer(5)
	d := newDelegator(t, 0.5)

	for i := 0; i < 5; i++ {
		f.Observe(float64(i + 1))
		assert.Equal(t, float64(i+1), f.Signals(d, 0).Trend)
	}
}

func TestFormer_TrendFollowsDirection(t *testing.T) {
	d := newDelegator(t, 0.5)

	flat := NewFormer(4)
	rising := NewFormer(4)
	for i := 0; i < 20; i++ {
		flat.Observe(2)
		rising.Observe(2 + 0.1*float64(i))
	}

	assert.InDelta(t, 2.0, flat.Signals(d, 0).Trend, 1e-9)
	assert.Greater(t, rising.Signals(d, 0).Trend, rising.Spot())
}

func TestFormer_PrivatePriceBlendsWeights(t *testing.T) {
	f := NewFormer(0)
	s := Signals{MeanReversion: 1, Fundamental: 4, Trend: 2}

	assert.Equal(t, 4.0, f.PrivatePrice(delegator.Weights{0, 1, 0}, s))
	assert.InDelta(t, 0.5+2+0.5, f.PrivatePrice(delegator.Weights{0.5, 0.5, 0.25}, s), 1e-12)
}

func TestFormer_FundamentalPassesThrough(t *testing.T) {
	f := NewFormer(3)
	f.Observe(2)

	assert.Equal(t, 1.7, f.Signals(newDelegator(t, 0.9), 1.7).Fundamental)
}
