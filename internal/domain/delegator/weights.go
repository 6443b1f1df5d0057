package delegator

import "math"

// OutsizeFactor scales the favoured entry of a mixed weight vector
const OutsizeFactor = 10.0

// WeightTolerance bounds how far a weight vector's sum may drift from 1
const WeightTolerance = 1e-4

// Weights blends the three private-price signals:
// [mean reversion, fundamental value, trend following]
type Weights [strategyCount]float64

// Sum adds the components
func (w Weights) Sum() float64 {
	return w[0] + w[1] + w[2]
}

// Normalized reports whether the weights are non-negative and sum to 1
func (w Weights) Normalized() bool {
	for _, v := range w {
		if v < 0 {
			return false
		}
	}
	return math.Abs(w.Sum()-1) <= WeightTolerance
}

// Blend returns the weighted sum of the three signal values
func (w Weights) Blend(meanReversion, fundamental, trend float64) float64 {
	return w[0]*meanReversion + w[1]*fundamental + w[2]*trend
}

// WeightSampler produces component weights for a delegator type
type WeightSampler struct {
	rng Source
}

// NewWeightSampler creates a sampler drawing from rng
func NewWeightSampler(rng Source) *WeightSampler {
	return &WeightSampler{rng: rng}
}

// WeightsFor returns a normalized weight vector.
// Pure types get a one-hot vector; mixed types draw three Exp(1) samples,
// outsize one of them and normalize.
func (s *WeightSampler) WeightsFor(t Type) Weights {
	var w Weights

	if strategy, ok := t.Strategy(); ok {
		w[strategy.Index()] = 1
		return w
	}

	for i := range w {
		w[i] = s.rng.ExpFloat64()
	}
	w[mixedOutsizeIndex()] *= OutsizeFactor

	sum := w.Sum()
	for i := range w {
		w[i] /= sum
	}
	return w
}

// mixedOutsizeIndex keeps the historical arithmetic: the mixed code minus
// one is the nominal index, and the entry before it is the one scaled.
// Negative positions count back from the end of the vector, so this lands
// on the fundamental-value weight.
// TODO: confirm with the model owners whether the bias should follow the
// delegator's nominal strategy instead of this fixed slot.
func mixedOutsizeIndex() int {
	nominal := Mixed().Code() - 1
	idx := nominal - 1
	return ((idx % strategyCount) + strategyCount) % strategyCount
}
