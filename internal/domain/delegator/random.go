package delegator

import "math/rand/v2"

// Source is the randomness a delegator draws from.
// *rand.Rand satisfies it; one Source is shared across a population so
// the draw sequence is fixed by the seed and the call order.
type Source interface {
	// Float64 returns a uniform value in [0, 1)
	Float64() float64
	// ExpFloat64 returns an exponentially distributed value with rate 1
	ExpFloat64() float64
}

// NewSource builds a seeded PCG generator
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
