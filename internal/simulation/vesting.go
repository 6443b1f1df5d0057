package simulation

import (
	"math"

	"revshare/internal/domain/delegator"
	"revshare/pkg/errors"
)

// Vesting policy names accepted by NewVestingPolicy
const (
	VestingCliff    = "cliff"
	VestingHalfLife = "half_life"
)

// VestingPolicy promotes a delegator's unvested grants at a timestep and
// returns how many shares vested
type VestingPolicy interface {
	Apply(d *delegator.Delegator, timestep int) float64
}

// CliffVesting vests a grant in full once it is Steps timesteps old
type CliffVesting struct {
	Steps int
}

// Apply implements VestingPolicy
func (p CliffVesting) Apply(d *delegator.Delegator, timestep int) float64 {
	vested := 0.0
	for _, g := range d.UnvestedGrants() {
		if timestep-g.Timestep < p.Steps {
			// grants are ordered, later ones are younger
			break
		}
		vested += d.Vest(g.Timestep, g.Shares)
	}
	return vested
}

// HalfLifeVesting vests a fixed fraction of every grant each timestep so
// that half of a grant is vested after HalfLife timesteps
type HalfLifeVesting struct {
	HalfLife float64
}

// dustShares is the remainder below which a half-life grant vests outright
const dustShares = 1e-9

// Apply implements VestingPolicy
func (p HalfLifeVesting) Apply(d *delegator.Delegator, timestep int) float64 {
	rate := 1 - math.Pow(0.5, 1/p.HalfLife)
	vested := 0.0
	for _, g := range d.UnvestedGrants() {
		if g.Timestep >= timestep {
			continue
		}
		amount := g.Shares * rate
		if g.Shares-amount < dustShares {
			amount = g.Shares
		}
		vested += d.Vest(g.Timestep, amount)
	}
	return vested
}

// NewVestingPolicy builds a policy by name
func NewVestingPolicy(name string, cliffSteps int, halfLife float64) (VestingPolicy, error) {
	switch name {
	case VestingCliff:
		if cliffSteps < 0 {
			return nil, errors.NewValidationError("cliff_steps", "must not be negative", cliffSteps)
		}
		return CliffVesting{Steps: cliffSteps}, nil
	case VestingHalfLife:
		if halfLife <= 0 {
			return nil, errors.NewValidationError("half_life", "must be positive", halfLife)
		}
		return HalfLifeVesting{HalfLife: halfLife}, nil
	}
	return nil, errors.NewValidationError("vesting_policy", "unknown policy", name)
}
