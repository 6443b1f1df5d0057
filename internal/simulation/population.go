package simulation

import (
	"revshare/internal/domain/delegator"
	"revshare/pkg/errors"
)

// PopulationConfig describes the delegators a run starts with
type PopulationConfig struct {
	Count                int
	FounderShares        float64
	FounderMinimumShares float64
	ReserveTokenHoldings float64
	ExpectedRevenue      float64
	RevenueNoise         float64 // relative spread of ExpectedRevenue across delegators
	DiscountRate         float64
	ActivityRate         float64
	SmoothingFactor      float64
	MixedTypes           bool
}

// Population owns the delegators of one run and hands out their ids
type Population struct {
	members []*delegator.Delegator
	nextID  int64
	rng     delegator.Source
}

// NewPopulation creates an empty population drawing from rng
func NewPopulation(rng delegator.Source) *Population {
	return &Population{rng: rng}
}

// NextID returns a fresh delegator id
func (p *Population) NextID() int64 {
	id := p.nextID
	p.nextID++
	return id
}

// Add creates a delegator with the next id
func (p *Population) Add(params delegator.Params) (*delegator.Delegator, error) {
	d, err := delegator.New(p.NextID(), params, p.rng)
	if err != nil {
		return nil, err
	}
	p.members = append(p.members, d)
	return d, nil
}

// Seed adds cfg.Count delegators. Expected revenue is spread uniformly
// within +/- RevenueNoise of the configured value.
func (p *Population) Seed(cfg PopulationConfig) error {
	if cfg.Count <= 0 {
		return errors.NewValidationError("count", "must be positive", cfg.Count)
	}
	if cfg.RevenueNoise < 0 || cfg.RevenueNoise >= 1 {
		return errors.NewValidationError("revenue_noise", "must be in [0, 1)", cfg.RevenueNoise)
	}

	for i := 0; i < cfg.Count; i++ {
		params := delegator.Params{
			InitialShares:        cfg.FounderShares,
			ReserveTokenHoldings: cfg.ReserveTokenHoldings,
			ExpectedRevenue:      cfg.ExpectedRevenue * (1 + cfg.RevenueNoise*(2*p.rng.Float64()-1)),
			DiscountRate:         cfg.DiscountRate,
			ActivityRate:         cfg.ActivityRate,
			MinimumShares:        cfg.FounderMinimumShares,
			SmoothingFactor:      cfg.SmoothingFactor,
		}
		if cfg.MixedTypes {
			params.Type = delegator.Mixed()
		}
		if _, err := p.Add(params); err != nil {
			return errors.Wrapf(err, "seed delegator %d of %d", i+1, cfg.Count)
		}
	}
	return nil
}

// Delegators returns the members in id order
func (p *Population) Delegators() []*delegator.Delegator {
	return p.members
}

// Len returns the number of delegators
func (p *Population) Len() int {
	return len(p.members)
}

// TotalShares sums vested and unvested shares across all delegators
func (p *Population) TotalShares() float64 {
	total := 0.0
	for _, d := range p.members {
		total += d.TotalShares()
	}
	return total
}
