package delegator

import (
	"math"
	"sort"

	"revshare/pkg/errors"
	"revshare/pkg/logger"
)

// Params are the construction inputs of a delegator
type Params struct {
	InitialShares        float64 // founding allocation, recorded as unvested at timestep 0
	ReserveTokenHoldings float64 // spendable balance in reserve-asset units
	ExpectedRevenue      float64 // this delegator's belief of pool revenue per period
	DiscountRate         float64 // in [0, 1)
	ActivityRate         float64 // probability of acting in a timestep, in [0, 1]
	MinimumShares        float64 // vested shares that can never be sold
	SmoothingFactor      float64 // consumed by price formation, not by the delegator
	Type                 Type    // zero value rotates through pure strategies by id
}

// Validate checks the parameter ranges
func (p Params) Validate() error {
	switch {
	case p.DiscountRate < 0 || p.DiscountRate >= 1:
		return errors.NewValidationError("discount_rate", "must be in [0, 1)", p.DiscountRate)
	case p.ActivityRate < 0 || p.ActivityRate > 1:
		return errors.NewValidationError("activity_rate", "must be in [0, 1]", p.ActivityRate)
	case p.InitialShares < 0:
		return errors.NewValidationError("initial_shares", "must not be negative", p.InitialShares)
	case p.ReserveTokenHoldings < 0:
		return errors.NewValidationError("reserve_token_holdings", "must not be negative", p.ReserveTokenHoldings)
	case p.MinimumShares < 0:
		return errors.NewValidationError("minimum_shares", "must not be negative", p.MinimumShares)
	case p.SmoothingFactor < 0 || p.SmoothingFactor > 1:
		return errors.NewValidationError("smoothing_factor", "must be in [0, 1]", p.SmoothingFactor)
	}
	return nil
}

// Grant is an unvested share credit recorded at a timestep
type Grant struct {
	Timestep int
	Shares   float64
}

// Side is the direction of a trade
type Side string

const (
	SideNone Side = "none"
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// String returns string representation
func (s Side) String() string {
	return string(s)
}

// Trade is the outcome of BuyOrSell. CreatedShares and AddedReserve are the
// deltas the caller folds into pool supply and reserve.
type Trade struct {
	CreatedShares float64
	AddedReserve  float64
	Side          Side
	Clipped       bool // a holdings, vested-shares or minimum-shares limit reduced the trade
}

// IsZero reports whether the trade moved nothing
func (t Trade) IsZero() bool {
	return t.CreatedShares == 0 && t.AddedReserve == 0
}

// Delegator holds shares of a revenue-sharing pool and trades them against
// the pool's bonding curve. It is not safe for concurrent use.
type Delegator struct {
	id int64

	unvestedShares map[int]float64
	vestedShares   float64

	reserveTokenHoldings float64

	expectedRevenue float64
	discountRate    float64
	timeFactor      float64
	activityRate    float64
	minimumShares   float64
	smoothingFactor float64

	delegatorType    Type
	componentWeights Weights
	privatePrice     float64

	costBasis                  float64
	unrealizedGainsFromShares  float64
	realizedGainsFromShares    float64
	realizedGainsFromDividends float64

	rng Source
	log *logger.Logger
}

// New creates a delegator with the founding allocation unvested at timestep 0.
// An unset type resolves to Pure((id mod 3) + 1); weights are drawn from rng.
func New(id int64, params Params, rng Source) (*Delegator, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrapf(err, "delegator %d", id)
	}

	t := resolveType(params.Type, id)

	d := &Delegator{
		id:                   id,
		unvestedShares:       map[int]float64{0: params.InitialShares},
		reserveTokenHoldings: params.ReserveTokenHoldings,
		expectedRevenue:      params.ExpectedRevenue,
		discountRate:         params.DiscountRate,
		timeFactor:           1 / (1 - params.DiscountRate),
		activityRate:         params.ActivityRate,
		minimumShares:        params.MinimumShares,
		smoothingFactor:      params.SmoothingFactor,
		delegatorType:        t,
		componentWeights:     NewWeightSampler(rng).WeightsFor(t),
		rng:                  rng,
		log:                  logger.Get().With("component", "delegator", "delegator_id", id),
	}

	d.log.Debugw("Delegator created", "type", t.String(), "weights", d.componentWeights)
	return d, nil
}

// ID returns the population-assigned identifier
func (d *Delegator) ID() int64 { return d.id }

// Type returns the resolved weighting policy
func (d *Delegator) Type() Type { return d.delegatorType }

// ComponentWeights returns the fixed price-signal weights
func (d *Delegator) ComponentWeights() Weights { return d.componentWeights }

// SmoothingFactor returns the price-formation smoothing parameter
func (d *Delegator) SmoothingFactor() float64 { return d.smoothingFactor }

// DiscountRate returns the cash-flow discount rate
func (d *Delegator) DiscountRate() float64 { return d.discountRate }

// TimeFactor returns 1 / (1 - discount rate)
func (d *Delegator) TimeFactor() float64 { return d.timeFactor }

// MinimumShares returns the unsellable vested floor
func (d *Delegator) MinimumShares() float64 { return d.minimumShares }

// PrivatePrice returns the current subjective valuation
func (d *Delegator) PrivatePrice() float64 { return d.privatePrice }

// SetPrivatePrice sets the valuation used by the next BuyOrSell
func (d *Delegator) SetPrivatePrice(price float64) { d.privatePrice = price }

// VestedShares returns the sellable share balance
func (d *Delegator) VestedShares() float64 { return d.vestedShares }

// ReserveTokenHoldings returns the spendable reserve-asset balance
func (d *Delegator) ReserveTokenHoldings() float64 { return d.reserveTokenHoldings }

// CostBasis returns the average reserve cost per held share
func (d *Delegator) CostBasis() float64 { return d.costBasis }

// UnrealizedGainsFromShares returns mark-to-spot gains on held shares
func (d *Delegator) UnrealizedGainsFromShares() float64 { return d.unrealizedGainsFromShares }

// RealizedGainsFromShares returns gains locked in by sells
func (d *Delegator) RealizedGainsFromShares() float64 { return d.realizedGainsFromShares }

// RealizedGainsFromDividends returns accrued dividend income
func (d *Delegator) RealizedGainsFromDividends() float64 { return d.realizedGainsFromDividends }

// IsMember reports whether the delegator holds any shares
func (d *Delegator) IsMember() bool {
	return d.TotalShares() > 0
}

// TotalUnvestedShares sums every unvested grant
func (d *Delegator) TotalUnvestedShares() float64 {
	total := 0.0
	for _, s := range d.unvestedShares {
		total += s
	}
	return total
}

// TotalShares returns unvested plus vested shares
func (d *Delegator) TotalShares() float64 {
	return d.TotalUnvestedShares() + d.vestedShares
}

// RecordVesting stores an unvested grant for timestep. A later write for
// the same timestep replaces the earlier one.
func (d *Delegator) RecordVesting(timestep int, amount float64) {
	d.unvestedShares[timestep] = amount
}

// UnvestedGrants returns the unvested grants ordered by timestep
func (d *Delegator) UnvestedGrants() []Grant {
	grants := make([]Grant, 0, len(d.unvestedShares))
	for ts, s := range d.unvestedShares {
		grants = append(grants, Grant{Timestep: ts, Shares: s})
	}
	sort.Slice(grants, func(i, j int) bool {
		return grants[i].Timestep < grants[j].Timestep
	})
	return grants
}

// Vest moves up to amount shares from the grant at timestep into vested
// shares and returns how many moved. Exhausted grants are removed.
func (d *Delegator) Vest(timestep int, amount float64) float64 {
	available, ok := d.unvestedShares[timestep]
	if !ok || amount <= 0 || available <= 0 {
		return 0
	}

	moved := math.Min(amount, available)
	remaining := available - moved
	if remaining <= 0 {
		delete(d.unvestedShares, timestep)
	} else {
		d.unvestedShares[timestep] = remaining
	}
	d.vestedShares += moved
	return moved
}

// DividendValue returns the time-corrected per-share dividend in reserve
// units. It also accrues one period of dividends on the delegator's whole
// holding into RealizedGainsFromDividends; the return value is NOT scaled by
// the delegator's shares.
func (d *Delegator) DividendValue(supply, ownersShare, reserveToRevenueExchangeRate float64) (float64, error) {
	if supply <= 0 {
		return 0, errors.Wrapf(errors.ErrInvalidState, "dividend value needs positive supply, got %g", supply)
	}

	revenuePerShare := d.expectedRevenue * (1 - ownersShare) / supply
	reservePerShare := revenuePerShare * reserveToRevenueExchangeRate
	timeCorrected := reservePerShare * d.timeFactor

	d.realizedGainsFromDividends += reservePerShare * d.TotalShares()

	return timeCorrected, nil
}

// WillAct draws one uniform value and compares it to the activity rate
func (d *Delegator) WillAct() bool {
	return d.rng.Float64() < d.activityRate
}

// BuyOrSell trades toward the private price on the curve price = 2R/S.
// Limits clip the trade silently; an out-of-threshold or impossible trade
// returns a zero Trade without touching any ledger.
func (d *Delegator) BuyOrSell(supply, reserve, spotPrice, minPctDiffToAct float64, timestep int) Trade {
	originalShares := d.TotalShares()
	originalCostBasis := d.costBasis

	pctPriceDiff := 0.0
	if spotPrice > 0 {
		pctPriceDiff = math.Abs(d.privatePrice-spotPrice) / spotPrice
	}
	if pctPriceDiff < minPctDiffToAct {
		return Trade{Side: SideNone}
	}
	if supply <= 0 || reserve <= 0 {
		d.log.Debugw("Pool empty, skipping trade", "timestep", timestep, "supply", supply, "reserve", reserve)
		return Trade{Side: SideNone}
	}

	var trade Trade
	switch {
	case d.privatePrice > spotPrice:
		trade = d.buy(supply, reserve, timestep)
	case d.privatePrice < spotPrice:
		trade = d.sell(supply, reserve)
	default:
		return Trade{Side: SideNone}
	}

	// no shares moved: nothing to fold or settle, even if a reserve delta was computed
	if trade.CreatedShares == 0 {
		d.log.Debugw("No trade possible", "timestep", timestep, "side", trade.Side,
			"vested_shares", d.vestedShares, "reserve_token_holdings", d.reserveTokenHoldings)
		return Trade{Side: SideNone, Clipped: trade.Clipped}
	}

	d.reserveTokenHoldings -= trade.AddedReserve
	d.settle(trade, supply, reserve, originalShares, originalCostBasis)

	d.log.Debugw("Trade executed",
		"timestep", timestep,
		"side", trade.Side,
		"created_shares", trade.CreatedShares,
		"added_reserve", trade.AddedReserve,
		"clipped", trade.Clipped,
		"private_price", d.privatePrice,
		"spot_price", spotPrice,
	)
	return trade
}

// buy spends reserve until spot reaches the private price, capped by holdings
func (d *Delegator) buy(supply, reserve float64, timestep int) Trade {
	trade := Trade{Side: SideBuy}

	addedReserve := (d.privatePrice*d.privatePrice*supply*supply - 4*reserve*reserve) / (4 * reserve)
	if addedReserve > d.reserveTokenHoldings {
		addedReserve = d.reserveTokenHoldings
		trade.Clipped = true
	}
	if addedReserve <= 0 {
		return trade
	}

	createdShares := supply*math.Sqrt(1+addedReserve/reserve) - supply
	if createdShares <= 0 {
		// addedReserve too small to move supply in float64
		return trade
	}
	d.RecordVesting(timestep, createdShares)

	trade.CreatedShares = createdShares
	trade.AddedReserve = addedReserve
	return trade
}

// sell burns vested shares until spot falls to the private price, keeping
// the minimum-shares floor
func (d *Delegator) sell(supply, reserve float64) Trade {
	trade := Trade{Side: SideSell}

	vested := d.vestedShares
	if vested <= 0 {
		return trade
	}

	burned := (2*reserve*supply - d.privatePrice*supply*supply) / (2 * reserve)
	if burned > vested {
		burned = vested
		trade.Clipped = true
	}
	if vested-burned < d.minimumShares {
		burned = vested - d.minimumShares
		trade.Clipped = true
	}
	if burned <= 0 {
		return trade
	}

	remaining := 1 - burned/supply
	reservePaidOut := reserve - reserve*remaining*remaining

	d.vestedShares -= burned

	trade.CreatedShares = -burned
	trade.AddedReserve = -reservePaidOut
	return trade
}

// settle updates cost basis and gains after a non-zero trade
func (d *Delegator) settle(trade Trade, supply, reserve, originalShares, originalCostBasis float64) {
	newSpotPrice := 0.0
	if newSupply := supply + trade.CreatedShares; newSupply > 0 {
		newSpotPrice = 2 * (reserve + trade.AddedReserve) / newSupply
	}
	unitCost := trade.AddedReserve / trade.CreatedShares
	shares := d.TotalShares()

	switch {
	case trade.AddedReserve > 0:
		if shares > 0 {
			d.costBasis = (originalCostBasis*originalShares + unitCost*trade.CreatedShares) / shares
		}
	case trade.AddedReserve < 0:
		d.realizedGainsFromShares -= (unitCost - d.costBasis) * trade.CreatedShares
	}

	d.unrealizedGainsFromShares = shares*newSpotPrice - shares*d.costBasis
}
