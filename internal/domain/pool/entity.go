package pool

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"revshare/internal/domain/delegator"
)

// State is the pool-wide supply and reserve. It is a single accumulator:
// callers fold trades in one at a time.
type State struct {
	Supply  float64
	Reserve float64
}

// SpotPrice returns the bonding-curve price 2R/S, or 0 for an empty pool
func (s State) SpotPrice() float64 {
	if s.Supply <= 0 {
		return 0
	}
	return 2 * s.Reserve / s.Supply
}

// Apply folds one delegator's trade deltas into the pool
func (s *State) Apply(trade delegator.Trade) {
	s.Supply += trade.CreatedShares
	s.Reserve += trade.AddedReserve
}

// StepStats counts what happened during one timestep
type StepStats struct {
	Acted      int
	Buys       int
	Sells      int
	Clipped    int
	Members    int
	Vested     float64
	Dividends  float64
	BuyVolume  float64 // reserve added by buys
	SellVolume float64 // reserve paid out by sells
}

// Record counts a trade outcome
func (st *StepStats) Record(trade delegator.Trade) {
	if trade.Clipped {
		st.Clipped++
	}
	switch trade.Side {
	case delegator.SideBuy:
		st.Buys++
		st.BuyVolume += trade.AddedReserve
	case delegator.SideSell:
		st.Sells++
		st.SellVolume -= trade.AddedReserve
	}
}

// Snapshot is the pool state at the end of a timestep
type Snapshot struct {
	RunID      uuid.UUID       `db:"run_id"`
	Timestep   int             `db:"timestep"`
	Supply     decimal.Decimal `db:"supply"`
	Reserve    decimal.Decimal `db:"reserve"`
	SpotPrice  decimal.Decimal `db:"spot_price"`
	Buys       int             `db:"buys"`
	Sells      int             `db:"sells"`
	Members    int             `db:"members"`
	RecordedAt time.Time       `db:"recorded_at"`
}

// NewSnapshot captures a pool state and step stats
func NewSnapshot(runID uuid.UUID, timestep int, s State, stats StepStats) Snapshot {
	return Snapshot{
		RunID:      runID,
		Timestep:   timestep,
		Supply:     decimal.NewFromFloat(s.Supply),
		Reserve:    decimal.NewFromFloat(s.Reserve),
		SpotPrice:  decimal.NewFromFloat(s.SpotPrice()),
		Buys:       stats.Buys,
		Sells:      stats.Sells,
		Members:    stats.Members,
		RecordedAt: time.Now().UTC(),
	}
}
