package delegator

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is a delegator's ledger at the end of a timestep
type Snapshot struct {
	RunID       uuid.UUID `db:"run_id"`
	Timestep    int       `db:"timestep"`
	DelegatorID int64     `db:"delegator_id"`
	TypeCode    int       `db:"type_code"`

	UnvestedShares       decimal.Decimal `db:"unvested_shares"`
	VestedShares         decimal.Decimal `db:"vested_shares"`
	ReserveTokenHoldings decimal.Decimal `db:"reserve_token_holdings"`
	PrivatePrice         decimal.Decimal `db:"private_price"`

	// Accounting
	CostBasis                  decimal.Decimal `db:"cost_basis"`
	UnrealizedGainsFromShares  decimal.Decimal `db:"unrealized_gains_from_shares"`
	RealizedGainsFromShares    decimal.Decimal `db:"realized_gains_from_shares"`
	RealizedGainsFromDividends decimal.Decimal `db:"realized_gains_from_dividends"`
}

// TotalShares returns unvested plus vested shares
func (s Snapshot) TotalShares() decimal.Decimal {
	return s.UnvestedShares.Add(s.VestedShares)
}

// TotalGains sums realized, unrealized and dividend gains
func (s Snapshot) TotalGains() decimal.Decimal {
	return s.UnrealizedGainsFromShares.
		Add(s.RealizedGainsFromShares).
		Add(s.RealizedGainsFromDividends)
}

// Snapshot exports the ledger for persistence and reporting
func (d *Delegator) Snapshot(runID uuid.UUID, timestep int) Snapshot {
	return Snapshot{
		RunID:                      runID,
		Timestep:                   timestep,
		DelegatorID:                d.id,
		TypeCode:                   d.delegatorType.Code(),
		UnvestedShares:             decimal.NewFromFloat(d.TotalUnvestedShares()),
		VestedShares:               decimal.NewFromFloat(d.vestedShares),
		ReserveTokenHoldings:       decimal.NewFromFloat(d.reserveTokenHoldings),
		PrivatePrice:               decimal.NewFromFloat(d.privatePrice),
		CostBasis:                  decimal.NewFromFloat(d.costBasis),
		UnrealizedGainsFromShares:  decimal.NewFromFloat(d.unrealizedGainsFromShares),
		RealizedGainsFromShares:    decimal.NewFromFloat(d.realizedGainsFromShares),
		RealizedGainsFromDividends: decimal.NewFromFloat(d.realizedGainsFromDividends),
	}
}
