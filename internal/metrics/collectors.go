package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"revshare/internal/domain/delegator"
)

// Population is the collector registered by Init
var Population = NewPopulationCollector()

// PopulationCollector reports delegator ledgers aggregated by type.
// The engine hands it snapshots after each step, so scrapes never touch
// live delegator state.
type PopulationCollector struct {
	mu        sync.RWMutex
	snapshots []delegator.Snapshot

	shares     *prometheus.Desc
	vested     *prometheus.Desc
	holdings   *prometheus.Desc
	realized   *prometheus.Desc
	unrealized *prometheus.Desc
	dividends  *prometheus.Desc
}

// NewPopulationCollector creates an empty population collector
func NewPopulationCollector() *PopulationCollector {
	labels := []string{"type"}
	return &PopulationCollector{
		shares: prometheus.NewDesc(
			"revshare_delegator_shares",
			"Shares held by delegators, unvested plus vested",
			labels, nil,
		),
		vested: prometheus.NewDesc(
			"revshare_delegator_vested_shares",
			"Vested shares held by delegators",
			labels, nil,
		),
		holdings: prometheus.NewDesc(
			"revshare_delegator_reserve_holdings",
			"Reserve tokens held by delegators",
			labels, nil,
		),
		realized: prometheus.NewDesc(
			"revshare_delegator_realized_gains",
			"Realized gains from share sales",
			labels, nil,
		),
		unrealized: prometheus.NewDesc(
			"revshare_delegator_unrealized_gains",
			"Unrealized gains on held shares",
			labels, nil,
		),
		dividends: prometheus.NewDesc(
			"revshare_delegator_dividend_gains",
			"Realized gains from dividends",
			labels, nil,
		),
	}
}

// Update replaces the snapshots reported on the next scrape
func (c *PopulationCollector) Update(snapshots []delegator.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = snapshots
}

// Describe implements prometheus.Collector
func (c *PopulationCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.shares
	ch <- c.vested
	ch <- c.holdings
	ch <- c.realized
	ch <- c.unrealized
	ch <- c.dividends
}

type typeTotals struct {
	shares, vested, holdings, realized, unrealized, dividends float64
}

// Collect implements prometheus.Collector
func (c *PopulationCollector) Collect(ch chan<- prometheus.Metric) {
	for label, t := range c.totals() {
		ch <- prometheus.MustNewConstMetric(c.shares, prometheus.GaugeValue, t.shares, label)
		ch <- prometheus.MustNewConstMetric(c.vested, prometheus.GaugeValue, t.vested, label)
		ch <- prometheus.MustNewConstMetric(c.holdings, prometheus.GaugeValue, t.holdings, label)
		ch <- prometheus.MustNewConstMetric(c.realized, prometheus.GaugeValue, t.realized, label)
		ch <- prometheus.MustNewConstMetric(c.unrealized, prometheus.GaugeValue, t.unrealized, label)
		ch <- prometheus.MustNewConstMetric(c.dividends, prometheus.GaugeValue, t.dividends, label)
	}
}

func (c *PopulationCollector) totals() map[string]typeTotals {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]typeTotals)
	for _, s := range c.snapshots {
		label := typeLabel(s.TypeCode)
		t := out[label]
		t.shares += s.TotalShares().InexactFloat64()
		t.vested += s.VestedShares.InexactFloat64()
		t.holdings += s.ReserveTokenHoldings.InexactFloat64()
		t.realized += s.RealizedGainsFromShares.InexactFloat64()
		t.unrealized += s.UnrealizedGainsFromShares.InexactFloat64()
		t.dividends += s.RealizedGainsFromDividends.InexactFloat64()
		out[label] = t
	}
	return out
}

func typeLabel(code int) string {
	t, err := delegator.TypeFromCode(code)
	if err != nil {
		return strconv.Itoa(code)
	}
	return t.String()
}
