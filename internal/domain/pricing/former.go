package pricing

import (
	"github.com/markcheno/go-talib"

	"revshare/internal/domain/delegator"
)

// DefaultTrendPeriod is the EMA window of the trend signal
const DefaultTrendPeriod = 10

// Signals are the three private-price inputs, in weight order
type Signals struct {
	MeanReversion float64
	Fundamental   float64
	Trend         float64
}

// Former turns spot history and per-delegator beliefs into private prices.
// Spot history is pool-wide; the smoothed mean-reversion level is kept per
// delegator.
type Former struct {
	trendPeriod int
	history     []float64
	smoothed    map[int64]float64
}

// NewFormer creates a price former; periods below 2 fall back to the default
func NewFormer(trendPeriod int) *Former {
	if trendPeriod < 2 {
		trendPeriod = DefaultTrendPeriod
	}
	return &Former{
		trendPeriod: trendPeriod,
		smoothed:    make(map[int64]float64),
	}
}

// Observe appends the timestep's spot price to the history
func (f *Former) Observe(spot float64) {
	f.history = append(f.history, spot)
	// keep enough history for the EMA to settle
	if limit := f.trendPeriod * 8; len(f.history) > limit {
		f.history = f.history[len(f.history)-limit:]
	}
}

// Spot returns the last observed spot price
func (f *Former) Spot() float64 {
	if len(f.history) == 0 {
		return 0
	}
	return f.history[len(f.history)-1]
}

// Signals computes the inputs for one delegator. fundamental is the
// delegator's time-corrected per-share dividend value.
func (f *Former) Signals(d *delegator.Delegator, fundamental float64) Signals {
	spot := f.Spot()
	return Signals{
		MeanReversion: f.meanReversion(d.ID(), d.SmoothingFactor(), spot),
		Fundamental:   fundamental,
		Trend:         f.trend(spot),
	}
}

// PrivatePrice blends the signals with the delegator's weights
func (f *Former) PrivatePrice(w delegator.Weights, s Signals) float64 {
	return w.Blend(s.MeanReversion, s.Fundamental, s.Trend)
}

// meanReversion exponentially smooths spot: level = a*level + (1-a)*spot
func (f *Former) meanReversion(id int64, alpha, spot float64) float64 {
	level, ok := f.smoothed[id]
	if !ok {
		level = spot
	}
	level = alpha*level + (1-alpha)*spot
	f.smoothed[id] = level
	return level
}

// trend extrapolates spot by the latest EMA slope
func (f *Former) trend(spot float64) float64 {
	if len(f.history) <= f.trendPeriod {
		return spot
	}
	ema := talib.Ema(f.history, f.trendPeriod)
	n := len(ema)
	return spot + (ema[n-1] - ema[n-2])
}
