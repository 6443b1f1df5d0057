package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pool metrics
	PoolSupply = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revshare_pool_supply_shares",
			Help: "Total shares outstanding in the pool",
		},
	)

	PoolReserve = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revshare_pool_reserve",
			Help: "Reserve held by the bonding curve",
		},
	)

	PoolSpotPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revshare_pool_spot_price",
			Help: "Bonding-curve spot price 2R/S",
		},
	)

	PoolMembers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revshare_pool_members",
			Help: "Delegators holding a positive share balance",
		},
	)

	Timestep = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revshare_simulation_timestep",
			Help: "Last completed simulation timestep",
		},
	)

	// Trade metrics
	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revshare_trades_total",
			Help: "Total number of delegator trades",
		},
		[]string{"side"}, // side: buy|sell
	)

	TradesClipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revshare_trades_clipped_total",
			Help: "Trades reduced by holdings, vested-share or minimum-share limits",
		},
	)

	TradeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revshare_trade_reserve_volume_total",
			Help: "Reserve moved by trades",
		},
		[]string{"side"},
	)

	DividendsAccrued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revshare_dividends_accrued_total",
			Help: "Dividends accrued to delegators in reserve units",
		},
	)

	SharesVested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revshare_shares_vested_total",
			Help: "Shares promoted from unvested to vested",
		},
	)

	StepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revshare_step_duration_seconds",
			Help:    "Wall time spent on one simulation timestep",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// Sink metrics
	RecorderWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revshare_recorder_writes_total",
			Help: "Step records written per sink",
		},
		[]string{"recorder", "status"}, // status: success|error
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(PoolSupply)
		prometheus.MustRegister(PoolReserve)
		prometheus.MustRegister(PoolSpotPrice)
		prometheus.MustRegister(PoolMembers)
		prometheus.MustRegister(Timestep)

		prometheus.MustRegister(Trades)
		prometheus.MustRegister(TradesClipped)
		prometheus.MustRegister(TradeVolume)
		prometheus.MustRegister(DividendsAccrued)
		prometheus.MustRegister(SharesVested)
		prometheus.MustRegister(StepDuration)

		prometheus.MustRegister(RecorderWrites)

		prometheus.MustRegister(Population)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// StepSample is what one timestep reports to metrics
type StepSample struct {
	Timestep   int
	Supply     float64
	Reserve    float64
	SpotPrice  float64
	Members    int
	Buys       int
	Sells      int
	Clipped    int
	BuyVolume  float64
	SellVolume float64
	Dividends  float64
	Vested     float64
	Duration   time.Duration
}

// RecordStep updates pool gauges and trade counters
func RecordStep(s StepSample) {
	Timestep.Set(float64(s.Timestep))
	PoolSupply.Set(s.Supply)
	PoolReserve.Set(s.Reserve)
	PoolSpotPrice.Set(s.SpotPrice)
	PoolMembers.Set(float64(s.Members))

	Trades.WithLabelValues("buy").Add(float64(s.Buys))
	Trades.WithLabelValues("sell").Add(float64(s.Sells))
	TradesClipped.Add(float64(s.Clipped))
	TradeVolume.WithLabelValues("buy").Add(s.BuyVolume)
	TradeVolume.WithLabelValues("sell").Add(s.SellVolume)

	if s.Dividends > 0 {
		DividendsAccrued.Add(s.Dividends)
	}
	if s.Vested > 0 {
		SharesVested.Add(s.Vested)
	}
	StepDuration.Observe(s.Duration.Seconds())
}

// RecordWrite records a sink write
func RecordWrite(recorder string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RecorderWrites.WithLabelValues(recorder, status).Inc()
}
