package simulation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"revshare/internal/domain/delegator"
	"revshare/internal/domain/pool"
	"revshare/internal/domain/pricing"
	"revshare/pkg/errors"
	"revshare/pkg/logger"
)

// Settings are the pool-wide parameters of one run
type Settings struct {
	Timesteps        int
	InitialSupply    float64
	InitialReserve   float64
	OwnersShare      float64 // fraction of revenue kept by the pool owners
	ExchangeRate     float64 // reserve tokens per revenue token
	MinPctDiffToAct  float64
	TrendPeriod      int
	StepsPerSecond   float64 // 0 runs unpaced
	SnapshotInterval int     // attach delegator snapshots every N steps; 0 means final step only
}

// Validate checks the settings
func (s Settings) Validate() error {
	var errs errors.MultiError
	if s.Timesteps <= 0 {
		errs.Add(errors.NewValidationError("timesteps", "must be positive", s.Timesteps))
	}
	if s.InitialSupply <= 0 || s.InitialReserve <= 0 {
		errs.Add(errors.Wrapf(errors.ErrEmptyPool, "initial supply %g, reserve %g", s.InitialSupply, s.InitialReserve))
	}
	if s.OwnersShare < 0 || s.OwnersShare > 1 {
		errs.Add(errors.NewValidationError("owners_share", "must be in [0, 1]", s.OwnersShare))
	}
	if s.ExchangeRate <= 0 {
		errs.Add(errors.NewValidationError("exchange_rate", "must be positive", s.ExchangeRate))
	}
	if s.MinPctDiffToAct < 0 {
		errs.Add(errors.NewValidationError("min_pct_diff_to_act", "must not be negative", s.MinPctDiffToAct))
	}
	if s.StepsPerSecond < 0 {
		errs.Add(errors.NewValidationError("steps_per_second", "must not be negative", s.StepsPerSecond))
	}
	if s.SnapshotInterval < 0 {
		errs.Add(errors.NewValidationError("snapshot_interval", "must not be negative", s.SnapshotInterval))
	}
	return errs.ToError()
}

// Result summarizes a finished or aborted run
type Result struct {
	RunID          uuid.UUID
	Steps          int // timesteps completed
	Pool           pool.State
	Buys           int
	Sells          int
	Clipped        int
	Vested         float64
	Dividends      float64
	RecorderErrors int
	Delegators     []delegator.Snapshot
	Elapsed        time.Duration
}

// Engine drives a population against one pool, one timestep at a time.
// It is single-threaded: every trade is folded into the pool before the
// next delegator sees it.
type Engine struct {
	settings   Settings
	runID      uuid.UUID
	population *Population
	vesting    VestingPolicy
	former     *pricing.Former
	recorder   Recorder
	limiter    *rate.Limiter
	state      pool.State
	log        *logger.Logger
}

// NewEngine creates an engine. A nil recorder discards every step.
func NewEngine(settings Settings, population *Population, vesting VestingPolicy, recorder Recorder) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid simulation settings")
	}
	if population == nil || population.Len() == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "population is empty")
	}
	if vesting == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "vesting policy is required")
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}

	var limiter *rate.Limiter
	if settings.StepsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.StepsPerSecond), 1)
	}

	runID := uuid.New()
	return &Engine{
		settings:   settings,
		runID:      runID,
		population: population,
		vesting:    vesting,
		former:     pricing.NewFormer(settings.TrendPeriod),
		recorder:   recorder,
		limiter:    limiter,
		state:      pool.State{Supply: settings.InitialSupply, Reserve: settings.InitialReserve},
		log:        logger.Get().With("component", "engine", "run_id", runID.String()),
	}, nil
}

// RunID identifies this run in every sink
func (e *Engine) RunID() uuid.UUID { return e.runID }

// State returns the current pool state
func (e *Engine) State() pool.State { return e.state }

// Run executes timesteps 1..Timesteps. Timestep 0 holds the founding grants.
// On cancellation the partial result is returned with ErrRunAborted. If sells
// burn the whole supply, the step that drained the pool is recorded and the
// partial result is returned with ErrEmptyPool.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: e.runID}

	e.log.Infow("Simulation started",
		"delegators", e.population.Len(),
		"timesteps", e.settings.Timesteps,
		"supply", e.state.Supply,
		"reserve", e.state.Reserve,
	)

	var runErr error
	for ts := 1; ts <= e.settings.Timesteps; ts++ {
		if err := e.wait(ctx); err != nil {
			runErr = errors.Wrapf(errors.ErrRunAborted, "at timestep %d: %v", ts, err)
			break
		}

		stepCtx := errors.WithTimestep(ctx, ts)
		record, err := e.step(ts)
		if err != nil {
			runErr = errors.Wrapf(err, "timestep %d", ts)
			break
		}

		result.Steps = ts
		result.Buys += record.Stats.Buys
		result.Sells += record.Stats.Sells
		result.Clipped += record.Stats.Clipped
		result.Vested += record.Stats.Vested
		result.Dividends += record.Stats.Dividends

		if err := e.recorder.RecordStep(stepCtx, record); err != nil {
			result.RecorderErrors++
			e.log.ErrorWithContext(stepCtx, err, map[string]string{"recorder": e.recorder.Name()})
		}

		// a drained pool has no supply to pay dividends on or trade against
		if e.state.Supply <= 0 {
			runErr = errors.Wrapf(errors.ErrEmptyPool, "drained at timestep %d", ts)
			break
		}
	}

	if f, ok := e.recorder.(Flusher); ok {
		// flush with a fresh context so a cancelled run still persists what it buffered
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := f.Flush(flushCtx); err != nil {
			result.RecorderErrors++
			e.log.ErrorWithContext(flushCtx, err, map[string]string{"recorder": e.recorder.Name()})
		}
		cancel()
	}

	result.Pool = e.state
	result.Delegators = e.snapshots(result.Steps)
	result.Elapsed = time.Since(start)

	if runErr != nil {
		e.log.Warnw("Simulation stopped early", "steps", result.Steps, "error", runErr)
		return result, runErr
	}

	e.log.Infow("Simulation finished",
		"steps", result.Steps,
		"buys", result.Buys,
		"sells", result.Sells,
		"spot_price", e.state.SpotPrice(),
		"elapsed", result.Elapsed,
	)
	return result, nil
}

func (e *Engine) wait(ctx context.Context) error {
	if e.limiter != nil {
		return e.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// step runs one timestep against the live pool state
func (e *Engine) step(ts int) (StepRecord, error) {
	start := time.Now()
	record := StepRecord{RunID: e.runID, Timestep: ts}
	stats := &record.Stats

	e.former.Observe(e.state.SpotPrice())

	for _, d := range e.population.Delegators() {
		if e.state.Supply <= 0 {
			break
		}
		stats.Vested += e.vesting.Apply(d, ts)

		accruedBefore := d.RealizedGainsFromDividends()
		fundamental, err := d.DividendValue(e.state.Supply, e.settings.OwnersShare, e.settings.ExchangeRate)
		if err != nil {
			return record, errors.Wrapf(err, "delegator %d", d.ID())
		}
		stats.Dividends += d.RealizedGainsFromDividends() - accruedBefore

		if !d.WillAct() {
			continue
		}
		stats.Acted++

		signals := e.former.Signals(d, fundamental)
		d.SetPrivatePrice(e.former.PrivatePrice(d.ComponentWeights(), signals))

		spotBefore := e.state.SpotPrice()
		trade := d.BuyOrSell(e.state.Supply, e.state.Reserve, spotBefore, e.settings.MinPctDiffToAct, ts)
		stats.Record(trade)
		if trade.IsZero() {
			continue
		}

		e.state.Apply(trade)
		record.Trades = append(record.Trades, TradeEvent{
			RunID:         e.runID,
			Timestep:      ts,
			DelegatorID:   d.ID(),
			Side:          trade.Side.String(),
			CreatedShares: trade.CreatedShares,
			AddedReserve:  trade.AddedReserve,
			SpotBefore:    spotBefore,
			SpotAfter:     e.state.SpotPrice(),
			Clipped:       trade.Clipped,
		})
	}

	for _, d := range e.population.Delegators() {
		if d.IsMember() {
			stats.Members++
		}
	}

	if e.snapshotDue(ts) {
		record.Delegators = e.snapshots(ts)
	}

	record.Pool = e.state
	record.Duration = time.Since(start)
	return record, nil
}

func (e *Engine) snapshotDue(ts int) bool {
	if ts == e.settings.Timesteps {
		return true
	}
	return e.settings.SnapshotInterval > 0 && ts%e.settings.SnapshotInterval == 0
}

func (e *Engine) snapshots(ts int) []delegator.Snapshot {
	out := make([]delegator.Snapshot, 0, e.population.Len())
	for _, d := range e.population.Delegators() {
		out = append(out, d.Snapshot(e.runID, ts))
	}
	return out
}
