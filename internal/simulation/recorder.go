package simulation

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"revshare/internal/domain/delegator"
	"revshare/internal/domain/pool"
	"revshare/internal/metrics"
	"revshare/pkg/errors"
)

// StepRecord is everything one timestep produced
type StepRecord struct {
	RunID      uuid.UUID
	Timestep   int
	Pool       pool.State
	Stats      pool.StepStats
	Trades     []TradeEvent
	Delegators []delegator.Snapshot // set on snapshot steps only
	Duration   time.Duration
}

// PoolSnapshot converts the record into a pool snapshot row
func (r StepRecord) PoolSnapshot() pool.Snapshot {
	return pool.NewSnapshot(r.RunID, r.Timestep, r.Pool, r.Stats)
}

// TradeEvent is one executed trade
type TradeEvent struct {
	RunID         uuid.UUID `json:"run_id"`
	Timestep      int       `json:"timestep"`
	DelegatorID   int64     `json:"delegator_id"`
	Side          string    `json:"side"`
	CreatedShares float64   `json:"created_shares"`
	AddedReserve  float64   `json:"added_reserve"`
	SpotBefore    float64   `json:"spot_before"`
	SpotAfter     float64   `json:"spot_after"`
	Clipped       bool      `json:"clipped"`
}

// PoolStepEvent is the pool state published after each timestep
type PoolStepEvent struct {
	RunID     uuid.UUID `json:"run_id"`
	Timestep  int       `json:"timestep"`
	Supply    float64   `json:"supply"`
	Reserve   float64   `json:"reserve"`
	SpotPrice float64   `json:"spot_price"`
	Buys      int       `json:"buys"`
	Sells     int       `json:"sells"`
	Members   int       `json:"members"`
}

// Recorder receives each finished timestep
type Recorder interface {
	Name() string
	RecordStep(ctx context.Context, record StepRecord) error
}

// Flusher is implemented by recorders that buffer steps
type Flusher interface {
	Flush(ctx context.Context) error
}

// NopRecorder discards every step
type NopRecorder struct{}

// Name implements Recorder
func (NopRecorder) Name() string { return "nop" }

// RecordStep implements Recorder
func (NopRecorder) RecordStep(context.Context, StepRecord) error { return nil }

// MultiRecorder fans a step out to several recorders. Every recorder is
// called even when an earlier one fails.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a fan-out recorder
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

// Name implements Recorder
func (m *MultiRecorder) Name() string { return "multi" }

// Len returns the number of wrapped recorders
func (m *MultiRecorder) Len() int { return len(m.recorders) }

// RecordStep implements Recorder
func (m *MultiRecorder) RecordStep(ctx context.Context, record StepRecord) error {
	var errs errors.MultiError
	for _, r := range m.recorders {
		err := r.RecordStep(ctx, record)
		metrics.RecordWrite(r.Name(), err)
		if err != nil {
			errs.Add(errors.Wrapf(errors.ErrRecorderFailed, "%s: %v", r.Name(), err))
		}
	}
	return errs.ToError()
}

// Flush flushes every wrapped recorder that buffers
func (m *MultiRecorder) Flush(ctx context.Context) error {
	var errs errors.MultiError
	for _, r := range m.recorders {
		f, ok := r.(Flusher)
		if !ok {
			continue
		}
		err := f.Flush(ctx)
		metrics.RecordWrite(r.Name(), err)
		if err != nil {
			errs.Add(errors.Wrapf(errors.ErrRecorderFailed, "%s flush: %v", r.Name(), err))
		}
	}
	return errs.ToError()
}

// SnapshotRecorder stores delegator snapshots
type SnapshotRecorder struct {
	repo delegator.Repository
}

// NewSnapshotRecorder creates a recorder over a delegator repository
func NewSnapshotRecorder(repo delegator.Repository) *SnapshotRecorder {
	return &SnapshotRecorder{repo: repo}
}

// Name implements Recorder
func (r *SnapshotRecorder) Name() string { return "delegator_snapshots" }

// RecordStep implements Recorder
func (r *SnapshotRecorder) RecordStep(ctx context.Context, record StepRecord) error {
	if len(record.Delegators) == 0 {
		return nil
	}
	return r.repo.SaveSnapshots(ctx, record.Delegators)
}

// PoolHistoryRecorder buffers pool snapshots and inserts them in batches
type PoolHistoryRecorder struct {
	repo      pool.Repository
	batchSize int
	pending   []pool.Snapshot
}

// NewPoolHistoryRecorder creates a batching recorder; batchSize below 1 means 1
func NewPoolHistoryRecorder(repo pool.Repository, batchSize int) *PoolHistoryRecorder {
	if batchSize < 1 {
		batchSize = 1
	}
	return &PoolHistoryRecorder{repo: repo, batchSize: batchSize}
}

// Name implements Recorder
func (r *PoolHistoryRecorder) Name() string { return "pool_history" }

// RecordStep implements Recorder
func (r *PoolHistoryRecorder) RecordStep(ctx context.Context, record StepRecord) error {
	r.pending = append(r.pending, record.PoolSnapshot())
	if len(r.pending) < r.batchSize {
		return nil
	}
	return r.Flush(ctx)
}

// Flush inserts whatever is buffered
func (r *PoolHistoryRecorder) Flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.repo.InsertSnapshots(ctx, r.pending); err != nil {
		return err
	}
	r.pending = nil
	return nil
}

// PoolCacheRecorder keeps the latest pool snapshot in a cache
type PoolCacheRecorder struct {
	cache pool.Cache
}

// NewPoolCacheRecorder creates a cache recorder
func NewPoolCacheRecorder(cache pool.Cache) *PoolCacheRecorder {
	return &PoolCacheRecorder{cache: cache}
}

// Name implements Recorder
func (r *PoolCacheRecorder) Name() string { return "pool_cache" }

// RecordStep implements Recorder
func (r *PoolCacheRecorder) RecordStep(ctx context.Context, record StepRecord) error {
	return r.cache.SetLatest(ctx, record.PoolSnapshot())
}

// Publisher sends JSON events to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
	PublishBatch(ctx context.Context, topic string, keys []string, events []interface{}) error
}

// EventTopics names the topics the event recorder writes to
type EventTopics struct {
	Trades string
	Steps  string
}

// EventRecorder publishes trades keyed by delegator and the pool step keyed by run
type EventRecorder struct {
	publisher Publisher
	topics    EventTopics
}

// NewEventRecorder creates an event recorder
func NewEventRecorder(publisher Publisher, topics EventTopics) *EventRecorder {
	return &EventRecorder{publisher: publisher, topics: topics}
}

// Name implements Recorder
func (r *EventRecorder) Name() string { return "events" }

// RecordStep implements Recorder
func (r *EventRecorder) RecordStep(ctx context.Context, record StepRecord) error {
	if len(record.Trades) > 0 {
		keys := make([]string, len(record.Trades))
		events := make([]interface{}, len(record.Trades))
		for i, t := range record.Trades {
			keys[i] = strconv.FormatInt(t.DelegatorID, 10)
			events[i] = t
		}
		if err := r.publisher.PublishBatch(ctx, r.topics.Trades, keys, events); err != nil {
			return errors.Wrapf(err, "publish %d trades", len(events))
		}
	}

	step := PoolStepEvent{
		RunID:     record.RunID,
		Timestep:  record.Timestep,
		Supply:    record.Pool.Supply,
		Reserve:   record.Pool.Reserve,
		SpotPrice: record.Pool.SpotPrice(),
		Buys:      record.Stats.Buys,
		Sells:     record.Stats.Sells,
		Members:   record.Stats.Members,
	}
	return r.publisher.Publish(ctx, r.topics.Steps, record.RunID.String(), step)
}

// MetricsRecorder updates the prometheus gauges and counters
type MetricsRecorder struct{}

// NewMetricsRecorder creates a metrics recorder
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// Name implements Recorder
func (r *MetricsRecorder) Name() string { return "metrics" }

// RecordStep implements Recorder
func (r *MetricsRecorder) RecordStep(_ context.Context, record StepRecord) error {
	metrics.RecordStep(metrics.StepSample{
		Timestep:   record.Timestep,
		Supply:     record.Pool.Supply,
		Reserve:    record.Pool.Reserve,
		SpotPrice:  record.Pool.SpotPrice(),
		Members:    record.Stats.Members,
		Buys:       record.Stats.Buys,
		Sells:      record.Stats.Sells,
		Clipped:    record.Stats.Clipped,
		BuyVolume:  record.Stats.BuyVolume,
		SellVolume: record.Stats.SellVolume,
		Dividends:  record.Stats.Dividends,
		Vested:     record.Stats.Vested,
		Duration:   record.Duration,
	})
	if len(record.Delegators) > 0 {
		metrics.Population.Update(record.Delegators)
	}
	return nil
}
