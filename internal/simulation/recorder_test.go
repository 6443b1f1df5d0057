package simulation

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"revshare/internal/domain/delegator"
	"revshare/internal/domain/pool"
	"revshare/pkg/errors"
)

type mockSnapshotRepository struct {
	mock.Mock
}

func (m *mockSnapshotRepository) SaveSnapshots(ctx context.Context, snapshots []delegator.Snapshot) error {
	return m.Called(ctx, snapshots).Error(0)
}

func (m *mockSnapshotRepository) GetLatest(ctx context.Context, runID uuid.UUID, delegatorID int64) (*delegator.Snapshot, error) {
	args := m.Called(ctx, runID, delegatorID)
	if s := args.Get(0); s != nil {
		return s.(*delegator.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSnapshotRepository) ListByTimestep(ctx context.Context, runID uuid.UUID, timestep int) ([]delegator.Snapshot, error) {
	args := m.Called(ctx, runID, timestep)
	return args.Get(0).([]delegator.Snapshot), args.Error(1)
}

type mockPoolRepository struct {
	mock.Mock
}

func (m *mockPoolRepository) InsertSnapshots(ctx context.Context, snapshots []pool.Snapshot) error {
	return m.Called(ctx, snapshots).Error(0)
}

func (m *mockPoolRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]pool.Snapshot, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).([]pool.Snapshot), args.Error(1)
}

type mockPoolCache struct {
	mock.Mock
}

func (m *mockPoolCache) SetLatest(ctx context.Context, snapshot pool.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *mockPoolCache) GetLatest(ctx context.Context, runID uuid.UUID) (*pool.Snapshot, error) {
	args := m.Called(ctx, runID)
	if s := args.Get(0); s != nil {
		return s.(*pool.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	return m.Called(ctx, topic, key, event).Error(0)
}

func (m *mockPublisher) PublishBatch(ctx context.Context, topic string, keys []string, events []interface{}) error {
	return m.Called(ctx, topic, keys, events).Error(0)
}

func testRecord(ts int) StepRecord {
	return StepRecord{
		RunID:    uuid.MustParse("6f1c2f9e-3a47-4c1b-9a55-1d2b3c4d5e6f"),
		Timestep: ts,
		Pool:     pool.State{Supply: 1000, Reserve: 1000},
		Stats:    pool.StepStats{Buys: 1, Members: 4},
	}
}

func TestMultiRecorder_CallsEveryRecorder(t *testing.T) {
	failing := &captureRecorder{err: fmt.Errorf("boom")}
	ok := &captureRecorder{}
	multi := NewMultiRecorder(failing, ok)

	err := multi.RecordStep(context.Background(), testRecord(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRecorderFailed))
	assert.Contains(t, err.Error(), "capture")

	assert.Len(t, failing.records, 1)
	assert.Len(t, ok.records, 1)

	require.NoError(t, multi.Flush(context.Background()))
	assert.Equal(t, 1, failing.flushed)
	assert.Equal(t, 1, ok.flushed)
	assert.Equal(t, 2, multi.Len())
}

func TestMultiRecorder_Empty(t *testing.T) {
	multi := NewMultiRecorder()
	assert.NoError(t, multi.RecordStep(context.Background(), testRecord(1)))
	assert.NoError(t, multi.Flush(context.Background()))
}

func TestSnapshotRecorder(t *testing.T) {
	repo := new(mockSnapshotRepository)
	rec := NewSnapshotRecorder(repo)
	ctx := context.Background()

	// nothing to save on steps without snapshots
	require.NoError(t, rec.RecordStep(ctx, testRecord(1)))
	repo.AssertNotCalled(t, "SaveSnapshots", mock.Anything, mock.Anything)

	record := testRecord(2)
	record.Delegators = []delegator.Snapshot{{RunID: record.RunID, Timestep: 2, DelegatorID: 1}}
	repo.On("SaveSnapshots", ctx, record.Delegators).Return(nil)

	require.NoError(t, rec.RecordStep(ctx, record))
	repo.AssertExpectations(t)
}

func TestPoolHistoryRecorder_Batches(t *testing.T) {
	repo := new(mockPoolRepository)
	rec := NewPoolHistoryRecorder(repo, 2)
	ctx := context.Background()

	repo.On("InsertSnapshots", ctx, mock.MatchedBy(func(s []pool.Snapshot) bool {
		return len(s) == 2 && s[0].Timestep == 1 && s[1].Timestep == 2
	})).Return(nil).Once()
	repo.On("InsertSnapshots", ctx, mock.MatchedBy(func(s []pool.Snapshot) bool {
		return len(s) == 1 && s[0].Timestep == 3
	})).Return(nil).Once()

	require.NoError(t, rec.RecordStep(ctx, testRecord(1)))
	repo.AssertNotCalled(t, "InsertSnapshots", mock.Anything, mock.Anything)

	require.NoError(t, rec.RecordStep(ctx, testRecord(2)))
	require.NoError(t, rec.RecordStep(ctx, testRecord(3)))
	require.NoError(t, rec.Flush(ctx))
	require.NoError(t, rec.Flush(ctx))

	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "InsertSnapshots", 2)
}

func TestPoolHistoryRecorder_KeepsBatchOnFailure(t *testing.T) {
	repo := new(mockPoolRepository)
	rec := NewPoolHistoryRecorder(repo, 0)
	ctx := context.Background()

	repo.On("InsertSnapshots", ctx, mock.Anything).Return(errors.ErrUnavailable).Once()
	repo.On("InsertSnapshots", ctx, mock.MatchedBy(func(s []pool.Snapshot) bool {
		return len(s) == 2
	})).Return(nil).Once()

	assert.True(t, errors.Is(rec.RecordStep(ctx, testRecord(1)), errors.ErrUnavailable))
	require.NoError(t, rec.RecordStep(ctx, testRecord(2)))
	repo.AssertExpectations(t)
}

func TestPoolCacheRecorder(t *testing.T) {
	cache := new(mockPoolCache)
	rec := NewPoolCacheRecorder(cache)
	ctx := context.Background()
	record := testRecord(5)

	cache.On("SetLatest", ctx, mock.MatchedBy(func(s pool.Snapshot) bool {
		spot, _ := s.SpotPrice.Float64()
		return s.RunID == record.RunID && s.Timestep == 5 && spot == 2 && s.Members == 4
	})).Return(nil)

	require.NoError(t, rec.RecordStep(ctx, record))
	cache.AssertExpectations(t)
}

func TestEventRecorder(t *testing.T) {
	pub := new(mockPublisher)
	topics := EventTopics{Trades: "trades", Steps: "steps"}
	rec := NewEventRecorder(pub, topics)
	ctx := context.Background()

	record := testRecord(3)
	record.Trades = []TradeEvent{
		{RunID: record.RunID, Timestep: 3, DelegatorID: 4, Side: "buy", CreatedShares: 2, AddedReserve: 4},
		{RunID: record.RunID, Timestep: 3, DelegatorID: 11, Side: "sell", CreatedShares: -1, AddedReserve: -2},
	}

	pub.On("PublishBatch", ctx, "trades", []string{"4", "11"}, mock.MatchedBy(func(events []interface{}) bool {
		return len(events) == 2 && events[1].(TradeEvent).DelegatorID == 11
	})).Return(nil)
	pub.On("Publish", ctx, "steps", record.RunID.String(), mock.MatchedBy(func(e interface{}) bool {
		step, ok := e.(PoolStepEvent)
		return ok && step.Timestep == 3 && step.SpotPrice == 2 && step.Buys == 1
	})).Return(nil)

	require.NoError(t, rec.RecordStep(ctx, record))
	pub.AssertExpectations(t)
}

func TestEventRecorder_SkipsEmptyTradeBatch(t *testing.T) {
	pub := new(mockPublisher)
	rec := NewEventRecorder(pub, EventTopics{Trades: "trades", Steps: "steps"})
	ctx := context.Background()

	pub.On("Publish", ctx, "steps", mock.Anything, mock.Anything).Return(errors.ErrPublishFailed)

	err := rec.RecordStep(ctx, testRecord(1))
	assert.True(t, errors.Is(err, errors.ErrPublishFailed))
	pub.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMetricsRecorder(t *testing.T) {
	rec := NewMetricsRecorder()
	record := testRecord(1)
	record.Delegators = []delegator.Snapshot{{DelegatorID: 1, TypeCode: 1}}

	assert.NoError(t, rec.RecordStep(context.Background(), record))
	assert.Equal(t, "metrics", rec.Name())
}
