package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"revshare/internal/domain/delegator"
	"revshare/pkg/errors"
)

// MockDBTX is a mock for DBTX
type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	a := m.Called(ctx, query)
	return nil, a.Error(1)
}

func (m *MockDBTX) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	a := m.Called(ctx, dest, query, args)
	return a.Error(0)
}

func (m *MockDBTX) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	a := m.Called(ctx, dest, query, args)
	return a.Error(0)
}

func (m *MockDBTX) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	a := m.Called(ctx, query, arg)
	return nil, a.Error(1)
}

func TestDelegatorSnapshotRepository_SaveSnapshots(t *testing.T) {
	db := new(MockDBTX)
	repo := NewDelegatorSnapshotRepository(db)
	ctx := context.Background()

	snapshots := []delegator.Snapshot{
		{RunID: uuid.New(), Timestep: 1, DelegatorID: 3, VestedShares: decimal.NewFromInt(10)},
	}
	db.On("NamedExecContext", ctx, mock.MatchedBy(func(q string) bool {
		return assert.Contains(t, q, "INSERT INTO delegator_snapshots")
	}), snapshots).Return(nil, nil)

	require.NoError(t, repo.SaveSnapshots(ctx, snapshots))
	db.AssertExpectations(t)
}

func TestDelegatorSnapshotRepository_SaveSnapshotsInChunks(t *testing.T) {
	db := new(MockDBTX)
	repo := NewDelegatorSnapshotRepository(db)
	ctx := context.Background()

	runID := uuid.New()
	snapshots := make([]delegator.Snapshot, 2*snapshotBatchRows+500)
	for i := range snapshots {
		snapshots[i] = delegator.Snapshot{RunID: runID, Timestep: 1, DelegatorID: int64(i)}
	}

	var sizes []int
	var firstIDs []int64
	db.On("NamedExecContext", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			chunk := args.Get(2).([]delegator.Snapshot)
			sizes = append(sizes, len(chunk))
			firstIDs = append(firstIDs, chunk[0].DelegatorID)
		}).
		Return(nil, nil)

	require.NoError(t, repo.SaveSnapshots(ctx, snapshots))
	assert.Equal(t, []int{snapshotBatchRows, snapshotBatchRows, 500}, sizes)
	assert.Equal(t, []int64{0, snapshotBatchRows, 2 * snapshotBatchRows}, firstIDs)
}

func TestDelegatorSnapshotRepository_SaveSnapshotsStopsOnChunkError(t *testing.T) {
	db := new(MockDBTX)
	repo := NewDelegatorSnapshotRepository(db)
	ctx := context.Background()

	snapshots := make([]delegator.Snapshot, snapshotBatchRows+1)
	db.On("NamedExecContext", ctx, mock.Anything, mock.Anything).
		Return(nil, errors.ErrUnavailable).Once()

	err := repo.SaveSnapshots(ctx, snapshots)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.Contains(t, err.Error(), "0-1000 of 1001")
	db.AssertNumberOfCalls(t, "NamedExecContext", 1)
}

func TestDelegatorSnapshotRepository_SaveEmptyBatch(t *testing.T) {
	db := new(MockDBTX)
	repo := NewDelegatorSnapshotRepository(db)

	require.NoError(t, repo.SaveSnapshots(context.Background(), nil))
	db.AssertNotCalled(t, "NamedExecContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelegatorSnapshotRepository_GetLatestNotFound(t *testing.T) {
	db := new(MockDBTX)
	repo := NewDelegatorSnapshotRepository(db)
	ctx := context.Background()
	runID := uuid.New()

	db.On("GetContext", ctx, mock.AnythingOfType("*delegator.Snapshot"), mock.Anything, mock.Anything).
		Return(sql.ErrNoRows)

	_, err := repo.GetLatest(ctx, runID, 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDelegatorSnapshotRepository_Migrate(t *testing.T) {
	db := new(MockDBTX)
	repo := NewDelegatorSnapshotRepository(db)
	ctx := context.Background()

	db.On("ExecContext", ctx, delegatorSnapshotSchema).Return(nil, nil)

	require.NoError(t, repo.Migrate(ctx))
	db.AssertExpectations(t)
}
