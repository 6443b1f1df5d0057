package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"revshare/internal/domain/pool"
	"revshare/pkg/errors"
)

// Compile-time check
var _ pool.Repository = (*PoolHistoryRepository)(nil)

const poolHistorySchema = `
	CREATE TABLE IF NOT EXISTS pool_history (
		run_id      UUID,
		timestep    Int64,
		supply      Decimal(38, 12),
		reserve     Decimal(38, 12),
		spot_price  Decimal(38, 12),
		buys        Int64,
		sells       Int64,
		members     Int64,
		recorded_at DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (run_id, timestep)`

// PoolHistoryRepository implements pool.Repository using ClickHouse
type PoolHistoryRepository struct {
	conn driver.Conn
}

// NewPoolHistoryRepository creates a new pool history repository
func NewPoolHistoryRepository(conn driver.Conn) *PoolHistoryRepository {
	return &PoolHistoryRepository{conn: conn}
}

// Migrate creates the history table if it does not exist
func (r *PoolHistoryRepository) Migrate(ctx context.Context) error {
	if err := r.conn.Exec(ctx, poolHistorySchema); err != nil {
		return errors.Wrap(err, "failed to create pool_history")
	}
	return nil
}

// InsertSnapshots inserts pool snapshots in batch
func (r *PoolHistoryRepository) InsertSnapshots(ctx context.Context, snapshots []pool.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO pool_history (
			run_id, timestep, supply, reserve, spot_price,
			buys, sells, members, recorded_at
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, s := range snapshots {
		err := batch.Append(
			s.RunID, int64(s.Timestep), s.Supply, s.Reserve, s.SpotPrice,
			int64(s.Buys), int64(s.Sells), int64(s.Members), s.RecordedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append pool snapshot")
		}
	}

	return batch.Send()
}

// poolHistoryRow mirrors the table's column types for scanning
type poolHistoryRow struct {
	RunID      uuid.UUID       `ch:"run_id"`
	Timestep   int64           `ch:"timestep"`
	Supply     decimal.Decimal `ch:"supply"`
	Reserve    decimal.Decimal `ch:"reserve"`
	SpotPrice  decimal.Decimal `ch:"spot_price"`
	Buys       int64           `ch:"buys"`
	Sells      int64           `ch:"sells"`
	Members    int64           `ch:"members"`
	RecordedAt time.Time       `ch:"recorded_at"`
}

// ListByRun retrieves a run's pool history in timestep order
func (r *PoolHistoryRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]pool.Snapshot, error) {
	var rows []poolHistoryRow

	query := `
		SELECT run_id, timestep, supply, reserve, spot_price,
		       buys, sells, members, recorded_at
		FROM pool_history
		WHERE run_id = ?
		ORDER BY timestep`

	if err := r.conn.Select(ctx, &rows, query, runID); err != nil {
		return nil, errors.Wrapf(err, "failed to list pool history for run %s", runID)
	}

	snapshots := make([]pool.Snapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, pool.Snapshot{
			RunID:      row.RunID,
			Timestep:   int(row.Timestep),
			Supply:     row.Supply,
			Reserve:    row.Reserve,
			SpotPrice:  row.SpotPrice,
			Buys:       int(row.Buys),
			Sells:      int(row.Sells),
			Members:    int(row.Members),
			RecordedAt: row.RecordedAt,
		})
	}
	return snapshots, nil
}
