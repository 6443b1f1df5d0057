package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"revshare/internal/domain/delegator"
	"revshare/pkg/errors"
)

// Compile-time check
var _ delegator.Repository = (*DelegatorSnapshotRepository)(nil)

const delegatorSnapshotSchema = `
	CREATE TABLE IF NOT EXISTS delegator_snapshots (
		run_id                        UUID        NOT NULL,
		timestep                      INTEGER     NOT NULL,
		delegator_id                  BIGINT      NOT NULL,
		type_code                     SMALLINT    NOT NULL,
		unvested_shares               NUMERIC     NOT NULL,
		vested_shares                 NUMERIC     NOT NULL,
		reserve_token_holdings        NUMERIC     NOT NULL,
		private_price                 NUMERIC     NOT NULL,
		cost_basis                    NUMERIC     NOT NULL,
		unrealized_gains_from_shares  NUMERIC     NOT NULL,
		realized_gains_from_shares    NUMERIC     NOT NULL,
		realized_gains_from_dividends NUMERIC     NOT NULL,
		PRIMARY KEY (run_id, timestep, delegator_id)
	)`

// snapshotBatchRows bounds one INSERT; 12 columns per row keeps it far below
// the 65535 bind parameters Postgres accepts per statement
const snapshotBatchRows = 1000

// DelegatorSnapshotRepository implements delegator.Repository using sqlx
type DelegatorSnapshotRepository struct {
	db DBTX
}

// NewDelegatorSnapshotRepository creates a new delegator snapshot repository
func NewDelegatorSnapshotRepository(db DBTX) *DelegatorSnapshotRepository {
	return &DelegatorSnapshotRepository{db: db}
}

// Migrate creates the snapshot table if it does not exist
func (r *DelegatorSnapshotRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, delegatorSnapshotSchema); err != nil {
		return errors.Wrap(err, "failed to create delegator_snapshots")
	}
	return nil
}

// SaveSnapshots inserts snapshots in statements of at most snapshotBatchRows
// rows. Pass a transaction to make the whole batch atomic.
func (r *DelegatorSnapshotRepository) SaveSnapshots(ctx context.Context, snapshots []delegator.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := `
		INSERT INTO delegator_snapshots (
			run_id, timestep, delegator_id, type_code,
			unvested_shares, vested_shares, reserve_token_holdings, private_price,
			cost_basis, unrealized_gains_from_shares,
			realized_gains_from_shares, realized_gains_from_dividends
		) VALUES (
			:run_id, :timestep, :delegator_id, :type_code,
			:unvested_shares, :vested_shares, :reserve_token_holdings, :private_price,
			:cost_basis, :unrealized_gains_from_shares,
			:realized_gains_from_shares, :realized_gains_from_dividends
		)`

	for start := 0; start < len(snapshots); start += snapshotBatchRows {
		end := min(start+snapshotBatchRows, len(snapshots))
		if _, err := r.db.NamedExecContext(ctx, query, snapshots[start:end]); err != nil {
			return errors.Wrapf(err, "failed to insert delegator snapshots %d-%d of %d", start, end, len(snapshots))
		}
	}
	return nil
}

// GetLatest retrieves the most recent snapshot of one delegator in a run
func (r *DelegatorSnapshotRepository) GetLatest(ctx context.Context, runID uuid.UUID, delegatorID int64) (*delegator.Snapshot, error) {
	var s delegator.Snapshot

	query := `
		SELECT * FROM delegator_snapshots
		WHERE run_id = $1 AND delegator_id = $2
		ORDER BY timestep DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &s, query, runID, delegatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "no snapshot for delegator %d in run %s", delegatorID, runID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegator snapshot")
	}

	return &s, nil
}

// ListByTimestep retrieves every delegator's snapshot at one timestep
func (r *DelegatorSnapshotRepository) ListByTimestep(ctx context.Context, runID uuid.UUID, timestep int) ([]delegator.Snapshot, error) {
	var snapshots []delegator.Snapshot

	query := `
		SELECT * FROM delegator_snapshots
		WHERE run_id = $1 AND timestep = $2
		ORDER BY delegator_id`

	if err := r.db.SelectContext(ctx, &snapshots, query, runID, timestep); err != nil {
		return nil, errors.Wrap(err, "failed to list delegator snapshots")
	}

	return snapshots, nil
}
