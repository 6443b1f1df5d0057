package delegator

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for delegator snapshot storage
type Repository interface {
	SaveSnapshots(ctx context.Context, snapshots []Snapshot) error
	GetLatest(ctx context.Context, runID uuid.UUID, delegatorID int64) (*Snapshot, error)
	ListByTimestep(ctx context.Context, runID uuid.UUID, timestep int) ([]Snapshot, error)
}
