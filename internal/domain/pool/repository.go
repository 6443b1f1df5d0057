package pool

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for pool history storage
type Repository interface {
	InsertSnapshots(ctx context.Context, snapshots []Snapshot) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]Snapshot, error)
}

// Cache holds the most recent pool snapshot of a run
type Cache interface {
	SetLatest(ctx context.Context, snapshot Snapshot) error
	GetLatest(ctx context.Context, runID uuid.UUID) (*Snapshot, error)
}
