package noop

import (
	"context"

	"revshare/pkg/errors"
)

// Tracker discards everything; used when error tracking is disabled
type Tracker struct{}

var _ errors.Tracker = (*Tracker)(nil)

// New creates a new no-op tracker
func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	return nil
}

func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	return nil
}

func (t *Tracker) SetRun(runID string, seed uint64) {}

func (t *Tracker) Flush(ctx context.Context) error {
	return nil
}
