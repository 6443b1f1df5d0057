package errors

import (
	"context"
)

// Tracker reports errors to an external service (Sentry or a no-op)
type Tracker interface {
	// CaptureError sends an error to the tracking service
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage sends a message to the tracking service
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// SetRun associates subsequent events with a simulation run
	SetRun(runID string, seed uint64)

	// Flush waits for all pending events to be sent
	Flush(ctx context.Context) error
}

// Level represents the severity level of an error or message
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// String returns the string representation of the level
func (l Level) String() string {
	return string(l)
}

type contextKey string

const timestepKey contextKey = "timestep"

// WithTimestep attaches the simulation timestep to ctx for error reports
func WithTimestep(ctx context.Context, timestep int) context.Context {
	return context.WithValue(ctx, timestepKey, timestep)
}

// TimestepFrom reads the timestep set by WithTimestep
func TimestepFrom(ctx context.Context) (int, bool) {
	ts, ok := ctx.Value(timestepKey).(int)
	return ts, ok
}
