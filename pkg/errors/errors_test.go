package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiError(t *testing.T) {
	var errs MultiError
	assert.NoError(t, errs.ToError())

	errs.Add(nil)
	errs.Add(Wrap(ErrRecorderFailed, "postgres"))
	assert.EqualError(t, errs.ToError(), "postgres: step recorder failed")

	errs.Add(Wrapf(ErrUnavailable, "redis %s", "down"))
	err := errs.ToError()
	assert.EqualError(t, err, "2 errors: postgres: step recorder failed; redis down: service unavailable")
	assert.True(t, Is(err, ErrRecorderFailed))
	assert.True(t, Is(err, ErrUnavailable))
}

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	err := Wrap(NewValidationError("half_life", "must be positive", 0), "vesting")

	assert.True(t, Is(err, ErrInvalidInput))

	var verr *ValidationError
	assert.True(t, As(err, &verr))
	assert.Equal(t, "half_life", verr.Field)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
}

func TestTimestepContext(t *testing.T) {
	_, ok := TimestepFrom(context.Background())
	assert.False(t, ok)

	ts, ok := TimestepFrom(WithTimestep(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, 42, ts)
}
