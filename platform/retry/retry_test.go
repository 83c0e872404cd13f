package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"tenant_portal_backend/platform/logger"

	"github.com/stretchr/testify/assert"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.Discard(), "flaky", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastError(t *testing.T) {
	err := Do(context.Background(), logger.Discard(), "db", 2, time.Millisecond, func() error {
		return errors.New("refused")
	})
	assert.EqualError(t, err, "db: refused")
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, logger.Discard(), "db", 5, time.Millisecond, func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_InvalidAttempts(t *testing.T) {
	assert.Error(t, Do(context.Background(), logger.Discard(), "x", 0, time.Millisecond, func() error { return nil }))
}
