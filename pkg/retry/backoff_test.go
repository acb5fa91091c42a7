package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fast(n int) Config {
	return Config{MaxRetries: n, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fast(5), zaptest.NewLogger(t), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := WithBackoff(context.Background(), fast(3), zaptest.NewLogger(t), "op", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "op failed after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestWithBackoff_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("bad credentials")
	err := WithBackoff(context.Background(), fast(5), zaptest.NewLogger(t), "op", func() error {
		calls++
		return Permanent(boom)
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestWithBackoff_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := WithBackoff(ctx, fast(5), zaptest.NewLogger(t), "op", func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDelay(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, Delay(cfg, 1))
	assert.Equal(t, 400*time.Millisecond, Delay(cfg, 3))
	assert.Equal(t, time.Second, Delay(cfg, 10))

	cfg.JitterEnabled = true
	for i := 0; i < 50; i++ {
		d := Delay(cfg, 1)
		assert.GreaterOrEqual(t, d, 85*time.Millisecond)
		assert.LessOrEqual(t, d, 115*time.Millisecond)
	}
}
