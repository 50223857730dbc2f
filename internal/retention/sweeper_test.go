package retention

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSweeper_SweepOnce_CutoffReflectsRetention(t *testing.T) {
	var gotCutoff time.Time
	target := Target{
		Name:      "notification_records",
		Retention: 30 * 24 * time.Hour,
		Purge: func(ctx context.Context, cutoff time.Time) (int64, error) {
			gotCutoff = cutoff
			return 5, nil
		},
	}

	sweeper := NewSweeper(time.Hour, []Target{target}, zap.NewNop())
	before := time.Now().Add(-30 * 24 * time.Hour)
	sweeper.SweepOnce(context.Background())
	after := time.Now().Add(-30 * 24 * time.Hour)

	assert.False(t, gotCutoff.Before(before))
	assert.False(t, gotCutoff.After(after))
}

func TestSweeper_SweepOnce_ContinuesPastFailingTarget(t *testing.T) {
	var secondCalled bool
	targets := []Target{
		{
			Name:      "click_events",
			Retention: 365 * 24 * time.Hour,
			Purge: func(ctx context.Context, cutoff time.Time) (int64, error) {
				return 0, errors.New("storage unavailable")
			},
		},
		{
			Name:      "notification_records",
			Retention: 30 * 24 * time.Hour,
			Purge: func(ctx context.Context, cutoff time.Time) (int64, error) {
				secondCalled = true
				return 0, nil
			},
		},
	}

	sweeper := NewSweeper(time.Hour, targets, zap.NewNop())
	sweeper.SweepOnce(context.Background())

	assert.True(t, secondCalled, "a failing target must not stop the sweep")
}

func TestSweeper_Start_SweepsImmediatelyAndOnTicks(t *testing.T) {
	var sweeps atomic.Int32
	target := Target{
		Name:      "notification_records",
		Retention: 30 * 24 * time.Hour,
		Purge: func(ctx context.Context, cutoff time.Time) (int64, error) {
			sweeps.Add(1)
			return 0, nil
		},
	}

	sweeper := NewSweeper(20*time.Millisecond, []Target{target}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	time.Sleep(70 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}

	// One immediate sweep plus at least two ticks.
	assert.GreaterOrEqual(t, sweeps.Load(), int32(3))
}
