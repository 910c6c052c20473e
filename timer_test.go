package cnerium

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerSleepElapses(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	var elapsed time.Duration
	err := runOnLoop(t, ctx, func(h *Handle) error {
		start := time.Now()
		_, err := ctx.Timers().Sleep(50*time.Millisecond, CancelToken{}).Await(h)
		elapsed = time.Since(start)
		return err
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 45*time.Millisecond)
}

func TestTimerSleepCancelledBeforeArming(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	src := NewCancelSource()
	src.RequestCancel()

	start := time.Now()
	err := runOnLoop(t, ctx, func(h *Handle) error {
		_, err := ctx.Timers().Sleep(10*time.Second, src.Token()).Await(h)
		return err
	})

	assert.ErrorIs(t, err, Canceled)
	assert.Less(t, time.Since(start), time.Second, "a cancelled sleep must not wait")
}

func TestTimerStopCompletesSleepers(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()
	tm := ctx.Timers()

	go func() {
		time.Sleep(30 * time.Millisecond)
		tm.Stop()
	}()

	start := time.Now()
	err := runOnLoop(t, ctx, func(h *Handle) error {
		_, err := tm.Sleep(10*time.Second, CancelToken{}).Await(h)
		return err
	})

	assert.ErrorIs(t, err, Stopped)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTimerSleepAfterStop(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()
	tm := ctx.Timers()
	tm.Stop()

	err := runOnLoop(t, ctx, func(h *Handle) error {
		_, err := tm.Sleep(time.Millisecond, CancelToken{}).Await(h)
		return err
	})

	assert.ErrorIs(t, err, Stopped)
}
