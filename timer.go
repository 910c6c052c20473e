package cnerium

import (
	"sync"
	"time"
)

// Timer is the time-based wakeup facility owned by an [IOContext].
// Each sleep arms a one-shot timer whose expiry posts the sleeping
// frame back onto the loop.
type Timer struct {
	ctx *IOContext

	mu      sync.Mutex
	stopped bool
	active  map[*sleepOp]struct{}
}

// sleepOp tracks one armed sleep: the wake closure and the error, if
// any, the sleeper should observe on resumption. err is written before
// wake fires and read after the frame resumes; the scheduler queue
// provides the ordering.
type sleepOp struct {
	t    *time.Timer
	wake func()
	err  error
}

// NewTimer creates the timer facility for ctx.
func NewTimer(ctx *IOContext) *Timer {
	return &Timer{ctx: ctx, active: make(map[*sleepOp]struct{})}
}

// Sleep returns a lazy task that completes after d has elapsed,
// resuming the awaiter on the loop goroutine. A cancellation observed
// before arming or at wakeup fails the await with [Canceled]; sleeps
// outstanding when the facility stops fail with [Stopped].
func (tm *Timer) Sleep(d time.Duration, ct CancelToken) *Task[struct{}] {
	return NewVoidTask(func(h *Handle) error {
		if ct.IsCancelled() {
			return Canceled
		}
		op := &sleepOp{}
		h.Suspend(func(wake func()) {
			op.wake = wake
			tm.mu.Lock()
			if tm.stopped {
				op.err = Stopped
				tm.mu.Unlock()
				wake()
				return
			}
			tm.active[op] = struct{}{}
			op.t = time.AfterFunc(d, func() { tm.expire(op) })
			tm.mu.Unlock()
		})
		if op.err != nil {
			return op.err
		}
		if ct.IsCancelled() {
			return Canceled
		}
		return nil
	})
}

// expire fires op's wake unless Stop already claimed it.
func (tm *Timer) expire(op *sleepOp) {
	tm.mu.Lock()
	if _, ok := tm.active[op]; !ok {
		tm.mu.Unlock()
		return
	}
	delete(tm.active, op)
	tm.mu.Unlock()
	op.wake()
}

// Stop cancels every outstanding sleep and completes it with
// [Stopped]. Idempotent.
func (tm *Timer) Stop() {
	tm.mu.Lock()
	if tm.stopped {
		tm.mu.Unlock()
		return
	}
	tm.stopped = true
	ops := make([]*sleepOp, 0, len(tm.active))
	for op := range tm.active {
		ops = append(ops, op)
	}
	tm.active = make(map[*sleepOp]struct{})
	tm.mu.Unlock()

	for _, op := range ops {
		op.t.Stop()
		op.err = Stopped
		op.wake()
	}
}
