package cnerium

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
)

// ThreadPool runs CPU-bound closures on a fixed set of worker
// goroutines, off the event loop. Work is handed back to the loop by
// posting the awaiter's frame onto the owning context's scheduler, so
// a task that awaits a submission always resumes on the loop
// goroutine even though the closure ran on a worker.
//
// The queue is unbounded by default; see [WithPoolQueueLimit] for the
// bounded variant, which rejects submissions with [Rejected] once the
// limit is reached.
type ThreadPool struct {
	ctx *IOContext

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
	limit   int

	workers  conc.WaitGroup
	size     int
	stopOnce sync.Once

	// Observability counters.
	submitted atomic.Int64
	completed atomic.Int64
	inFlight  atomic.Int64
}

// PoolStats is a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted  int64 // total closures accepted
	Completed  int64 // closures finished
	InFlight   int64 // closures currently executing
	QueueDepth int   // closures waiting in the queue
	Workers    int   // worker count (fixed at creation)
}

// NewThreadPool creates a pool owned by ctx with n workers. n <= 0
// selects the hardware thread count (at least 1). queueLimit <= 0
// leaves the queue unbounded. Workers start immediately.
func NewThreadPool(ctx *IOContext, n, queueLimit int) *ThreadPool {
	if n <= 0 {
		n = runtime.NumCPU()
		if n < 1 {
			n = 1
		}
	}
	p := &ThreadPool{ctx: ctx, size: n, limit: queueLimit}
	p.cond = sync.NewCond(&p.mu)
	for range n {
		p.workers.Go(p.workerLoop)
	}
	return p
}

// workerLoop waits for a closure or a stop request. On stop the queue
// is drained before the worker exits.
func (p *ThreadPool) workerLoop() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		fn := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.inFlight.Add(1)
		p.runClosure(fn)
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}
}

// runClosure keeps a panicking closure from killing the worker; the
// panic is routed to the detached-failure hook.
func (p *ThreadPool) runClosure(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			reportDetachedFailure(newPanicError(r))
		}
	}()
	fn()
}

func (p *ThreadPool) enqueue(fn func()) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return Stopped
	}
	if p.limit > 0 && len(p.queue) >= p.limit {
		p.mu.Unlock()
		return Rejected
	}
	p.queue = append(p.queue, fn)
	p.mu.Unlock()
	p.cond.Signal()
	p.submitted.Add(1)
	return nil
}

// Submit enqueues a fire-and-forget closure. It returns [Rejected]
// when a bounded queue is full and [Stopped] after the pool has been
// stopped; otherwise nil.
func (p *ThreadPool) Submit(fn func()) error {
	if fn == nil {
		panic("cnerium: Submit requires a non-nil closure")
	}
	return p.enqueue(fn)
}

// Stop requests worker exit and joins all workers. Closures already
// queued are drained first. Idempotent.
func (p *ThreadPool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		p.cond.Broadcast()
		p.workers.Wait()
	})
}

// Size returns the worker count.
func (p *ThreadPool) Size() int {
	return p.size
}

// Stats returns a snapshot of pool activity. Safe to call concurrently.
func (p *ThreadPool) Stats() PoolStats {
	p.mu.Lock()
	depth := len(p.queue)
	p.mu.Unlock()
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: depth,
		Workers:    p.size,
	}
}

// SubmitTask returns a lazy task wrapping a pool submission. Awaiting
// it suspends the caller, runs fn on a worker, and resumes the caller
// on the loop goroutine with fn's result.
//
// A cancellation observed by the worker before fn runs fails the await
// with [Canceled]. A panic inside fn surfaces as a *PanicError. If the
// submission itself is refused (bounded queue full, pool stopped), the
// await fails with that error and fn never runs.
func SubmitTask[R any](p *ThreadPool, fn func() (R, error), ct CancelToken) *Task[R] {
	if fn == nil {
		panic("cnerium: SubmitTask requires a non-nil closure")
	}
	return NewTask(func(h *Handle) (R, error) {
		var (
			res    R
			resErr error
			subErr error
		)
		h.Suspend(func(wake func()) {
			subErr = p.enqueue(func() {
				if ct.IsCancelled() {
					resErr = Canceled
				} else {
					func() {
						defer func() {
							if r := recover(); r != nil {
								resErr = newPanicError(r)
							}
						}()
						res, resErr = fn()
					}()
				}
				wake()
			})
			if subErr != nil {
				// Nothing queued; resume immediately with the failure.
				wake()
			}
		})
		if subErr != nil {
			var zero R
			return zero, subErr
		}
		if resErr != nil {
			var zero R
			return zero, resErr
		}
		return res, nil
	})
}
