package cnerium

import "sync/atomic"

// Handle is a resumable reference to a task frame: the unit the
// scheduler suspends and resumes. A frame is backed by a goroutine
// that runs only while the loop goroutine is parked driving it, so
// task code never executes concurrently with other task code or with
// the loop itself.
//
// The handoff protocol: each resumption sends on step and then blocks
// on idle; the frame parks by sending on idle and blocking on step.
// Both channels are unbuffered, so exactly one side runs at any time
// and every suspension point is a clean exchange of control.
//
// User code touches a Handle only as the argument of a task body,
// to await sub-tasks and producers:
//
//	func fetch(ctx *IOContext) *Task[int] {
//		return NewTask(func(h *Handle) (int, error) {
//			_, err := ctx.Timers().Sleep(time.Second, CancelToken{}).Await(h)
//			...
//		})
//	}
type Handle struct {
	sched   *Scheduler
	step    chan struct{}
	idle    chan struct{}
	body    func(*Handle)
	started bool
	done    atomic.Bool
}

func newHandle(body func(*Handle)) *Handle {
	return &Handle{
		step: make(chan struct{}),
		idle: make(chan struct{}),
		body: body,
	}
}

// bind attaches the frame to the scheduler that will host its
// resumptions. Rebinding to a different scheduler is a misuse.
func (h *Handle) bind(s *Scheduler) {
	if h.sched != nil && h.sched != s {
		panic("cnerium: handle is already bound to another scheduler")
	}
	h.sched = s
}

// resumeJob runs the frame until its next suspension point or until
// completion. It is only ever executed as a scheduler job, so calls
// are serialized by the loop; a completed frame is a no-op (a done
// handle is treated as ready).
func (h *Handle) resumeJob() {
	if h.done.Load() {
		return
	}
	if !h.started {
		h.started = true
		go func() {
			h.body(h)
			h.done.Store(true)
			h.idle <- struct{}{}
		}()
	} else {
		h.step <- struct{}{}
	}
	<-h.idle
}

// park returns control to whoever resumed the frame and blocks until
// the next resumption.
func (h *Handle) park() {
	h.idle <- struct{}{}
	<-h.step
}

// Suspend is the generic suspension point used by producers (thread
// pool, timers, signals, network operations). arm receives a wake
// closure; the producer stores it and invokes it exactly once when the
// awaited event fires. wake posts the resumption onto the frame's
// scheduler, so the frame always resumes on the loop goroutine.
//
// arm runs before the frame parks. A wake fired from inside arm is
// safe: the resumption is queued behind the job currently driving the
// frame and dispatches only after the frame has parked.
func (h *Handle) Suspend(arm func(wake func())) {
	arm(func() { h.sched.Post(h.resumeJob) })
	h.park()
}

// Yield reposts the frame onto its scheduler and parks, letting
// already-queued jobs run before the frame continues. This is the
// explicit reschedule hop.
func (h *Handle) Yield() {
	h.sched.Post(h.resumeJob)
	h.park()
}

// Scheduler returns the scheduler hosting this frame's resumptions.
func (h *Handle) Scheduler() *Scheduler {
	return h.sched
}

// Done reports whether the frame has run to completion.
func (h *Handle) Done() bool {
	return h.done.Load()
}
