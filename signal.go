package cnerium

import (
	"os"
	"os/signal"
	"sync"

	"github.com/sourcegraph/conc"
)

// SignalSet marshals OS signals onto the event loop. A dedicated
// capture goroutine blocks on an os/signal channel; each captured
// signal is posted to the loop, where the registered callback (if any)
// runs first, then a suspended waiter is resumed, and otherwise the
// signal is queued until the next [SignalSet.AsyncWait].
//
// No user code ever runs on the capture goroutine.
type SignalSet struct {
	ctx *IOContext

	mu       sync.Mutex
	observed map[os.Signal]struct{}
	pending  []os.Signal
	onSignal func(os.Signal)
	waiter   *sigWaiter
	started  bool
	stopped  bool

	ch      chan os.Signal
	quit    chan struct{}
	capture conc.WaitGroup
}

// sigWaiter is the single suspended AsyncWait frame. sig and err are
// written before wake fires and read after the frame resumes.
type sigWaiter struct {
	wake func()
	sig  os.Signal
	err  error
}

// NewSignalSet creates the signal bridge for ctx. buffer sizes the
// capture channel; <= 0 selects a small default.
func NewSignalSet(ctx *IOContext, buffer int) *SignalSet {
	if buffer <= 0 {
		buffer = 16
	}
	return &SignalSet{
		ctx:      ctx,
		observed: make(map[os.Signal]struct{}),
		ch:       make(chan os.Signal, buffer),
		quit:     make(chan struct{}),
	}
}

// Add registers sig with the set and starts the capture goroutine on
// first use. A dynamic add takes effect at the next capture iteration.
func (s *SignalSet) Add(sig os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.observed[sig] = struct{}{}
	signal.Notify(s.ch, sig)
	if !s.started {
		s.started = true
		s.capture.Go(s.captureLoop)
	}
}

// Remove drops sig from the set. Signals already captured stay in
// pending; later captures of sig are discarded.
func (s *SignalSet) Remove(sig os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observed, sig)
}

// OnSignal registers a callback invoked on the loop goroutine, once
// per captured signal, before any waiter resumption. Passing nil
// removes the callback.
func (s *SignalSet) OnSignal(fn func(os.Signal)) {
	s.mu.Lock()
	s.onSignal = fn
	s.mu.Unlock()
}

func (s *SignalSet) captureLoop() {
	for {
		select {
		case sig := <-s.ch:
			s.ctx.Post(func() { s.deliver(sig) })
		case <-s.quit:
			return
		}
	}
}

// deliver runs on the loop goroutine: callback first, then waiter
// resumption, otherwise the pending queue.
func (s *SignalSet) deliver(sig os.Signal) {
	s.mu.Lock()
	if _, ok := s.observed[sig]; !ok {
		s.mu.Unlock()
		return
	}
	cb := s.onSignal
	w := s.waiter
	s.waiter = nil
	if w == nil {
		s.pending = append(s.pending, sig)
	}
	s.mu.Unlock()

	if cb != nil {
		cb(sig)
	}
	if w != nil {
		w.sig = sig
		w.wake()
	}
}

// AsyncWait returns a lazy task producing the next captured signal.
// If a signal is already pending, the head is consumed and the task
// completes without suspending; otherwise the awaiter becomes the
// bridge's single waiter. A second in-flight AsyncWait panics.
//
// A stop of the bridge unblocks the waiter with [Canceled], as does a
// cancellation observed at the await boundaries.
func (s *SignalSet) AsyncWait(ct CancelToken) *Task[os.Signal] {
	return NewTask(func(h *Handle) (os.Signal, error) {
		if ct.IsCancelled() {
			return nil, Canceled
		}
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return nil, Canceled
		}
		if len(s.pending) > 0 {
			sig := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return sig, nil
		}
		if s.waiter != nil {
			s.mu.Unlock()
			panic("cnerium: concurrent AsyncWait on a signal set")
		}
		s.mu.Unlock()

		w := &sigWaiter{}
		h.Suspend(func(wake func()) {
			w.wake = wake
			s.mu.Lock()
			if s.stopped {
				// Stop slipped in between the ready check and the
				// install; complete immediately instead of parking.
				w.err = Canceled
				s.mu.Unlock()
				wake()
				return
			}
			s.waiter = w
			s.mu.Unlock()
		})
		if w.err != nil {
			return nil, w.err
		}
		if ct.IsCancelled() {
			return nil, Canceled
		}
		return w.sig, nil
	})
}

// Stop halts capture and unblocks a parked waiter with [Canceled].
// Idempotent.
func (s *SignalSet) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	w := s.waiter
	s.waiter = nil
	s.mu.Unlock()

	signal.Stop(s.ch)
	if started {
		close(s.quit)
		s.capture.Wait()
	}
	if w != nil {
		w.err = Canceled
		w.wake()
	}
}
