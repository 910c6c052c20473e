package netx

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"

	"github.com/GaspardKirira/cnerium"
)

// Service is the network bridge: an independent reactor loop hosted on
// its own goroutine (the net thread), kept alive while the bridge is
// up. Operation starters run on the net thread; their completion
// callbacks post the awaiting frame back onto the main loop, so
// network results are always observed on the loop goroutine.
//
// Blocking socket calls themselves run on per-operation goroutines
// multiplexed by the Go runtime's poller; the service tracks them and
// the sockets they belong to, so [Service.Stop] can close every open
// socket and join all in-flight work.
type Service struct {
	ctx  *cnerium.IOContext
	loop *cnerium.Scheduler

	thread conc.WaitGroup
	ops    conc.WaitGroup

	mu      sync.Mutex
	sockets map[io.Closer]struct{}

	stopped atomic.Bool
}

// Use returns the network bridge of ctx, building and installing it on
// first use. The bridge is stopped by ctx.Close along with the other
// subsystems.
func Use(ctx *cnerium.IOContext) *Service {
	svc := ctx.InstallNet(func(c *cnerium.IOContext) cnerium.NetService {
		return newService(c)
	})
	s, ok := svc.(*Service)
	if !ok {
		panic("netx: context carries a foreign network bridge")
	}
	return s
}

func newService(ctx *cnerium.IOContext) *Service {
	s := &Service{
		ctx:     ctx,
		loop:    cnerium.NewScheduler(),
		sockets: make(map[io.Closer]struct{}),
	}
	// The reactor loop blocks while idle instead of exiting; Stop is
	// the only thing that lets it return. That standing run is the
	// bridge's keep-alive.
	s.thread.Go(s.loop.Run)
	return s
}

// post hands a starter to the net thread.
func (s *Service) post(fn func()) {
	s.loop.Post(fn)
}

// spawnOp runs a blocking socket call on a tracked goroutine.
func (s *Service) spawnOp(fn func()) {
	s.ops.Go(fn)
}

// adopt registers an open socket so Stop can close it.
func (s *Service) adopt(c io.Closer) {
	s.mu.Lock()
	s.sockets[c] = struct{}{}
	s.mu.Unlock()
}

// release forgets a socket after it was closed.
func (s *Service) release(c io.Closer) {
	s.mu.Lock()
	delete(s.sockets, c)
	s.mu.Unlock()
}

// Stopped reports whether Stop has run.
func (s *Service) Stopped() bool {
	return s.stopped.Load()
}

// Stop closes every open socket, stops the reactor loop, joins the
// net thread, and waits for in-flight operations to finish. Their
// frames resume on the main loop with the resulting errors.
// Idempotent.
func (s *Service) Stop() {
	if s.stopped.Swap(true) {
		return
	}

	s.mu.Lock()
	open := make([]io.Closer, 0, len(s.sockets))
	for c := range s.sockets {
		open = append(open, c)
	}
	s.sockets = make(map[io.Closer]struct{})
	s.mu.Unlock()
	for _, c := range open {
		_ = c.Close()
	}

	s.loop.Stop()
	s.thread.Wait()
	s.ops.Wait()
}
