package cnerium

import (
	"sync"
	"sync/atomic"

	"github.com/samber/do"
)

// Service names inside the context's injector.
const (
	poolService    = "cnerium.pool"
	timerService   = "cnerium.timers"
	signalsService = "cnerium.signals"
)

// NetService is the contract the network bridge fulfills toward the
// context: the context only needs to stop it at teardown. The concrete
// implementation lives in the netx subpackage and installs itself via
// [IOContext.InstallNet] on first use.
type NetService interface {
	Stop()
}

// IOContext is the runtime context: it owns the event-loop scheduler
// and lazily builds the thread pool, timer facility, signal bridge,
// and network bridge on first access. Post, Run, Stop, and IsRunning
// are thin forwards to the scheduler.
//
// Typical lifetime:
//
//	ctx := cnerium.NewIOContext()
//	defer ctx.Close()
//
//	t := app(ctx)
//	ctx.PostHandle(t.Handle())
//	ctx.Run()
type IOContext struct {
	sched    *Scheduler
	cfg      Config
	injector *do.Injector

	mu      sync.Mutex
	pool    *ThreadPool
	timer   *Timer
	signals *SignalSet
	net     NetService

	closed atomic.Bool
}

// NewIOContext creates a context. Subsystems are not built until
// their accessor is first called.
func NewIOContext(opts ...Option) *IOContext {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &IOContext{
		sched:    NewScheduler(),
		cfg:      cfg,
		injector: do.New(),
	}

	do.ProvideNamed(c.injector, poolService, func(i *do.Injector) (*ThreadPool, error) {
		p := NewThreadPool(c, cfg.PoolWorkers, cfg.PoolQueueLimit)
		c.mu.Lock()
		c.pool = p
		c.mu.Unlock()
		return p, nil
	})
	do.ProvideNamed(c.injector, timerService, func(i *do.Injector) (*Timer, error) {
		tm := NewTimer(c)
		c.mu.Lock()
		c.timer = tm
		c.mu.Unlock()
		return tm, nil
	})
	do.ProvideNamed(c.injector, signalsService, func(i *do.Injector) (*SignalSet, error) {
		s := NewSignalSet(c, cfg.SignalBuffer)
		c.mu.Lock()
		c.signals = s
		c.mu.Unlock()
		return s, nil
	})

	return c
}

// Scheduler returns the event-loop scheduler.
func (c *IOContext) Scheduler() *Scheduler {
	return c.sched
}

// Config returns the configuration the context was built with.
func (c *IOContext) Config() Config {
	return c.cfg
}

// Post forwards to [Scheduler.Post].
func (c *IOContext) Post(fn Job) {
	c.sched.Post(fn)
}

// PostHandle forwards to [Scheduler.PostHandle].
func (c *IOContext) PostHandle(h *Handle) {
	c.sched.PostHandle(h)
}

// Run forwards to [Scheduler.Run]; the calling goroutine becomes the
// loop goroutine.
func (c *IOContext) Run() {
	c.sched.Run()
}

// Stop forwards to [Scheduler.Stop].
func (c *IOContext) Stop() {
	c.sched.Stop()
}

// IsRunning forwards to [Scheduler.IsRunning].
func (c *IOContext) IsRunning() bool {
	return c.sched.IsRunning()
}

// CPUPool returns the thread pool, building it on first access.
func (c *IOContext) CPUPool() *ThreadPool {
	return do.MustInvokeNamed[*ThreadPool](c.injector, poolService)
}

// Timers returns the timer facility, building it on first access.
func (c *IOContext) Timers() *Timer {
	return do.MustInvokeNamed[*Timer](c.injector, timerService)
}

// Signals returns the signal bridge, building it on first access.
func (c *IOContext) Signals() *SignalSet {
	return do.MustInvokeNamed[*SignalSet](c.injector, signalsService)
}

// InstallNet memoizes the network bridge: the first call builds it via
// factory, later calls return the existing one. The netx subpackage
// calls this from its Use accessor; the indirection exists because the
// bridge lives in a subpackage that imports this one.
func (c *IOContext) InstallNet(factory func(*IOContext) NetService) NetService {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.net == nil {
		c.net = factory(c)
	}
	return c.net
}

// Net returns the installed network bridge, or nil before first use.
func (c *IOContext) Net() NetService {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net
}

// Close tears down every subsystem that was built — pool, signals,
// network bridge, timers, in that order — and then stops the
// scheduler. Idempotent.
func (c *IOContext) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	pool, signals, net, timer := c.pool, c.signals, c.net, c.timer
	c.mu.Unlock()

	if pool != nil {
		pool.Stop()
	}
	if signals != nil {
		signals.Stop()
	}
	if net != nil {
		net.Stop()
	}
	if timer != nil {
		timer.Stop()
	}
	c.sched.Stop()
	return nil
}
