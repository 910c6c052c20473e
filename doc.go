// Package cnerium is a cooperative async runtime core: lazy tasks
// driven by a single-threaded event loop, supplemented by a CPU thread
// pool, a timer facility, a signal bridge, and (in the netx
// subpackage) a network bridge hosted on its own goroutine.
//
// # Tasks and the event loop
//
// A [Task] is a lazy computation: constructing one runs no user code.
// The body starts when the task is awaited from another task's frame,
// or when it is handed to the loop:
//
//	ctx := cnerium.NewIOContext()
//	defer ctx.Close()
//
//	t := cnerium.NewTask(func(h *cnerium.Handle) (int, error) {
//		return 42, nil
//	})
//	ctx.PostHandle(t.Handle())
//	ctx.Run()
//
// Awaiting an attached task transfers control into its body on the
// awaiter's own frame; completion returns straight to the awaiter with
// no scheduler hop, surfacing the value or the error at the await
// site. [Task.Start] instead detaches the task onto a scheduler:
// ownership is released, the frame cleans itself up, and failures are
// swallowed apart from the [OnDetachedFailure] hook. [SpawnDetached]
// is the fire-and-forget wrapper over that mode.
//
// Every resumption — after a pool submission, a timer sleep, a signal
// wait, or a network operation — happens on the goroutine that called
// [Scheduler.Run]. Task code therefore never races with other task
// code: concurrency is cooperative and single-threaded, with producer
// threads limited to posting wakeups.
//
// # Cancellation
//
// [CancelSource] and [CancelToken] split one monotonic flag into a
// writer and cheap shared readers. Cancellation is cooperative:
// producers check the token before starting work and at wakeup points,
// and an operation that observes it fails with [Canceled].
//
// # Subsystems
//
// [IOContext] owns the scheduler and lazily builds each subsystem on
// first access: [IOContext.CPUPool] (CPU-bound closures off the loop,
// results awaited back on it), [IOContext.Timers] (timed wakeups),
// [IOContext.Signals] (OS signals marshaled onto the loop), and the
// netx bridge via netx.Use. [IOContext.Close] stops them in reverse
// dependency order.
//
// # Failure model
//
// Failures are ordinary errors raised at the await site. The closed
// set of runtime failure kinds is [Errc]; platform I/O errors pass
// through untouched. Panics inside task bodies and pool closures are
// recovered into [*PanicError] values.
package cnerium
