package cnerium

// Errc enumerates the failure kinds reported by the runtime core:
// the scheduler, tasks, the thread pool, timers, signals, and
// cancellation. Values are compact and stable so they can be compared,
// stored, and propagated cheaply.
//
// Errc implements error; use errors.Is to test for a specific kind:
//
//	if errors.Is(err, cnerium.Canceled) { ... }
//
// Platform I/O errors from the network collaborators are not mapped
// onto Errc; they pass through unchanged.
type Errc uint8

const (
	// OK reports no error. It is never returned as a failure.
	OK Errc = iota

	// InvalidArgument reports an invalid argument passed to an API.
	InvalidArgument

	// NotReady reports an operation that cannot complete yet.
	NotReady

	// Timeout reports an operation that timed out.
	Timeout

	// Canceled reports an operation observed a cancellation request.
	Canceled

	// Closed reports a resource or channel that was closed.
	Closed

	// Overflow reports a capacity or numeric overflow.
	Overflow

	// Stopped reports that the runtime or scheduler has been stopped.
	Stopped

	// QueueFull reports an internal task queue at capacity.
	QueueFull

	// Rejected reports a thread-pool submission that was rejected.
	Rejected

	// NotSupported reports an operation unavailable on this platform.
	NotSupported
)

// Error returns the human-readable message for the error kind.
func (e Errc) Error() string {
	switch e {
	case OK:
		return "ok"
	case InvalidArgument:
		return "invalid argument"
	case NotReady:
		return "not ready"
	case Timeout:
		return "timeout"
	case Canceled:
		return "canceled"
	case Closed:
		return "closed"
	case Overflow:
		return "overflow"
	case Stopped:
		return "stopped"
	case QueueFull:
		return "queue full"
	case Rejected:
		return "rejected"
	case NotSupported:
		return "not supported"
	default:
		return "unknown error"
	}
}
