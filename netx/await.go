package netx

import (
	"github.com/GaspardKirira/cnerium"
)

// asyncOp adapts one reactor operation to the await protocol. The
// contract, shared by every network operation in this package:
//
//   - a cancelled token short-circuits: the frame hops through the
//     loop once and the await fails with Canceled;
//   - otherwise start runs on the net thread and receives a completion
//     callback; the callback stores the outcome and wakes the frame,
//     which resumes on the main loop;
//   - at resumption, cancellation is checked again, then the stored
//     error (platform I/O errors pass through untouched), then the
//     value is returned.
//
// start must invoke complete exactly once.
func asyncOp[T any](s *Service, ct cnerium.CancelToken, h *cnerium.Handle, start func(complete func(v T, err error))) (T, error) {
	var (
		zero T
		val  T
	)
	if ct.IsCancelled() {
		h.Yield()
		return zero, cnerium.Canceled
	}
	if s.Stopped() {
		return zero, cnerium.Closed
	}

	var opErr error
	h.Suspend(func(wake func()) {
		s.post(func() {
			start(func(v T, err error) {
				val, opErr = v, err
				wake()
			})
		})
	})

	if ct.IsCancelled() {
		return zero, cnerium.Canceled
	}
	if opErr != nil {
		return zero, opErr
	}
	return val, nil
}
