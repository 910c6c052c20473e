package cnerium

import "sync/atomic"

// cancelState is the shared record behind a [CancelSource] and all of
// its tokens: one monotonic flag that only ever moves false -> true.
type cancelState struct {
	cancelled atomic.Bool
}

// CancelSource owns a cancellation state and is the only writer to it.
// All tokens produced by Token observe the same state.
//
// Create one via [NewCancelSource]; the zero value has no state and
// its RequestCancel is a no-op.
type CancelSource struct {
	st *cancelState
}

// NewCancelSource creates a source with a fresh, non-cancelled state.
func NewCancelSource() *CancelSource {
	return &CancelSource{st: &cancelState{}}
}

// Token returns a token observing this source.
func (s *CancelSource) Token() CancelToken {
	return CancelToken{st: s.st}
}

// RequestCancel signals cancellation to every associated token.
// It is idempotent and safe to call from any goroutine.
func (s *CancelSource) RequestCancel() {
	if s.st != nil {
		s.st.cancelled.Store(true)
	}
}

// IsCancelled reports whether cancellation has been requested.
func (s *CancelSource) IsCancelled() bool {
	return s.st != nil && s.st.cancelled.Load()
}

// CancelToken is a read-only view of a cancellation state. It cannot
// request cancellation itself.
//
// The zero value is the empty token: CanCancel and IsCancelled both
// report false. Tokens are cheap to copy and safe to share across
// goroutines; copies observe the same state.
type CancelToken struct {
	st *cancelState
}

// CanCancel reports whether the token is bound to a cancel source.
func (t CancelToken) CanCancel() bool {
	return t.st != nil
}

// IsCancelled reports whether cancellation has been requested.
// Once true, every subsequent call returns true.
func (t CancelToken) IsCancelled() bool {
	return t.st != nil && t.st.cancelled.Load()
}
