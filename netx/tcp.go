package netx

import (
	"io"
	"net"
	"sync"

	"github.com/GaspardKirira/cnerium"
)

// Stream is the await contract of a connected byte stream. A read
// that observes an orderly peer close completes with n == 0 and no
// error; that is the end-of-stream marker.
type Stream interface {
	AsyncConnect(ep Endpoint, ct cnerium.CancelToken) *cnerium.Task[struct{}]
	AsyncRead(buf []byte, ct cnerium.CancelToken) *cnerium.Task[int]
	AsyncWrite(buf []byte, ct cnerium.CancelToken) *cnerium.Task[int]
	Close()
	IsOpen() bool
}

// TCPStream is the TCP implementation of [Stream] on the bridge.
type TCPStream struct {
	svc *Service

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

var _ Stream = (*TCPStream)(nil)

// NewTCPStream creates an unconnected stream on ctx's network bridge.
func NewTCPStream(ctx *cnerium.IOContext) *TCPStream {
	return &TCPStream{svc: Use(ctx)}
}

// newAcceptedStream wraps a connection produced by a listener.
func newAcceptedStream(svc *Service, conn net.Conn) *TCPStream {
	svc.adopt(conn)
	return &TCPStream{svc: svc, conn: conn}
}

func (st *TCPStream) current() net.Conn {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return nil
	}
	return st.conn
}

// AsyncConnect returns a task that dials ep and binds the stream to
// the resulting connection. Connecting an already-open or closed
// stream fails with [cnerium.InvalidArgument].
func (st *TCPStream) AsyncConnect(ep Endpoint, ct cnerium.CancelToken) *cnerium.Task[struct{}] {
	return cnerium.NewVoidTask(func(h *cnerium.Handle) error {
		st.mu.Lock()
		usable := !st.closed && st.conn == nil
		st.mu.Unlock()
		if !usable {
			return cnerium.InvalidArgument
		}
		_, err := asyncOp(st.svc, ct, h, func(complete func(struct{}, error)) {
			st.svc.spawnOp(func() {
				conn, err := net.Dial("tcp", ep.String())
				if err != nil {
					complete(struct{}{}, err)
					return
				}
				st.mu.Lock()
				if st.closed {
					st.mu.Unlock()
					_ = conn.Close()
					complete(struct{}{}, cnerium.Closed)
					return
				}
				st.conn = conn
				st.mu.Unlock()
				st.svc.adopt(conn)
				complete(struct{}{}, nil)
			})
		})
		return err
	})
}

// AsyncRead returns a task that reads up to len(buf) bytes. The value
// is the byte count; 0 with a nil error marks end of stream.
func (st *TCPStream) AsyncRead(buf []byte, ct cnerium.CancelToken) *cnerium.Task[int] {
	return cnerium.NewTask(func(h *cnerium.Handle) (int, error) {
		conn := st.current()
		if conn == nil {
			return 0, cnerium.Closed
		}
		return asyncOp(st.svc, ct, h, func(complete func(int, error)) {
			st.svc.spawnOp(func() {
				n, err := conn.Read(buf)
				if err == io.EOF {
					err = nil
				}
				complete(n, err)
			})
		})
	})
}

// AsyncWrite returns a task that writes the whole of buf and produces
// the byte count.
func (st *TCPStream) AsyncWrite(buf []byte, ct cnerium.CancelToken) *cnerium.Task[int] {
	return cnerium.NewTask(func(h *cnerium.Handle) (int, error) {
		conn := st.current()
		if conn == nil {
			return 0, cnerium.Closed
		}
		return asyncOp(st.svc, ct, h, func(complete func(int, error)) {
			st.svc.spawnOp(func() {
				n, err := conn.Write(buf)
				complete(n, err)
			})
		})
	})
}

// Close shuts the stream down. Idempotent; a blocked read or write on
// the connection unblocks with an error.
func (st *TCPStream) Close() {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	st.closed = true
	conn := st.conn
	st.mu.Unlock()

	if conn != nil {
		st.svc.release(conn)
		_ = conn.Close()
	}
}

// IsOpen reports whether the stream is connected and not closed.
func (st *TCPStream) IsOpen() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.conn != nil && !st.closed
}

// LocalEndpoint returns the local address of a connected stream.
func (st *TCPStream) LocalEndpoint() (Endpoint, bool) {
	conn := st.current()
	if conn == nil {
		return Endpoint{}, false
	}
	return endpointOf(conn.LocalAddr()), true
}

// Listener is the await contract of an accepting TCP socket.
type Listener interface {
	AsyncListen(ep Endpoint, backlog int) *cnerium.Task[struct{}]
	AsyncAccept(ct cnerium.CancelToken) *cnerium.Task[*TCPStream]
	Close()
	IsOpen() bool
}

// TCPListener is the TCP implementation of [Listener] on the bridge.
type TCPListener struct {
	svc *Service

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

var _ Listener = (*TCPListener)(nil)

// NewTCPListener creates an unbound listener on ctx's network bridge.
func NewTCPListener(ctx *cnerium.IOContext) *TCPListener {
	return &TCPListener{svc: Use(ctx)}
}

// AsyncListen returns a task that binds the listener to ep. backlog
// is accepted for interface parity; the kernel default applies, as
// the stdlib listener does not expose it.
func (l *TCPListener) AsyncListen(ep Endpoint, backlog int) *cnerium.Task[struct{}] {
	_ = backlog
	return cnerium.NewVoidTask(func(h *cnerium.Handle) error {
		l.mu.Lock()
		usable := !l.closed && l.ln == nil
		l.mu.Unlock()
		if !usable {
			return cnerium.InvalidArgument
		}
		_, err := asyncOp(l.svc, cnerium.CancelToken{}, h, func(complete func(struct{}, error)) {
			l.svc.spawnOp(func() {
				ln, err := net.Listen("tcp", ep.String())
				if err != nil {
					complete(struct{}{}, err)
					return
				}
				l.mu.Lock()
				if l.closed {
					l.mu.Unlock()
					_ = ln.Close()
					complete(struct{}{}, cnerium.Closed)
					return
				}
				l.ln = ln
				l.mu.Unlock()
				l.svc.adopt(ln)
				complete(struct{}{}, nil)
			})
		})
		return err
	})
}

// AsyncAccept returns a task producing the next inbound connection,
// wrapped as a [TCPStream] owned by the same bridge.
func (l *TCPListener) AsyncAccept(ct cnerium.CancelToken) *cnerium.Task[*TCPStream] {
	return cnerium.NewTask(func(h *cnerium.Handle) (*TCPStream, error) {
		l.mu.Lock()
		ln := l.ln
		closed := l.closed
		l.mu.Unlock()
		if ln == nil || closed {
			return nil, cnerium.Closed
		}
		return asyncOp(l.svc, ct, h, func(complete func(*TCPStream, error)) {
			l.svc.spawnOp(func() {
				conn, err := ln.Accept()
				if err != nil {
					complete(nil, err)
					return
				}
				complete(newAcceptedStream(l.svc, conn), nil)
			})
		})
	})
}

// Close shuts the listener down. Idempotent; a blocked accept
// unblocks with an error.
func (l *TCPListener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	ln := l.ln
	l.mu.Unlock()

	if ln != nil {
		l.svc.release(ln)
		_ = ln.Close()
	}
}

// IsOpen reports whether the listener is bound and not closed.
func (l *TCPListener) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ln != nil && !l.closed
}

// BoundEndpoint returns the address the listener is bound to, which
// carries the concrete port after binding port 0.
func (l *TCPListener) BoundEndpoint() (Endpoint, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil || l.closed {
		return Endpoint{}, false
	}
	return endpointOf(l.ln.Addr()), true
}
