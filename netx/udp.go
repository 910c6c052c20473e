package netx

import (
	"net"
	"sync"

	"github.com/GaspardKirira/cnerium"
)

// Socket is the await contract of a UDP socket.
type Socket interface {
	AsyncBind(ep Endpoint) *cnerium.Task[struct{}]
	AsyncSendTo(buf []byte, to Endpoint, ct cnerium.CancelToken) *cnerium.Task[int]
	AsyncRecvFrom(buf []byte, ct cnerium.CancelToken) *cnerium.Task[Datagram]
	Close()
	IsOpen() bool
}

// UDPSocket is the UDP implementation of [Socket] on the bridge.
type UDPSocket struct {
	svc *Service

	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
}

var _ Socket = (*UDPSocket)(nil)

// NewUDPSocket creates an unbound socket on ctx's network bridge.
func NewUDPSocket(ctx *cnerium.IOContext) *UDPSocket {
	return &UDPSocket{svc: Use(ctx)}
}

func (u *UDPSocket) current() *net.UDPConn {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	return u.conn
}

// AsyncBind returns a task that binds the socket to ep. Binding an
// already-bound or closed socket fails with [cnerium.InvalidArgument].
func (u *UDPSocket) AsyncBind(ep Endpoint) *cnerium.Task[struct{}] {
	return cnerium.NewVoidTask(func(h *cnerium.Handle) error {
		u.mu.Lock()
		usable := !u.closed && u.conn == nil
		u.mu.Unlock()
		if !usable {
			return cnerium.InvalidArgument
		}
		_, err := asyncOp(u.svc, cnerium.CancelToken{}, h, func(complete func(struct{}, error)) {
			u.svc.spawnOp(func() {
				addr, err := net.ResolveUDPAddr("udp", ep.String())
				if err != nil {
					complete(struct{}{}, err)
					return
				}
				conn, err := net.ListenUDP("udp", addr)
				if err != nil {
					complete(struct{}{}, err)
					return
				}
				u.mu.Lock()
				if u.closed {
					u.mu.Unlock()
					_ = conn.Close()
					complete(struct{}{}, cnerium.Closed)
					return
				}
				u.conn = conn
				u.mu.Unlock()
				u.svc.adopt(conn)
				complete(struct{}{}, nil)
			})
		})
		return err
	})
}

// AsyncSendTo returns a task that sends buf to the given endpoint and
// produces the byte count.
func (u *UDPSocket) AsyncSendTo(buf []byte, to Endpoint, ct cnerium.CancelToken) *cnerium.Task[int] {
	return cnerium.NewTask(func(h *cnerium.Handle) (int, error) {
		conn := u.current()
		if conn == nil {
			return 0, cnerium.Closed
		}
		return asyncOp(u.svc, ct, h, func(complete func(int, error)) {
			u.svc.spawnOp(func() {
				addr, err := net.ResolveUDPAddr("udp", to.String())
				if err != nil {
					complete(0, err)
					return
				}
				n, err := conn.WriteToUDP(buf, addr)
				complete(n, err)
			})
		})
	})
}

// AsyncRecvFrom returns a task that receives one datagram into buf and
// produces the sender and the byte count.
func (u *UDPSocket) AsyncRecvFrom(buf []byte, ct cnerium.CancelToken) *cnerium.Task[Datagram] {
	return cnerium.NewTask(func(h *cnerium.Handle) (Datagram, error) {
		conn := u.current()
		if conn == nil {
			return Datagram{}, cnerium.Closed
		}
		return asyncOp(u.svc, ct, h, func(complete func(Datagram, error)) {
			u.svc.spawnOp(func() {
				n, from, err := conn.ReadFromUDP(buf)
				if err != nil {
					complete(Datagram{}, err)
					return
				}
				complete(Datagram{From: endpointOf(from), Bytes: n}, nil)
			})
		})
	})
}

// Close shuts the socket down. Idempotent; a blocked receive unblocks
// with an error.
func (u *UDPSocket) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	conn := u.conn
	u.mu.Unlock()

	if conn != nil {
		u.svc.release(conn)
		_ = conn.Close()
	}
}

// IsOpen reports whether the socket is bound and not closed.
func (u *UDPSocket) IsOpen() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conn != nil && !u.closed
}

// BoundEndpoint returns the address the socket is bound to, which
// carries the concrete port after binding port 0.
func (u *UDPSocket) BoundEndpoint() (Endpoint, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil || u.closed {
		return Endpoint{}, false
	}
	return endpointOf(u.conn.LocalAddr()), true
}
