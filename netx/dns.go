package netx

import (
	"context"
	"net"

	"github.com/GaspardKirira/cnerium"
)

// Resolver is the await contract of asynchronous name resolution.
type Resolver interface {
	AsyncResolve(host string, port uint16, ct cnerium.CancelToken) *cnerium.Task[[]ResolvedAddress]
}

// DNSResolver resolves names through the platform resolver on the
// bridge's operation goroutines.
type DNSResolver struct {
	svc *Service
	res *net.Resolver
}

var _ Resolver = (*DNSResolver)(nil)

// NewResolver creates a resolver on ctx's network bridge.
func NewResolver(ctx *cnerium.IOContext) *DNSResolver {
	return &DNSResolver{svc: Use(ctx), res: net.DefaultResolver}
}

// AsyncResolve returns a task producing every address of host, each
// paired with port. Resolution failures pass through as platform
// errors.
func (r *DNSResolver) AsyncResolve(host string, port uint16, ct cnerium.CancelToken) *cnerium.Task[[]ResolvedAddress] {
	return cnerium.NewTask(func(h *cnerium.Handle) ([]ResolvedAddress, error) {
		return asyncOp(r.svc, ct, h, func(complete func([]ResolvedAddress, error)) {
			r.svc.spawnOp(func() {
				ips, err := r.res.LookupHost(context.Background(), host)
				if err != nil {
					complete(nil, err)
					return
				}
				out := make([]ResolvedAddress, 0, len(ips))
				for _, ip := range ips {
					out = append(out, ResolvedAddress{IP: ip, Port: port})
				}
				complete(out, nil)
			})
		})
	})
}
