// Package netx is the network bridge of the cnerium runtime: TCP
// streams and listeners, UDP sockets, and DNS resolution whose
// operations are awaited as tasks and always resume on the event-loop
// goroutine.
//
// The bridge itself — [Service], obtained with [Use] — hosts a reactor
// loop on a dedicated goroutine. Operation starters run there, the
// blocking socket calls run on tracked per-operation goroutines, and
// every completion is posted back onto the main loop. Stopping the
// bridge closes all open sockets and joins the outstanding work.
//
// A typical echo server:
//
//	ln := netx.NewTCPListener(ctx)
//	_, err := ln.AsyncListen(netx.Endpoint{Host: "0.0.0.0", Port: 9090}, 128).Await(h)
//	for {
//		client, err := ln.AsyncAccept(ct).Await(h)
//		if err != nil {
//			break
//		}
//		cnerium.SpawnDetached(ctx, echo(client))
//	}
package netx
