package cnerium

// SpawnDetached starts t on the context's scheduler and forgets it:
// an internal detached frame awaits the task so that its body runs
// under the normal await protocol, then releases itself. The task
// value is consumed by the await; any failure is swallowed apart from
// the [OnDetachedFailure] hook.
//
// This is the fire-and-forget entry point, typically used to hand off
// per-connection work:
//
//	client, err := listener.AsyncAccept(ct).Await(h)
//	...
//	cnerium.SpawnDetached(ctx, handleClient(client))
func SpawnDetached(ctx *IOContext, t *Task[struct{}]) {
	if t == nil || !t.Valid() {
		panic("cnerium: SpawnDetached requires a valid task")
	}
	inner := NewVoidTask(func(h *Handle) error {
		_, err := t.Await(h)
		return err
	})
	inner.Start(ctx.Scheduler())
}
