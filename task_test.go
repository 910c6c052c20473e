package cnerium

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustPanic asserts that fn panics with a message containing contains.
// It only marks the test failed, never aborts it, so it is safe to
// call from a task body running on a frame goroutine.
func mustPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected a panic containing %q", contains)
		} else {
			assert.Contains(t, fmt.Sprint(r), contains)
		}
	}()
	fn()
}

// runOnLoop drives body as a task on ctx's event loop, stops the loop
// when it returns, and reports its error.
func runOnLoop(t *testing.T, ctx *IOContext, body func(h *Handle) error) error {
	t.Helper()
	var err error
	SpawnDetached(ctx, NewVoidTask(func(h *Handle) error {
		err = body(h)
		ctx.Stop()
		return nil
	}))
	ctx.Run()
	return err
}

func compute() *Task[int] {
	return NewTask(func(h *Handle) (int, error) {
		return 42, nil
	})
}

func addOne(t *Task[int]) *Task[int] {
	return NewTask(func(h *Handle) (int, error) {
		v, err := t.Await(h)
		if err != nil {
			return 0, err
		}
		return v + 1, nil
	})
}

func TestTaskChain(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	var got int
	err := runOnLoop(t, ctx, func(h *Handle) error {
		v, err := addOne(compute()).Await(h)
		got = v
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 43, got)
}

func TestTaskFailurePropagation(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	boom := NewVoidTask(func(h *Handle) error {
		return errors.New("boom")
	})

	err := runOnLoop(t, ctx, func(h *Handle) error {
		_, err := boom.Await(h)
		return err
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestTaskLazyStart(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	started := false
	task := NewTask(func(h *Handle) (int, error) {
		started = true
		return 1, nil
	})

	assert.False(t, started, "constructing a task must run no user code")

	_ = runOnLoop(t, ctx, func(h *Handle) error {
		_, err := task.Await(h)
		return err
	})
	assert.True(t, started)
}

func TestTaskAwaitTwicePanics(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	task := NewTask(func(h *Handle) (int, error) { return 1, nil })

	err := runOnLoop(t, ctx, func(h *Handle) error {
		if _, err := task.Await(h); err != nil {
			return err
		}
		mustPanic(t, "awaited twice", func() { _, _ = task.Await(h) })
		return nil
	})
	require.NoError(t, err)
}

func TestTaskStartReleasesOwnership(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	ran := false
	task := NewVoidTask(func(h *Handle) error {
		ran = true
		ctx.Stop()
		return nil
	})

	require.True(t, task.Valid())
	task.Start(ctx.Scheduler())
	assert.False(t, task.Valid(), "Start must empty the task value")
	mustPanic(t, "invalid task", func() { _, _ = task.Await(nil) })

	ctx.Run()
	assert.True(t, ran)
}

func TestTaskCompletedHandleIsReady(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	task := NewTask(func(h *Handle) (int, error) { return 9, nil })
	ctx.PostHandle(task.Handle())

	var got int
	var err error
	// Queued behind the frame's resumption, so the task is done by the
	// time this job awaits it.
	ctx.Post(func() {
		SpawnDetached(ctx, NewVoidTask(func(h *Handle) error {
			got, err = task.Await(h)
			ctx.Stop()
			return nil
		}))
	})
	ctx.Run()

	require.NoError(t, err)
	assert.Equal(t, 9, got)
}

func TestTaskAwaitWhileRunningPanics(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	task := NewVoidTask(func(h *Handle) error {
		// Park until the loop stops; the task never completes.
		h.Suspend(func(wake func()) {})
		return nil
	})
	ctx.PostHandle(task.Handle())

	err := runOnLoop(t, ctx, func(h *Handle) error {
		mustPanic(t, "already running", func() { _, _ = task.Await(h) })
		return nil
	})
	require.NoError(t, err)
}

func TestTaskPanicBecomesPanicError(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	task := NewVoidTask(func(h *Handle) error {
		panic("kaput")
	})

	err := runOnLoop(t, ctx, func(h *Handle) error {
		_, err := task.Await(h)
		return err
	})

	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "kaput", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestTaskMoveOut(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	want := new(int)
	*want = 7
	task := NewTask(func(h *Handle) (*int, error) { return want, nil })

	var got *int
	err := runOnLoop(t, ctx, func(h *Handle) error {
		v, err := task.Await(h)
		got = v
		return err
	})

	require.NoError(t, err)
	assert.Same(t, want, got, "the awaited value is the stored object, not a copy")
}

func TestTaskYield(t *testing.T) {
	ctx := NewIOContext()
	defer ctx.Close()

	var order []string
	err := runOnLoop(t, ctx, func(h *Handle) error {
		ctx.Post(func() { order = append(order, "queued") })
		h.Yield()
		order = append(order, "resumed")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"queued", "resumed"}, order,
		"Yield must let already-queued jobs run first")
}

func TestNewTaskNilBodyPanics(t *testing.T) {
	mustPanic(t, "non-nil body", func() { NewTask[int](nil) })
	mustPanic(t, "non-nil body", func() { NewVoidTask(nil) })
}
