package cnerium

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFIFO(t *testing.T) {
	s := NewScheduler()

	var order []int
	for i := range 100 {
		s.Post(func() { order = append(order, i) })
	}
	s.Stop()
	s.Run()

	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSchedulerStopDrainsPendingJobs(t *testing.T) {
	s := NewScheduler()

	ran := 0
	for range 10 {
		s.Post(func() { ran++ })
	}
	s.Stop()
	s.Run()

	assert.Equal(t, 10, ran, "jobs enqueued before stop should drain")
}

func TestSchedulerStopWakesBlockedRun(t *testing.T) {
	s := NewScheduler()

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	// Let Run reach its wait.
	time.Sleep(10 * time.Millisecond)
	assert.True(t, s.IsRunning())
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not observe the stop request")
	}
	assert.False(t, s.IsRunning())
}

func TestSchedulerPostFromJob(t *testing.T) {
	s := NewScheduler()

	var order []string
	s.Post(func() {
		order = append(order, "first")
		s.Post(func() {
			order = append(order, "second")
			s.Stop()
		})
	})
	s.Run()

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSchedulerPostAfterStop(t *testing.T) {
	s := NewScheduler()
	s.Stop()
	s.Run()

	// Must not deadlock or panic; whether the job ever runs is
	// implementation discretion.
	s.Post(func() {})
	assert.Equal(t, 1, s.Pending())
}

func TestSchedulerPending(t *testing.T) {
	s := NewScheduler()
	assert.Equal(t, 0, s.Pending())
	s.Post(func() {})
	s.Post(func() {})
	assert.Equal(t, 2, s.Pending())
}

func TestSchedulerPostNilPanics(t *testing.T) {
	s := NewScheduler()
	mustPanic(t, "non-nil job", func() { s.Post(nil) })
}

func TestSchedulerPostHandleResumesTask(t *testing.T) {
	s := NewScheduler()

	ran := false
	task := NewVoidTask(func(h *Handle) error {
		ran = true
		s.Stop()
		return nil
	})
	s.PostHandle(task.Handle())
	s.Run()

	assert.True(t, ran)
	assert.True(t, task.Handle().Done())
}
