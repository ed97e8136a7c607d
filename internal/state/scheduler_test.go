package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleBeforeStartIsRefused(t *testing.T) {
	s := NewTaskScheduler()

	ok := s.Schedule(func(ctx context.Context) {
		t.Error("task must not run before Start")
	})

	assert.False(t, ok)
}

func TestScheduleRunsTask(t *testing.T) {
	s := NewTaskScheduler()
	s.Start()

	done := make(chan struct{})
	ok := s.Schedule(func(ctx context.Context) {
		close(done)
	})

	require.True(t, ok)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never ran")
	}
}

func TestStopWaitsForInFlightTasks(t *testing.T) {
	s := NewTaskScheduler()
	s.Start()

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, s.Schedule(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	stopDone := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		stopDone <- s.Stop(ctx)
	}()

	// Stop must not return while the task is blocked.
	select {
	case err := <-stopDone:
		t.Fatalf("Stop returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-stopDone)
}

func TestStopTimesOutOnStuckTask(t *testing.T) {
	s := NewTaskScheduler()
	s.Start()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	require.True(t, s.Schedule(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}

func TestScheduleAfterStopIsRefused(t *testing.T) {
	s := NewTaskScheduler()
	s.Start()
	require.NoError(t, s.Stop(context.Background()))

	ok := s.Schedule(func(ctx context.Context) {
		t.Error("task must not run after Stop")
	})

	assert.False(t, ok)
}

func TestStartIsIdempotent(t *testing.T) {
	s := NewTaskScheduler()
	s.Start()
	s.Start()

	done := make(chan struct{})
	require.True(t, s.Schedule(func(ctx context.Context) { close(done) }))
	<-done

	require.NoError(t, s.Stop(context.Background()))
}
