package state

import (
	"context"
	"sync"

	"quranbot/internal/logger"
)

// Scheduler spawns event emissions off the mutator's call path. The store
// never blocks a setter on listener work; it hands the emission to the
// scheduler and moves on.
type Scheduler interface {
	// Schedule runs fn on a background task. Returns false when the
	// scheduler is not running, in which case fn is never called.
	Schedule(fn func(ctx context.Context)) bool
}

// TaskScheduler is the production Scheduler. Mutations that happen before
// Start or after Stop get their emissions dropped, mirroring how the bot
// only delivers events while its dispatch loop is alive.
type TaskScheduler struct {
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewTaskScheduler() *TaskScheduler {
	return &TaskScheduler{}
}

func (s *TaskScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true
	logger.Debug().Msg("task scheduler started")
}

func (s *TaskScheduler) Schedule(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()

	return true
}

// Stop refuses new tasks and waits for in-flight ones to finish, bounded by
// the context deadline.
func (s *TaskScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		logger.Debug().Msg("task scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		logger.Warn().Msg("task scheduler stop timed out with tasks in flight")
		return ctx.Err()
	}
}

func (s *TaskScheduler) Shutdown(ctx context.Context) error {
	return s.Stop(ctx)
}

func (s *TaskScheduler) Name() string {
	return "TaskScheduler"
}
