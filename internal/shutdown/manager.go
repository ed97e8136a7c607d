package shutdown

import (
	"context"
	"sync"
	"time"

	"quranbot/internal/logger"
)

type Component interface {
	Shutdown(ctx context.Context) error
	Name() string
}

// Manager tears registered components down in reverse registration order
// under a single deadline.
type Manager struct {
	components []Component
	mu         sync.RWMutex
	shutdown   chan struct{}
	done       chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		components: make([]Component, 0),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (m *Manager) Register(component Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component)
	logger.Info().Str("component", component.Name()).Msg("registered shutdown component")
}

func (m *Manager) Shutdown(timeout time.Duration) error {
	logger.Info().Msg("initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	close(m.shutdown)

	m.mu.RLock()
	components := make([]Component, len(m.components))
	copy(components, m.components)
	m.mu.RUnlock()

	for i := len(components) - 1; i >= 0; i-- {
		component := components[i]
		logger.Info().Str("component", component.Name()).Msg("shutting down component")

		if err := component.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Str("component", component.Name()).Msg("component shutdown failed")
		} else {
			logger.Info().Str("component", component.Name()).Msg("component shut down")
		}

		if ctx.Err() != nil {
			logger.Error().Msg("shutdown deadline exceeded")
			close(m.done)
			return ctx.Err()
		}
	}

	logger.Info().Msg("all components shut down")
	close(m.done)
	return nil
}

func (m *Manager) IsShuttingDown() bool {
	select {
	case <-m.shutdown:
		return true
	default:
		return false
	}
}

func (m *Manager) Wait() {
	<-m.done
}
