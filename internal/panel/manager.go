package panel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/logger"
	"quranbot/internal/state"
)

const (
	defaultRefreshTimeout = 30 * time.Second
	shutdownWait          = 5 * time.Second
	shutdownPoll          = 100 * time.Millisecond
)

// View is the one capability the manager consumes from a panel: re-render
// now. Render may fail with discordgo transport errors, which the manager
// classifies and logs. Host exposes the owning session so registration can
// reject a panel that lost its client.
type View interface {
	Render(ctx context.Context) error
	Host() *discordgo.Session
}

// Manager wires at most one live panel to the state bus. Construct one at
// startup and pass it around; there is no package-level instance.
type Manager struct {
	bus *state.Bus

	mu    sync.Mutex
	view  View
	subID int

	refreshTimeout time.Duration
	updating       atomic.Bool
}

func NewManager(bus *state.Bus) *Manager {
	return &Manager{
		bus:            bus,
		refreshTimeout: defaultRefreshTimeout,
	}
}

// Register wires the view to state_updated notifications. A second
// registration unregisters the previous panel first, so exactly one panel is
// ever subscribed. Registration is all-or-nothing: a nil view or a view
// whose host session is gone is rejected without touching current state.
func (m *Manager) Register(view View) error {
	if view == nil {
		logger.Error().Msg("panel registration rejected: nil view")
		return errors.New("panel view is nil")
	}
	if view.Host() == nil {
		logger.Error().Msg("panel registration rejected: view has no host session")
		return errors.New("panel view has no host session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != nil {
		logger.Info().Msg("replacing registered panel")
		m.bus.Unsubscribe(state.EventStateUpdated, m.subID)
	}

	m.view = view
	m.subID = m.bus.Subscribe(state.EventStateUpdated, "panel-refresh", m.onStateUpdated)
	logger.Info().Msg("panel registered")
	return nil
}

// Unregister unsubscribes from the bus and drops the view reference. Safe to
// call when nothing is registered.
func (m *Manager) Unregister() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view == nil {
		return
	}

	m.bus.Unsubscribe(state.EventStateUpdated, m.subID)
	m.view = nil
	m.subID = 0
	logger.Info().Msg("panel unregistered")
}

func (m *Manager) Registered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view != nil
}

func (m *Manager) onStateUpdated(ctx context.Context, ev state.Event) error {
	m.refresh(ctx, ev.Type)
	return nil
}

// TriggerManualUpdate refreshes the panel outside of any state change, e.g.
// right after the panel message is first posted.
func (m *Manager) TriggerManualUpdate(ctx context.Context) {
	m.refresh(ctx, "manual")
}

// refresh re-renders the registered panel under a bounded timeout. At most
// one refresh runs at a time; a trigger that arrives while one is in flight
// is dropped, and the next state change will repaint anyway. No outcome is
// retried here.
func (m *Manager) refresh(ctx context.Context, reason string) {
	m.mu.Lock()
	view := m.view
	m.mu.Unlock()

	if view == nil {
		logger.Debug().Str("reason", reason).Msg("no panel registered, refresh skipped")
		return
	}

	if !m.updating.CompareAndSwap(false, true) {
		logger.Debug().Str("reason", reason).Msg("panel refresh already in progress, trigger dropped")
		return
	}
	defer m.updating.Store(false)

	rctx, cancel := context.WithTimeout(ctx, m.refreshTimeout)
	defer cancel()

	// Render runs on its own goroutine so a view that ignores its context
	// still cannot hold the refresh path past the timeout.
	errCh := make(chan error, 1)
	go func() {
		errCh <- view.Render(rctx)
	}()

	select {
	case err := <-errCh:
		logOutcome(reason, err)
	case <-rctx.Done():
		logger.Error().
			Str("reason", reason).
			Dur("timeout", m.refreshTimeout).
			Msg("panel refresh timed out")
	}
}

// Shutdown waits briefly for an in-flight refresh to finish, then
// unregisters unconditionally.
func (m *Manager) Shutdown(ctx context.Context) error {
	deadline := time.Now().Add(shutdownWait)
	for m.updating.Load() {
		if time.Now().After(deadline) {
			logger.Warn().Msg("panel refresh still in flight after shutdown wait, unregistering anyway")
			break
		}
		select {
		case <-ctx.Done():
			m.Unregister()
			return ctx.Err()
		case <-time.After(shutdownPoll):
		}
	}

	m.Unregister()
	return nil
}

func (m *Manager) Name() string {
	return "PanelManager"
}
