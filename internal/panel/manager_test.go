package panel

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quranbot/internal/state"
)

type fakeView struct {
	host     *discordgo.Session
	renderFn func(ctx context.Context) error

	mu      sync.Mutex
	renders int
}

func (f *fakeView) Render(ctx context.Context) error {
	f.mu.Lock()
	f.renders++
	f.mu.Unlock()

	if f.renderFn != nil {
		return f.renderFn(ctx)
	}
	return nil
}

func (f *fakeView) Host() *discordgo.Session {
	return f.host
}

func (f *fakeView) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renders
}

func newFakeView() *fakeView {
	return &fakeView{host: &discordgo.Session{}}
}

func TestRegisterRejectsNilView(t *testing.T) {
	m := NewManager(state.NewBus())

	err := m.Register(nil)

	assert.Error(t, err)
	assert.False(t, m.Registered())
}

func TestRegisterRejectsViewWithoutHost(t *testing.T) {
	bus := state.NewBus()
	m := NewManager(bus)

	err := m.Register(&fakeView{host: nil})

	assert.Error(t, err)
	assert.False(t, m.Registered())
	assert.Equal(t, 0, bus.ListenerCount(state.EventStateUpdated))
}

func TestRegisterSubscribesToStateUpdated(t *testing.T) {
	bus := state.NewBus()
	m := NewManager(bus)
	view := newFakeView()

	require.NoError(t, m.Register(view))

	assert.True(t, m.Registered())
	assert.Equal(t, 1, bus.ListenerCount(state.EventStateUpdated))

	bus.Emit(context.Background(), state.Event{Name: state.EventStateUpdated})
	assert.Equal(t, 1, view.renderCount())
}

func TestRegisterReplacementKeepsOneSubscription(t *testing.T) {
	bus := state.NewBus()
	m := NewManager(bus)
	a := newFakeView()
	b := newFakeView()

	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b))

	assert.Equal(t, 1, bus.ListenerCount(state.EventStateUpdated))

	bus.Emit(context.Background(), state.Event{Name: state.EventStateUpdated})
	assert.Equal(t, 0, a.renderCount())
	assert.Equal(t, 1, b.renderCount())
}

func TestUnregisterRemovesSubscription(t *testing.T) {
	bus := state.NewBus()
	m := NewManager(bus)
	view := newFakeView()

	require.NoError(t, m.Register(view))
	m.Unregister()

	assert.False(t, m.Registered())
	assert.Equal(t, 0, bus.ListenerCount(state.EventStateUpdated))

	bus.Emit(context.Background(), state.Event{Name: state.EventStateUpdated})
	assert.Equal(t, 0, view.renderCount())
}

func TestUnregisterWithoutRegistrationIsHarmless(t *testing.T) {
	m := NewManager(state.NewBus())
	require.NotPanics(t, m.Unregister)
}

func TestSingleRefreshInFlight(t *testing.T) {
	m := NewManager(state.NewBus())

	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once
	view := newFakeView()
	view.renderFn = func(ctx context.Context) error {
		startedOnce.Do(func() { close(started) })
		<-release
		return nil
	}
	require.NoError(t, m.Register(view))

	go m.TriggerManualUpdate(context.Background())
	<-started

	// A second trigger while the first render is blocked is dropped.
	m.TriggerManualUpdate(context.Background())
	assert.Equal(t, 1, view.renderCount())

	close(release)

	// Guard is released afterwards; the next trigger renders again.
	require.Eventually(t, func() bool {
		m.TriggerManualUpdate(context.Background())
		return view.renderCount() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestRefreshTimesOutOnHungRender(t *testing.T) {
	m := NewManager(state.NewBus())
	m.refreshTimeout = 50 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	view := newFakeView()
	view.renderFn = func(ctx context.Context) error {
		// Ignores its context on purpose.
		<-release
		return nil
	}
	require.NoError(t, m.Register(view))

	start := time.Now()
	m.TriggerManualUpdate(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, m.updating.Load())
}

func TestRefreshClassifiesTransportErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"not found", &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}},
		{"forbidden", &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}},
		{"server error", &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusBadGateway}}},
		{"rate limited", &discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{
			TooManyRequests: &discordgo.TooManyRequests{RetryAfter: time.Second},
		}}},
		{"cancelled", context.DeadlineExceeded},
		{"generic", errors.New("socket closed")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(state.NewBus())
			view := newFakeView()
			view.renderFn = func(ctx context.Context) error { return tc.err }
			require.NoError(t, m.Register(view))

			require.NotPanics(t, func() {
				m.TriggerManualUpdate(context.Background())
			})

			// Failure never wedges the guard.
			assert.False(t, m.updating.Load())
			m.TriggerManualUpdate(context.Background())
			assert.Equal(t, 2, view.renderCount())
		})
	}
}

func TestShutdownWaitsForInFlightRefresh(t *testing.T) {
	bus := state.NewBus()
	m := NewManager(bus)

	started := make(chan struct{})
	release := make(chan struct{})
	view := newFakeView()
	view.renderFn = func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}
	require.NoError(t, m.Register(view))

	go m.TriggerManualUpdate(context.Background())
	<-started

	go func() {
		time.Sleep(100 * time.Millisecond)
		close(release)
	}()

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.Registered())
	assert.Equal(t, 0, bus.ListenerCount(state.EventStateUpdated))
}

func TestTwoManagersAreIndependent(t *testing.T) {
	busA := state.NewBus()
	busB := state.NewBus()
	mA := NewManager(busA)
	mB := NewManager(busB)

	viewA := newFakeView()
	viewB := newFakeView()
	require.NoError(t, mA.Register(viewA))
	require.NoError(t, mB.Register(viewB))

	busA.Emit(context.Background(), state.Event{Name: state.EventStateUpdated})

	assert.Equal(t, 1, viewA.renderCount())
	assert.Equal(t, 0, viewB.renderCount())
}

// End-to-end over the real store, bus and scheduler: a mutation persists,
// notifies, and repaints the registered panel exactly once.
func TestMutationRefreshesPanelEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	bus := state.NewBus()
	scheduler := state.NewTaskScheduler()
	scheduler.Start()
	defer scheduler.Stop(context.Background())

	store := state.NewStore(path, bus, scheduler)

	m := NewManager(bus)
	view := newFakeView()
	require.NoError(t, m.Register(view))

	store.SetCurrentSongIndex(3)

	require.Eventually(t, func() bool {
		return view.renderCount() == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 3, store.CurrentSongIndex())

	reloaded := state.NewStore(path, state.NewBus(), nil)
	assert.Equal(t, 3, reloaded.CurrentSongIndex())
}
