package state

import (
	"context"
	"fmt"
	"sync"

	"quranbot/internal/logger"
)

type subscription struct {
	id   int
	name string
	fn   Listener
}

// Bus dispatches state events to listeners in subscription order. Listeners
// for one emission run sequentially, each finishing before the next starts.
// A failing listener is logged and skipped over; it never aborts the
// emission or reaches the mutator that triggered it.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[EventName][]subscription
}

func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventName][]subscription),
	}
}

// Subscribe appends a listener for the event and returns an id for
// Unsubscribe. The name is only used in log output.
func (b *Bus) Subscribe(event EventName, name string, fn Listener) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[event] = append(b.listeners[event], subscription{
		id:   b.nextID,
		name: name,
		fn:   fn,
	})

	logger.Debug().Str("event", string(event)).Str("listener", name).Msg("listener subscribed")
	return b.nextID
}

// Unsubscribe removes one listener. An unknown event or id is logged, not an
// error: teardown paths call this without knowing whether registration ever
// happened.
func (b *Bus) Unsubscribe(event EventName, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.listeners[event]
	if !ok {
		logger.Warn().Str("event", string(event)).Msg("unsubscribe from unknown event")
		return
	}

	for i, sub := range subs {
		if sub.id == id {
			b.listeners[event] = append(subs[:i], subs[i+1:]...)
			logger.Debug().Str("event", string(event)).Str("listener", sub.name).Msg("listener unsubscribed")
			return
		}
	}

	logger.Warn().Str("event", string(event)).Int("id", id).Msg("unsubscribe for unregistered listener")
}

func (b *Bus) ListenerCount(event EventName) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[event])
}

// Emit invokes every listener registered for the event, in subscription
// order. Returns how many listeners succeeded and how many failed.
func (b *Bus) Emit(ctx context.Context, ev Event) (succeeded, failed int) {
	b.mu.Lock()
	subs := make([]subscription, len(b.listeners[ev.Name]))
	copy(subs, b.listeners[ev.Name])
	b.mu.Unlock()

	for i, sub := range subs {
		if err := b.invoke(ctx, sub, ev); err != nil {
			failed++
			logger.Error().
				Err(err).
				Str("event", string(ev.Name)).
				Int("position", i).
				Str("listener", sub.name).
				Msg("event listener failed")
			continue
		}
		succeeded++
	}

	if failed > 0 {
		logger.Warn().
			Str("event", string(ev.Name)).
			Int("succeeded", succeeded).
			Int("failed", failed).
			Msg("event emitted with listener failures")
	} else {
		logger.Debug().
			Str("event", string(ev.Name)).
			Int("listeners", succeeded).
			Msg("event emitted")
	}

	return succeeded, failed
}

func (b *Bus) invoke(ctx context.Context, sub subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return sub.fn(ctx, ev)
}
