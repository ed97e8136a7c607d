package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRunsListenersInSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Subscribe(EventStateUpdated, name, func(ctx context.Context, ev Event) error {
			order = append(order, name)
			return nil
		})
	}

	succeeded, failed := bus.Emit(context.Background(), Event{Name: EventStateUpdated})

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEmitIsolatesFailingListener(t *testing.T) {
	bus := NewBus()

	var ran []string
	bus.Subscribe(EventStateUpdated, "first", func(ctx context.Context, ev Event) error {
		ran = append(ran, "first")
		return nil
	})
	bus.Subscribe(EventStateUpdated, "second", func(ctx context.Context, ev Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(EventStateUpdated, "third", func(ctx context.Context, ev Event) error {
		ran = append(ran, "third")
		return nil
	})

	succeeded, failed := bus.Emit(context.Background(), Event{Name: EventStateUpdated})

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"first", "third"}, ran)
}

func TestEmitRecoversPanickingListener(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(EventStateUpdated, "panicky", func(ctx context.Context, ev Event) error {
		panic("listener exploded")
	})
	var ran bool
	bus.Subscribe(EventStateUpdated, "steady", func(ctx context.Context, ev Event) error {
		ran = true
		return nil
	})

	succeeded, failed := bus.Emit(context.Background(), Event{Name: EventStateUpdated})

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.True(t, ran)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	var count int
	id := bus.Subscribe(EventSongChanged, "counter", func(ctx context.Context, ev Event) error {
		count++
		return nil
	})

	bus.Emit(context.Background(), Event{Name: EventSongChanged})
	bus.Unsubscribe(EventSongChanged, id)
	bus.Emit(context.Background(), Event{Name: EventSongChanged})

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.ListenerCount(EventSongChanged))
}

func TestUnsubscribeUnknownIsHarmless(t *testing.T) {
	bus := NewBus()

	require.NotPanics(t, func() {
		bus.Unsubscribe(EventSongChanged, 42)
		bus.Unsubscribe("never_heard_of_it", 1)
	})
}

func TestEmitWithNoListeners(t *testing.T) {
	bus := NewBus()

	succeeded, failed := bus.Emit(context.Background(), Event{Name: EventIndexChanged})

	assert.Equal(t, 0, succeeded)
	assert.Equal(t, 0, failed)
}

func TestListenersAreScopedToTheirEvent(t *testing.T) {
	bus := NewBus()

	var songEvents, indexEvents int
	bus.Subscribe(EventSongChanged, "song", func(ctx context.Context, ev Event) error {
		songEvents++
		return nil
	})
	bus.Subscribe(EventIndexChanged, "index", func(ctx context.Context, ev Event) error {
		indexEvents++
		return nil
	})

	bus.Emit(context.Background(), Event{Name: EventSongChanged})

	assert.Equal(t, 1, songEvents)
	assert.Equal(t, 0, indexEvents)
}
