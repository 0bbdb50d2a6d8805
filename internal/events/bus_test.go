package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishRunsHandlersInOrder(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.Subscribe(Unauthorized, func(ctx context.Context, event Event) error {
		calls = append(calls, "first:"+event.Path)
		return nil
	})
	bus.Subscribe(Unauthorized, func(ctx context.Context, event Event) error {
		calls = append(calls, "second:"+event.Path)
		return nil
	})

	event := NewEvent(Unauthorized, "test")
	event.Path = "/users/me"

	require.NoError(t, bus.Publish(context.Background(), event))
	assert.Equal(t, []string{"first:/users/me", "second:/users/me"}, calls)
	assert.Equal(t, 2, bus.SubscriberCount(Unauthorized))
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Publish(context.Background(), NewEvent(LoggedOut, "test")))

	var nilBus *Bus
	assert.NoError(t, nilBus.Publish(context.Background(), NewEvent(LoggedOut, "test")))
}

func TestBus_PublishJoinsHandlerErrors(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")

	called := false
	bus.Subscribe(LoggedIn, func(ctx context.Context, event Event) error {
		return boom
	})
	bus.Subscribe(LoggedIn, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), NewEvent(LoggedIn, "test"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, called, "later handlers still run when an earlier one fails")
}

func TestBus_OtherTypesNotDelivered(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(LoggedIn, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), NewEvent(Unauthorized, "test")))
	assert.False(t, called)
}
