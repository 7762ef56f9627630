package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishInvokesSubscribedHandlers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var got []Event
	dispatcher.Subscribe(EventJobAssigned, func(_ context.Context, event Event) error {
		got = append(got, event)
		return nil
	})

	event := Event{
		ID:          "evt-1",
		Type:        EventJobAssigned,
		JobID:       "job-1",
		IdentityKey: "sid-k1",
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	require.Len(t, got, 1)
	assert.Equal(t, "job-1", got[0].JobID)
}

func TestPublishIgnoresUnsubscribedTypes(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	called := false
	dispatcher.Subscribe(EventJobAssigned, func(context.Context, Event) error {
		called = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventJobStatusChanged}))
	assert.False(t, called)
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var order []string
	dispatcher.Subscribe(EventJobAssigned, func(context.Context, Event) error {
		order = append(order, "first")
		return errors.New("handler fault")
	})
	dispatcher.Subscribe(EventJobAssigned, func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventJobAssigned}))
	assert.Equal(t, []string{"first", "second"}, order)
}
