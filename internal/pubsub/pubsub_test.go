package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func TestBroker_DeliversToEverySubscriber(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	a := broker.Subscribe(t.Context())
	b := broker.Subscribe(t.Context())
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(ChangedEvent, "paper.md")

	for _, ch := range []<-chan Event[string]{a, b} {
		event := receive(t, ch)
		require.Equal(t, ChangedEvent, event.Type)
		require.Equal(t, "paper.md", event.Payload)
		require.False(t, event.Timestamp.IsZero())
	}
}

func TestBroker_UnsubscribesOnCancel(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 },
		time.Second, 5*time.Millisecond)
	_, ok := <-ch
	require.False(t, ok, "channel closed after cancel")
}

func TestBroker_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(t.Context())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			broker.Publish(ChangedEvent, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "Publish blocked")
	}

	require.Equal(t, 0, receive(t, ch).Payload, "the first event is kept")
	require.Equal(t, int64(4), broker.Dropped())
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()
	ch := broker.Subscribe(t.Context())

	broker.Close()
	broker.Close()
	broker.Publish(RemovedEvent, "ignored")

	_, ok := <-ch
	require.False(t, ok)
	require.Zero(t, broker.SubscriberCount())

	late := broker.Subscribe(t.Context())
	_, ok = <-late
	require.False(t, ok, "subscriptions after Close start closed")
}

func TestBroker_BufferSizeFloor(t *testing.T) {
	broker := NewBrokerWithBuffer[int](0)
	defer broker.Close()
	ch := broker.Subscribe(t.Context())

	broker.Publish(ChangedEvent, 7)
	require.Equal(t, 7, receive(t, ch).Payload)
}

func TestListener_ReturnsEventsAsMessages(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	l := NewListener[string](t.Context(), broker)
	broker.Publish(RemovedEvent, "paper.md")

	msg := l.Listen()()
	event, ok := msg.(Event[string])
	require.True(t, ok, "got %T", msg)
	require.Equal(t, RemovedEvent, event.Type)
	require.Equal(t, "paper.md", event.Payload)
}

func TestListenCmd_NilOnCancelOrClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Nil(t, ListenCmd(ctx, make(chan Event[string]))())

	closed := make(chan Event[string])
	close(closed)
	require.Nil(t, ListenCmd(context.Background(), closed)())

	require.Nil(t, ListenCmd[string](context.Background(), nil))

	var l *Listener[string]
	require.Nil(t, l.Listen())
}
