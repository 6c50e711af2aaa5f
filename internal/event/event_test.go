package event_test

import (
	"testing"
	"time"

	"github.com/reelhouse/reeld/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Dispatch_CallsSynchronousHandlers(t *testing.T) {
	bus := event.New()

	var received []string
	bus.RegisterHandlerFunction(event.ReelUpdateEvent, func(ev event.Event, payload event.Payload) {
		received = append(received, payload.(string))
	})

	bus.Dispatch(event.ReelUpdateEvent, "abc123")
	bus.Dispatch(event.ReelUpdateEvent, "def456")

	assert.Equal(t, []string{"abc123", "def456"}, received)
}

func Test_Dispatch_CallsAsyncHandlers(t *testing.T) {
	bus := event.New()

	received := make(chan string, 1)
	bus.RegisterAsyncHandlerFunction(event.ReelCompleteEvent, func(ev event.Event, payload event.Payload) {
		received <- payload.(string)
	})

	bus.Dispatch(event.ReelCompleteEvent, "abc123")

	select {
	case payload := <-received:
		assert.Equal(t, "abc123", payload)
	case <-time.After(time.Second):
		t.Fatal("async handler was never called")
	}
}

func Test_Dispatch_SendsToRegisteredChannels(t *testing.T) {
	bus := event.New()

	handlerChannel := make(event.HandlerChannel, 2)
	bus.RegisterHandlerChannel(handlerChannel, event.ReelUpdateEvent, event.ReelProgressEvent)

	bus.Dispatch(event.ReelUpdateEvent, "abc123")
	bus.Dispatch(event.ReelProgressEvent, "abc123")
	bus.Dispatch(event.ReelCompleteEvent, "abc123")

	require.Len(t, handlerChannel, 2)
	first := <-handlerChannel
	assert.Equal(t, event.ReelUpdateEvent, first.Event)
	second := <-handlerChannel
	assert.Equal(t, event.ReelProgressEvent, second.Event)
}

func Test_Dispatch_RejectsInvalidPayloads(t *testing.T) {
	bus := event.New()

	handlerChannel := make(event.HandlerChannel, 2)
	bus.RegisterHandlerChannel(handlerChannel, event.ReelUpdateEvent, event.StorageClearEvent)

	// Reel events carry a string reel ID; storage clear carries nothing
	bus.Dispatch(event.ReelUpdateEvent, 42)
	bus.Dispatch(event.StorageClearEvent, "unexpected")

	assert.Empty(t, handlerChannel, "invalid payloads must not reach handlers")

	bus.Dispatch(event.StorageClearEvent, nil)
	assert.Len(t, handlerChannel, 1)
}
