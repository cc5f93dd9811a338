package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan ProcessStartedEvent, 1)

	unsub := bus.Subscribe(func(e ProcessStartedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(ProcessStartedEvent{PID: 42, Timestamp: "2025-01-27T10:30:00Z"})

	select {
	case got := <-received:
		if got.PID != 42 {
			t.Errorf("Expected pid 42, got %d", got.PID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_TypeIsolation(t *testing.T) {
	bus := New()
	stopped := make(chan ProcessStoppedEvent, 1)

	unsub := bus.Subscribe(func(e ProcessStoppedEvent) {
		stopped <- e
	})
	defer unsub()

	bus.Publish(ProcessStartedEvent{PID: 1})

	select {
	case e := <-stopped:
		t.Fatalf("Stopped subscriber received unexpected event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ProcessSpawnFailedEvent, 2)

	unsub := bus.Subscribe(func(e ProcessSpawnFailedEvent) {
		received <- e
	})
	unsub()

	bus.Publish(ProcessSpawnFailedEvent{Error: "boom"})

	select {
	case <-received:
		t.Fatal("Received event after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_UnknownHandlerIsNoop(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_NilPublishIsNoop(_ *testing.T) {
	var bus *Bus
	bus.Publish(ProcessStartedEvent{PID: 1})
}

func TestSubscribeToChannel_NonBlocking(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[ProcessStoppedEvent](bus, ch)
	defer unsub()

	for i := range 5 {
		bus.Publish(ProcessStoppedEvent{PID: i, Outcome: "stopped"})
	}

	select {
	case ev := <-ch:
		if _, ok := ev.(ProcessStoppedEvent); !ok {
			t.Errorf("Expected ProcessStoppedEvent, got %T", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}
