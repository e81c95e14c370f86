package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	sub := hub.Subscribe(ctx, 4)

	hub.Publish(Event{Type: TypeActivityRecorded, Data: map[string]any{"user": "u"}})

	select {
	case evt := <-sub:
		if evt.Type != TypeActivityRecorded || evt.Timestamp == 0 {
			t.Fatalf("evt=%+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}

	cancel()
	deadline := time.Now().Add(time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not removed after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, ok := <-sub; ok {
		t.Fatalf("channel should be closed")
	}
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := hub.Subscribe(ctx, 1)

	hub.Publish(Event{Type: "a"})
	hub.Publish(Event{Type: "b"})

	if evt := <-sub; evt.Type != "a" {
		t.Fatalf("evt=%+v, want a", evt)
	}
	select {
	case evt := <-sub:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
	if hub.Dropped() != 1 {
		t.Fatalf("dropped=%d, want 1", hub.Dropped())
	}
}

func TestHubTypeFilter(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := hub.Subscribe(ctx, 4, TypeOverrideChanged)

	hub.Publish(Event{Type: TypeActivityRecorded})
	hub.Publish(Event{Type: TypeOverrideChanged})

	if evt := <-sub; evt.Type != TypeOverrideChanged {
		t.Fatalf("evt=%+v, want %s", evt, TypeOverrideChanged)
	}
	select {
	case evt := <-sub:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
	if hub.Dropped() != 0 {
		t.Fatalf("filtered events must not count as dropped")
	}
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var hub *Hub
	hub.Publish(Event{Type: "x"})
	if hub.Subscribers() != 0 || hub.Dropped() != 0 {
		t.Fatalf("nil hub subscribers/dropped")
	}
}
