package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublished(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Publish(NewRunStartedEvent("run-1", 4242, "script"))

	select {
	case ev := <-ch:
		started, ok := ev.(RunStartedEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		if started.PID != 4242 || started.RunID() != "run-1" {
			t.Errorf("got %+v", started)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeTypeFilter(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	ch := bus.Subscribe(TypeRunFailed)
	bus.Publish(NewRunProgressEvent("run-1", "cycle 1 done"))
	bus.Publish(NewRunFailedEvent("run-1", "RUN_FAILED", "login failed", 3))

	select {
	case ev := <-ch:
		if ev.EventType() != TypeRunFailed {
			t.Errorf("filter leaked event type %q", ev.EventType())
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for filtered event")
	}
}

func TestRingBufferDropsOldest(t *testing.T) {
	bus := NewBus(2)
	defer bus.Close()

	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(NewRunProgressEvent("run-1", "line"))
	}

	if bus.DroppedCount() == 0 {
		t.Error("expected drops with a full buffer")
	}
	// Buffer still holds the most recent events.
	if len(ch) != 2 {
		t.Errorf("expected 2 buffered events, got %d", len(ch))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	bus.Publish(NewRunCompletedEvent("run-1"))
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := NewBus(10)
	ch := bus.Subscribe()
	bus.Close()
	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("expected closed subscriber channel")
	}
	bus.Publish(NewRunCompletedEvent("run-1")) // no-op, no panic
}
