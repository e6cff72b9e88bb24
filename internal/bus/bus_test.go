package bus_test

import (
	"testing"
	"time"

	"caltrack/internal/bus"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()
	b := bus.New()

	first, cancelFirst := b.Subscribe(4)
	defer cancelFirst()
	second, cancelSecond := b.Subscribe(4)
	defer cancelSecond()

	b.Publish(bus.Event{Kind: bus.FoodEntryChanged, Date: "2026-03-10"})

	for name, ch := range map[string]<-chan bus.Event{"first": first, "second": second} {
		select {
		case ev := <-ch:
			if ev.Kind != bus.FoodEntryChanged || ev.Date != "2026-03-10" {
				t.Fatalf("%s subscriber got %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s subscriber got no event", name)
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	t.Parallel()
	b := bus.New()

	_, cancel := b.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(bus.Event{Kind: bus.WaterLogged})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestCancelledSubscriberStopsReceiving(t *testing.T) {
	t.Parallel()
	b := bus.New()

	ch, cancel := b.Subscribe(4)
	cancel()

	b.Publish(bus.Event{Kind: bus.GoalChanged})

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("cancelled subscriber received an event")
		}
	case <-time.After(100 * time.Millisecond):
	}
}
