package eventbus

import (
	"testing"
	"time"
)

func TestPublishFanout(t *testing.T) {
	t.Parallel()

	b := New()
	ch1, unsub1 := b.Subscribe(4)
	ch2, unsub2 := b.Subscribe(4)
	defer unsub1()
	defer unsub2()

	b.Publish(Event{Type: TypeSent, Data: DeliveryEvent{Channel: "telegram"}})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != TypeSent {
				t.Fatalf("sub %d: type = %q, want %q", i, ev.Type, TypeSent)
			}
			if ev.Time.IsZero() {
				t.Fatalf("sub %d: Time not stamped", i)
			}
			de, ok := ev.Data.(DeliveryEvent)
			if !ok || de.Channel != "telegram" {
				t.Fatalf("sub %d: payload = %#v", i, ev.Data)
			}
		case <-time.After(time.Second):
			t.Fatalf("sub %d: no event received", i)
		}
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: TypeSent})
	b.Publish(Event{Type: TypeFailed}) // buffer full, must not block

	ev := <-ch
	if ev.Type != TypeSent {
		t.Fatalf("type = %q, want %q", ev.Type, TypeSent)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event %q", ev.Type)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(4)
	unsub()

	// Channel is closed; Publish must not panic.
	b.Publish(Event{Type: TypeSkipped})

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
}
