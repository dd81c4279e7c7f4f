package dispatch

import (
	"errors"
	"testing"
)

func TestBlockingMatchesEngineOutcome(t *testing.T) {
	t.Parallel()
	log := &callLog{}
	n := New()
	mustAdd(t, n, &fakeChannel{kind: "telegram", label: "x", log: log, sendErr: errors.New("down")}, "x")
	mustAdd(t, n, &fakeChannel{kind: "email", label: "y", log: log}, "y")
	n.SetFallbackOrder([]string{"x", "y"})

	b := NewBlocking(n)
	defer b.Close()

	if err := b.Send("hello", nil); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if got := log.names(); !equalNames(got, []string{"x", "y"}) {
		t.Fatalf("invocation order = %v, want [x y]", got)
	}
}

func TestBlockingPropagatesFailure(t *testing.T) {
	t.Parallel()
	n := New()
	mustAdd(t, n, &fakeChannel{kind: "telegram", sendErr: errors.New("down")}, "x")
	n.SetFallbackOrder([]string{"x"})

	b := NewBlocking(n)
	defer b.Close()

	if err := b.Send("hello", nil); !errors.Is(err, ErrAllChannelsFailed) {
		t.Fatalf("error = %v, want ErrAllChannelsFailed", err)
	}
}

func TestBlockingSendAfterClose(t *testing.T) {
	t.Parallel()
	n := New()
	mustAdd(t, n, &fakeChannel{kind: "telegram"}, "x")

	b := NewBlocking(n)
	b.Close()

	if err := b.Send("hello", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("error = %v, want ErrClosed", err)
	}
}
