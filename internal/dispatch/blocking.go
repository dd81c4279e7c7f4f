package dispatch

import (
	"context"
	"errors"

	"notifyd/internal/channel"
)

// ErrClosed is returned by Blocking.Send after Close.
var ErrClosed = errors.New("blocking notifier closed")

// Blocking is a synchronous facade over a Notifier for call sites that do not
// carry a context of their own. Each Send runs exactly one campaign on a
// dedicated goroutine and blocks until it completes; concurrent calls each
// get their own run.
//
// Close releases the adapter's execution context without waiting for
// outstanding campaigns. A campaign that is mid-flight when Close is called
// may or may not complete; callers must not rely on it.
type Blocking struct {
	n      *Notifier
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBlocking wraps n. The adapter borrows n's registry and fallback order;
// it does not copy them, so setup must be finished before the first Send.
func NewBlocking(n *Notifier) *Blocking {
	ctx, cancel := context.WithCancel(context.Background())
	return &Blocking{n: n, ctx: ctx, cancel: cancel}
}

// Send runs one campaign to completion and returns its outcome. The success
// and failure semantics are identical to Notifier.Send given the same
// registry, order, and inputs.
func (b *Blocking) Send(message string, recipients []channel.Recipient) error {
	select {
	case <-b.ctx.Done():
		return ErrClosed
	default:
	}

	done := make(chan error, 1)
	go func() {
		done <- b.n.Send(b.ctx, message, recipients)
	}()

	select {
	case err := <-done:
		return err
	case <-b.ctx.Done():
		// Abandon the run; the goroutine drains into the buffered channel.
		return ErrClosed
	}
}

// Close tears the adapter down. It never blocks on in-flight sends.
func (b *Blocking) Close() { b.cancel() }
