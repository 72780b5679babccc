// Package memorybus is an in-memory notify.Bus, used by unit tests for
// internal/txn so the exactly-once-notification property (spec.md §8,
// property 7) can be asserted without a live Redis instance.
package memorybus

import (
	"context"
	"sync"

	"github.com/meridian-net/meridian/internal/notify"
)

// Bus records every published notification in order and fans it out to any
// channel subscribers registered before publish time.
type Bus struct {
	mu   sync.Mutex
	subs []chan notify.Notification
	sent []notify.Notification
}

// New returns an empty memorybus.
func New() *Bus {
	return &Bus{}
}

// Publish records n and delivers it to every current subscriber. Delivery is
// best-effort: a subscriber channel with no buffer room is skipped rather
// than blocking the publisher, mirroring the "should not block the
// coordinator" contract on notify.Bus.
func (b *Bus) Publish(_ context.Context, n notify.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, n)
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel that receives every notification published
// from this point on.
func (b *Bus) Subscribe() <-chan notify.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan notify.Notification, 16)
	b.subs = append(b.subs, ch)
	return ch
}

// Sent returns every notification published so far, in publish order.
func (b *Bus) Sent() []notify.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]notify.Notification, len(b.sent))
	copy(out, b.sent)
	return out
}
