// Package notify is the controller's notification bus: the concrete
// transport for the "external datastore's notification channel" that
// spec.md §4.4 says the transaction coordinator delivers through ("The
// coordinator is the single writer of transaction state. Notifications are
// delivered to subscribed clients through the external datastore's
// notification channel (§6)"). internal/txn is the sole publisher.
package notify

import "context"

// Notification is the single event the coordinator ever emits: one
// controller-transaction notification per transaction, exactly once, on
// its terminal state (spec.md §6: "controller-transaction{tid, result,
// reason?} emitted exactly once per transaction upon terminal state").
type Notification struct {
	TID    uint64
	Result string // "SUCCESS", "FAILED", or "ERROR" — never the transient states
	Reason string // set when Result != "SUCCESS"
}

// Bus delivers Notifications to subscribed northbound clients. Publish
// should not block the coordinator for long; implementations that front a
// slow sink should buffer or drop rather than stall transaction
// finalization.
type Bus interface {
	Publish(ctx context.Context, n Notification) error
}
