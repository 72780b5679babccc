package rpc

// TransactionNew allocates a fresh transaction id without attaching any
// participants (spec.md §6: "transaction-new{origin} -> returns {id}").
// Controller offers no operation to attach participants to or start such a
// transaction, so it stays in INIT; Transaction reports on it.
func (c *Controller) TransactionNew(origin string) uint64 {
	return c.coord.Begin(origin)
}

// TransactionError cancels tid, aborting every in-flight participant
// (spec.md §6: "transaction-error{tid, origin, reason} -> terminates a
// transaction"; spec.md §4.4/§9: cancellation is real abort-and-report, not
// a no-op).
func (c *Controller) TransactionError(tid uint64, origin, reason string) error {
	_ = origin
	return c.coord.Cancel(tid, reason)
}
