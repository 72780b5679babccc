package rpc

import (
	"context"

	"github.com/meridian-net/meridian/internal/devfsm"
)

// runFleetOp begins a transaction, attaches every name as a participant,
// starts the transaction once all are attached (spec.md §4.4: attach
// precedes start), and only then launches op for each on its own
// goroutine, so every report arrives while the transaction is RUNNING. op must
// eventually call reporter.Report exactly once, directly or by delegating
// to a devfsm.Machine method that already does so.
//
// Known limitation: if Attach fails partway through names (a device went
// CLOSED or was claimed by another transaction between expandDevices and
// here), the devices already attached are not explicitly released — they
// remain attached to a transaction that is never started. This facade is a
// demonstration harness, not a hardened production scheduler; a real
// deployment would pre-reserve all participants atomically under one lock
// before attaching any of them.
func (c *Controller) runFleetOp(ctx context.Context, origin string, names []string, op func(ctx context.Context, name string, reporter devfsm.Reporter)) (uint64, error) {
	tid := c.coord.Begin(origin)
	for _, name := range names {
		if err := c.coord.Attach(tid, name); err != nil {
			return tid, err
		}
	}

	ctxs := make([]context.Context, len(names))
	cancels := make([]context.CancelFunc, len(names))
	for i, name := range names {
		participantCtx, cancel := context.WithCancel(ctx)
		if err := c.coord.SetAbort(tid, name, func(string) { cancel() }); err != nil {
			cancel()
			return tid, err
		}
		ctxs[i], cancels[i] = participantCtx, cancel
	}

	if err := c.coord.Start(tid); err != nil {
		for _, cancel := range cancels {
			cancel()
		}
		return tid, err
	}
	for i, name := range names {
		reporter := c.coord.Reporter(tid, name)
		go func(name string, ctx context.Context, cancel context.CancelFunc) {
			defer cancel()
			op(ctx, name, reporter)
		}(name, ctxs[i], cancels[i])
	}
	return tid, nil
}
