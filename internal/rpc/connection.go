package rpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/meridian-net/meridian/internal/devfsm"
)

// ConnOperation is connection-change's operation field.
type ConnOperation string

const (
	ConnOpen      ConnOperation = "open"
	ConnClose     ConnOperation = "close"
	ConnReconnect ConnOperation = "reconnect"
)

// ConnectionChange drives every device matching devnamePattern through an
// open/close/reconnect cycle (spec.md §6: "connection-change{devname,
// operation=open|close|reconnect} -> returns ok"). Unlike config-pull and
// controller-commit this RPC returns a bare ok, not a tid: opening a
// connection is exactly the operation that takes a device out of CLOSED,
// which internal/txn.Attach refuses to do (a device must already be
// attachable to participate in a coordinated transaction), so this method
// drives devfsm.Machine directly rather than through the coordinator.
func (c *Controller) ConnectionChange(ctx context.Context, devnamePattern string, op ConnOperation) error {
	names, err := c.expandDevices(devnamePattern)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			errs[i] = c.changeOne(ctx, name, op)
		}(i, name)
	}
	wg.Wait()

	var failures []string
	for i, e := range errs {
		if e != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", names[i], e))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("rpc: connection-change failed for %v", failures)
	}
	return nil
}

func (c *Controller) changeOne(ctx context.Context, name string, op ConnOperation) error {
	switch op {
	case ConnOpen:
		return c.openDevice(ctx, name)
	case ConnClose:
		return c.closeDevice(name)
	case ConnReconnect:
		_ = c.closeDevice(name)
		return c.openDevice(ctx, name)
	default:
		return fmt.Errorf("rpc: unknown connection-change operation %q", op)
	}
}

func (c *Controller) openDevice(ctx context.Context, name string) error {
	m, err := c.dial(name)
	if err != nil {
		return err
	}
	if err := m.Connect(ctx, devfsm.NopReporter{}); err != nil {
		c.dropMachine(name)
		return err
	}
	return nil
}

func (c *Controller) closeDevice(name string) error {
	m, err := c.machineFor(name)
	if err != nil {
		// Already closed (or never opened): connection-change close is
		// idempotent.
		return nil
	}
	err = m.Close()
	c.dropMachine(name)
	return err
}
