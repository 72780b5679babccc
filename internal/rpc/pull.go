package rpc

import (
	"context"

	"github.com/meridian-net/meridian/internal/devfsm"
)

// ConfigPull triggers a DEVICE_SYNC cycle on every device matching
// devnamePattern (spec.md §6: "config-pull{devname, transient?} -> returns
// {tid}"). transient=true discards the pulled tree, leaving the device's
// synced_xml and the local datastore untouched; no diff is computed.
func (c *Controller) ConfigPull(ctx context.Context, devnamePattern string, transient bool) (uint64, error) {
	names, err := c.expandDevices(devnamePattern)
	if err != nil {
		return 0, err
	}
	return c.runFleetOp(ctx, "config-pull", names, func(ctx context.Context, name string, reporter devfsm.Reporter) {
		m, err := c.machineFor(name)
		if err != nil {
			reporter.Report(name, devfsm.ResultError, err.Error())
			return
		}
		// ConfigPull reports through reporter itself on both outcomes.
		m.ConfigPull(ctx, transient, reporter) //nolint:errcheck
	})
}
