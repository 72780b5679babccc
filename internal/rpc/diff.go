package rpc

import (
	"context"
	"fmt"

	"github.com/meridian-net/meridian/internal/datastore"
	"github.com/meridian-net/meridian/internal/device"
	"github.com/meridian-net/meridian/internal/diff"
)

// DiffRequest selects the two per-device datastore references to compare
// (spec.md §6's devname-scoped datastore-diff shape: "{devname,
// config-type1, config-type2, format}"). ConfigType is one of "running",
// "candidate", or "synced" (the device's last-synced tree, held on the
// handle rather than in the datastore). XPath, when set, would scope the
// comparison to a subtree; filtering is not implemented.
type DiffRequest struct {
	DevName     string
	ConfigType1 string
	ConfigType2 string
	XPath       string
}

// DatastoreDiff returns the diff between two named references for one
// device. spec.md §6's other request shape — {dsref1, dsref2, format,
// xpath}, comparing two arbitrary references in the external datastore
// engine with no device in scope — addresses that engine directly and has
// no analog in internal/datastore.Store, which this facade only exposes
// per device mount point; it is not implemented here.
func (c *Controller) DatastoreDiff(ctx context.Context, req DiffRequest) ([]datastore.DiffEntry, error) {
	h, err := c.registry.Find(req.DevName)
	if err != nil {
		return nil, err
	}
	mount := c.cfg.MountPoint(req.DevName)

	if isRunningCandidatePair(req.ConfigType1, req.ConfigType2) {
		return c.store.Diff(ctx, mount, req.ConfigType1, req.ConfigType2)
	}

	t1, err := c.resolveRef(ctx, h, mount, req.ConfigType1)
	if err != nil {
		return nil, err
	}
	t2, err := c.resolveRef(ctx, h, mount, req.ConfigType2)
	if err != nil {
		return nil, err
	}
	return editScriptToDiffEntries(diff.Diff(t1, t2)), nil
}

func isRunningCandidatePair(a, b string) bool {
	return (a == "running" && b == "candidate") || (a == "candidate" && b == "running")
}

func (c *Controller) resolveRef(ctx context.Context, h *device.Handle, mount, ref string) (*diff.Tree, error) {
	switch ref {
	case "running":
		return c.store.Running(ctx, mount)
	case "candidate":
		return c.store.Candidate(ctx, mount)
	case "synced":
		return h.SyncedXML(), nil
	default:
		return nil, fmt.Errorf("rpc: unknown config-type %q", ref)
	}
}

func editScriptToDiffEntries(script *diff.EditScript) []datastore.DiffEntry {
	all := script.All()
	out := make([]datastore.DiffEntry, 0, len(all))
	for _, e := range all {
		value := e.Value
		if e.Subtree != nil {
			value = e.Subtree.Get(e.Subtree.Root).Value
		}
		out = append(out, datastore.DiffEntry{Path: e.Path, Op: e.Op.String(), Value: value})
	}
	return out
}
