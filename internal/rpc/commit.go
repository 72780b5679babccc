package rpc

import (
	"context"
	"fmt"

	"github.com/meridian-net/meridian/internal/device"
	"github.com/meridian-net/meridian/internal/devfsm"
	"github.com/meridian-net/meridian/internal/diff"
)

// Source selects which controller-side reference is diffed against a
// device's synced tree.
type Source string

const (
	SourceRunning   Source = "running"
	SourceCandidate Source = "candidate"
)

// Actions selects how the edit script is derived from the diff (spec.md
// §6's actions=NONE|CHANGE|FORCE).
type Actions string

const (
	// ActionsChange diffs the device's synced tree against source and
	// sends only the resulting edits — the default, idempotent case.
	ActionsChange Actions = "CHANGE"
	// ActionsForce diffs an empty tree against source, so the whole
	// configuration is resent regardless of what the device already has.
	ActionsForce Actions = "FORCE"
	// ActionsNone computes nothing; only meaningful combined with
	// push=NONE, where controller-commit becomes a dry pairing of source
	// and device without any device I/O.
	ActionsNone Actions = "NONE"
)

// Push selects how far the computed edit script is driven (spec.md §6's
// push=NONE|VALIDATE|COMMIT). It does not have a direct devfsm ConfigState
// equivalent for NONE: push=NONE means the participant succeeds without
// touching the device at all.
type Push string

const (
	PushNone     Push = "NONE"
	PushValidate Push = "VALIDATE"
	PushCommit   Push = "COMMIT"
)

// ControllerCommit computes the edit script between a device's synced tree
// and the controller-side reference named by source, then pushes it
// through the device's state machine to the depth named by push (spec.md
// §6: "controller-commit{device, source=running|candidate,
// actions=NONE|CHANGE|FORCE, push=NONE|VALIDATE|COMMIT, service-instance?}
// -> returns {tid}"). serviceInstance scopes the edit to one service's
// subtree in the external datastore engine, which this facade's narrow
// Store interface does not expose, so it is accepted but not yet applied as
// a filter.
func (c *Controller) ControllerCommit(ctx context.Context, devnamePattern string, source Source, actions Actions, push Push, serviceInstance string) (uint64, error) {
	names, err := c.expandDevices(devnamePattern)
	if err != nil {
		return 0, err
	}
	_ = serviceInstance

	return c.runFleetOp(ctx, "controller-commit", names, func(ctx context.Context, name string, reporter devfsm.Reporter) {
		if push == PushNone {
			reporter.Report(name, devfsm.ResultSuccess, "")
			return
		}

		m, err := c.machineFor(name)
		if err != nil {
			reporter.Report(name, devfsm.ResultError, err.Error())
			return
		}
		h, err := c.registry.Find(name)
		if err != nil {
			reporter.Report(name, devfsm.ResultError, err.Error())
			return
		}

		mount := c.cfg.MountPoint(name)
		var next *diff.Tree
		switch source {
		case SourceCandidate:
			next, err = c.store.Candidate(ctx, mount)
		default:
			next, err = c.store.Running(ctx, mount)
		}
		if err != nil {
			reporter.Report(name, devfsm.ResultError, fmt.Sprintf("reading %s datastore: %v", source, err))
			return
		}
		if next == nil {
			reporter.Report(name, devfsm.ResultError, fmt.Sprintf("no %s config staged for %s", source, name))
			return
		}

		script := buildScript(h.SyncedXML(), next, actions)
		h.SetConfigState(pushConfigState(push))
		m.Push(ctx, script, nil, reporter) //nolint:errcheck // Push reports through reporter itself
	})
}

// buildScript derives the edit script for actions: CHANGE diffs prev
// against next directly (idempotent: an unchanged device sends nothing);
// FORCE diffs an empty tree against next so the whole configuration is
// resent; NONE yields an empty script.
func buildScript(prev, next *diff.Tree, actions Actions) *diff.EditScript {
	switch actions {
	case ActionsForce:
		return diff.Diff(diff.NewTree(), next)
	case ActionsNone:
		return &diff.EditScript{}
	}
	return diff.Diff(prev, next)
}

func pushConfigState(p Push) device.ConfigState {
	if p == PushCommit {
		return device.ConfigYANGOnly
	}
	return device.ConfigValidate
}
