package devfsm

import (
	"context"
	"fmt"

	"github.com/meridian-net/meridian/internal/datastore"
	"github.com/meridian-net/meridian/internal/device"
	"github.com/meridian-net/meridian/internal/diff"
)

// Push drives OPEN → PUSH_EDIT → (PUSH_VALIDATE) → PUSH_COMMIT → WRESP →
// OPEN for one edit script (spec.md §4.3, §4.5). An empty script is the
// idempotence case: no edit is sent and the device stays OPEN.
func (m *Machine) Push(ctx context.Context, script *diff.EditScript, resolver diff.NamespaceResolver, reporter Reporter) error {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if m.handle.ConnState() != device.Open {
		err := fmt.Errorf("devfsm: push requires OPEN state, device is %s", m.handle.ConnState())
		reporter.Report(m.handle.Name, ResultError, err.Error())
		return err
	}
	if script.IsEmpty() {
		reporter.Report(m.handle.Name, ResultSuccess, "")
		return nil
	}

	payload := diff.BuildPayload("candidate", script, resolver)

	raw, err := m.rpcRoundTrip(ctx, device.PushEdit, payload.XML())
	if err != nil {
		return m.abortTransport(reporter, err)
	}
	if err := checkOK(raw); err != nil {
		return m.pushReject(reporter, err)
	}

	if configLevel(m.handle.ConfigState()) == datastore.LevelValidate {
		raw, err = m.rpcRoundTrip(ctx, device.PushValidate, buildValidate("candidate"))
		if err != nil {
			return m.abortTransport(reporter, err)
		}
		if err := checkOK(raw); err != nil {
			return m.pushReject(reporter, err)
		}
	}

	if err := m.handle.SetConnState(device.PushCommit); err != nil {
		return m.abort(reporter, err, ResultError, err.Error())
	}
	raw, err = m.rpcRoundTrip(ctx, device.WResp, buildCommit())
	if err != nil {
		return m.abortTransport(reporter, err)
	}
	if err := checkOK(raw); err != nil {
		m.discardAndClose(reporter)
		return ErrCommitFailed
	}

	next := diff.Apply(m.handle.SyncedXML(), script)
	m.handle.SetSyncedXML(next)
	if err := m.handle.SetConnState(device.Open); err != nil {
		return m.abort(reporter, err, ResultError, err.Error())
	}
	m.handle.SetLogMsg("")
	reporter.Report(m.handle.Name, ResultSuccess, "")
	return nil
}

// pushReject handles a semantic reject (edit-config or validate rpc-error):
// the remote candidate is discarded, the device returns to OPEN, and the
// participant reports FAILED rather than ERROR (spec.md §4.4: "FAILED
// (semantic reject, e.g. validate failure)").
func (m *Machine) pushReject(reporter Reporter, err error) error {
	reason := err.Error()
	if rerr, ok := err.(*RPCError); ok {
		reason = rerr.Detail
	}
	id := m.handle.NextMsgID()
	m.conn.WriteFrame(buildRPC(id, buildDiscardChanges())) //nolint:errcheck // best effort cleanup
	m.handle.SetConnState(device.Open)
	reporter.Report(m.handle.Name, ResultFailed, reason)
	return err
}

// discardAndClose handles commit failure: discard the remote candidate and
// close the session with "Failed to commit" (spec.md §4.3 edge rule).
func (m *Machine) discardAndClose(reporter Reporter) {
	id := m.handle.NextMsgID()
	m.conn.WriteFrame(buildRPC(id, buildDiscardChanges())) //nolint:errcheck // best effort cleanup
	m.abort(reporter, ErrCommitFailed, ResultError, "Failed to commit")
}

// ConfigPull drives a DEVICE_SYNC cycle from OPEN (spec.md §6:
// "config-pull{devname, transient?}"), returning the newly pulled tree.
// When transient is true, handle.SyncedXML and the local datastore are left
// untouched.
func (m *Machine) ConfigPull(ctx context.Context, transient bool, reporter Reporter) (*diff.Tree, error) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if m.handle.ConnState() != device.Open {
		err := fmt.Errorf("devfsm: config-pull requires OPEN state, device is %s", m.handle.ConnState())
		reporter.Report(m.handle.Name, ResultError, err.Error())
		return nil, err
	}
	tree, err := m.deviceSync(ctx, transient)
	if err != nil {
		return nil, m.abortTransport(reporter, err)
	}
	if err := m.handle.SetConnState(device.Open); err != nil {
		return nil, m.abort(reporter, err, ResultError, err.Error())
	}
	reporter.Report(m.handle.Name, ResultSuccess, "")
	return tree, nil
}

// Close tears down the session explicitly, independent of any transaction
// (e.g. an operator-triggered disconnect).
func (m *Machine) Close() error {
	m.handle.CancelTimer()
	err := m.conn.Close()
	m.handle.SetConnState(device.Closed)
	return err
}
