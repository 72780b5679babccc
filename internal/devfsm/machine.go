// Package devfsm drives one device's handle through the connection
// lifecycle and push-edit flow (spec.md §4.3): hello exchange, schema
// discovery, initial config pull, and subsequent candidate pushes. It owns
// the timeout/abort policy for every transient state; internal/device only
// owns the data the machine reads and mutates.
//
// Grounded on the reference NETCONF-over-SSH driver's Connect/RPC sequence
// (other_examples nano-southbound netconf driver) for the wire exchange,
// and on spec.md's own transition table for state sequencing, which the
// reference driver does not implement (it drives one flat session, not a
// CLOSED→...→OPEN→push state machine with per-state timeouts).
package devfsm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/meridian-net/meridian/internal/datastore"
	"github.com/meridian-net/meridian/internal/device"
	"github.com/meridian-net/meridian/internal/diff"
	"github.com/meridian-net/meridian/internal/frame"
	"github.com/meridian-net/meridian/internal/schema"
)

const defaultTimeout = 60 * time.Second

// Machine drives a single device.Handle through its connection and push
// lifecycle over conn. One Machine exists per open device session.
type Machine struct {
	handle  *device.Handle
	conn    FrameChannel
	parser  schema.Parser
	cache   schema.Cache
	store   datastore.Store
	timeout time.Duration
}

// New returns a Machine for handle, communicating over conn. timeout of
// zero uses the spec default of 60s (spec.md §4.3).
func New(handle *device.Handle, conn FrameChannel, parser schema.Parser, cache schema.Cache, store datastore.Store, timeout time.Duration) *Machine {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Machine{handle: handle, conn: conn, parser: parser, cache: cache, store: store, timeout: timeout}
}

func (m *Machine) mount() string {
	return "/devices/" + m.handle.Name
}

// Connect drives CLOSED → CONNECTING → SCHEMA_LIST → SCHEMA_ONE* →
// DEVICE_SYNC → OPEN. reporter receives the terminal outcome; pass
// NopReporter{} when driving a device outside a transaction.
func (m *Machine) Connect(ctx context.Context, reporter Reporter) error {
	if reporter == nil {
		reporter = NopReporter{}
	}

	if err := m.handle.SetConnState(device.Connecting); err != nil {
		return err
	}

	if err := m.conn.WriteFrame(buildHello()); err != nil {
		return m.abort(reporter, fmt.Errorf("devfsm: sending hello: %w", err), ResultError, "Transport error sending hello")
	}

	peerHello, err := m.readFrame(ctx)
	if err != nil {
		return m.abortTransport(reporter, err)
	}

	caps, err := parseHello(peerHello)
	if err != nil {
		return m.abort(reporter, err, ResultError, "Malformed hello")
	}
	if !hasAny(caps, capBase10, capBase11) {
		return m.abort(reporter, ErrNoBaseCapability, ResultError, ErrNoBaseCapability.Error())
	}
	m.handle.SetCapabilities(caps)
	if m.handle.Chunked() {
		m.conn.SetMode(frame.Chunked)
	}
	if !hasPrefix(caps, monNS) {
		return m.abort(reporter, ErrNoMonitoringCapability, ResultError, ErrNoMonitoringCapability.Error())
	}

	if err := m.schemaDiscovery(ctx); err != nil {
		return m.abortTransport(reporter, err)
	}

	if _, err := m.deviceSync(ctx, false); err != nil {
		return m.abortTransport(reporter, err)
	}

	if err := m.handle.SetConnState(device.Open); err != nil {
		return m.abort(reporter, err, ResultError, err.Error())
	}
	m.handle.SetLogMsg("")
	reporter.Report(m.handle.Name, ResultSuccess, "")
	return nil
}

// schemaDiscovery drives SCHEMA_LIST and the SCHEMA_ONE loop, leaving
// handle.SchemaSet() populated on success.
func (m *Machine) schemaDiscovery(ctx context.Context) error {
	raw, err := m.rpcRoundTrip(ctx, device.SchemaList, buildGetSchemaList())
	if err != nil {
		return err
	}
	if err := checkOK(raw); err != nil {
		return err
	}
	catalog, err := parseSchemaCatalogReply(raw)
	if err != nil {
		return err
	}
	m.handle.SetSchemaCatalog(catalog)

	sources := make(map[schema.ModuleRef][]byte, len(catalog))
	for _, entry := range catalog {
		if cached, ok := m.cache.Get(entry.ModuleRef); ok {
			sources[entry.ModuleRef] = cached
			continue
		}
		if !entry.LocallyAvailable {
			// Skipped, not an error (spec.md §4.3 edge rule): no
			// NETCONF-reachable location to fetch the module from.
			continue
		}
		raw, err := m.rpcRoundTrip(ctx, device.SchemaOne, buildGetSchema(entry.ModuleRef))
		if err != nil {
			return err
		}
		if err := checkOK(raw); err != nil {
			return err
		}
		body, err := parseGetSchemaReply(raw)
		if err != nil {
			return err
		}
		if err := m.cache.Put(entry.ModuleRef, []byte(body)); err != nil {
			return fmt.Errorf("devfsm: caching module %s: %w", entry.ModuleRef, err)
		}
		sources[entry.ModuleRef] = []byte(body)
	}

	set, err := m.parser.Parse(ctx, m.mount(), sources)
	if err != nil {
		return fmt.Errorf("devfsm: YANG parse error: %w", err)
	}
	m.handle.SetSchemaSet(set)
	return nil
}

// deviceSync drives DEVICE_SYNC: pull the device's running config, bind it
// to the schema set, and mirror it into the local datastore. If transient
// is true the pulled tree is only returned: it is neither written to the
// local datastore nor retained as handle.SyncedXML (spec.md §6:
// "config-pull{devname, transient?}").
func (m *Machine) deviceSync(ctx context.Context, transient bool) (*diff.Tree, error) {
	raw, err := m.rpcRoundTrip(ctx, device.DeviceSync, buildGetConfig("running"))
	if err != nil {
		return nil, err
	}
	if err := checkOK(raw); err != nil {
		return nil, err
	}
	innerXML, err := parseGetConfigReply(raw)
	if err != nil {
		return nil, err
	}

	tree, err := diff.FromXML([]byte(innerXML), m.handle.SchemaSet())
	if err != nil {
		return nil, fmt.Errorf("devfsm: schema-binding failure: %w", err)
	}

	if transient {
		return tree, nil
	}

	level := configLevel(m.handle.ConfigState())
	if err := m.store.WriteCandidate(ctx, m.mount(), tree, datastore.ModeReplace); err != nil {
		return nil, fmt.Errorf("devfsm: staging pulled config: %w", err)
	}
	if err := m.store.Commit(ctx, m.mount(), level); err != nil {
		m.store.DiscardCandidate(ctx, m.mount())
		return nil, ErrCommitFailed
	}

	m.handle.SetSyncedXML(tree)
	return tree, nil
}

func configLevel(s device.ConfigState) datastore.Level {
	switch s {
	case device.ConfigValidate:
		return datastore.LevelValidate
	case device.ConfigYANGOnly:
		return datastore.LevelYANGOnly
	default:
		return datastore.LevelNone
	}
}

// rpcRoundTrip sends one RPC and blocks for its reply, entering waitState
// for the duration (every transient state carries the machine's timeout).
// It verifies the reply's echoed message-id against the id just sent
// (spec.md §5) before handing the frame back to the caller.
func (m *Machine) rpcRoundTrip(ctx context.Context, waitState device.ConnState, body string) ([]byte, error) {
	id := m.handle.NextMsgID()
	if err := m.conn.WriteFrame(buildRPC(id, body)); err != nil {
		return nil, fmt.Errorf("devfsm: writing rpc: %w", err)
	}
	if err := m.handle.SetConnState(waitState); err != nil {
		return nil, err
	}
	raw, err := m.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkMessageID(raw, id); err != nil {
		return nil, err
	}
	return raw, nil
}

// checkMessageID rejects a reply whose echoed message-id does not equal
// want, the id most recently sent (spec.md §5, §8 property 2): replies are
// matched to requests in FIFO order by message-id, and a mismatch — a stale
// reply from an earlier request, or a device that echoes the wrong id — is
// a protocol error, not a reply to accept.
func checkMessageID(raw []byte, want uint64) error {
	reply, err := parseRPCReply(raw)
	if err != nil {
		return err
	}
	if reply.MessageID != strconv.FormatUint(want, 10) {
		return &MessageIDMismatchError{Want: want, Got: reply.MessageID}
	}
	return nil
}

// readFrame blocks for the next frame, subject to the handle's configured
// timeout and ctx cancellation — the only suspension points a Machine uses
// (spec.md §5).
func (m *Machine) readFrame(ctx context.Context) ([]byte, error) {
	timer := m.handle.SetTimer(m.timeout)

	type result struct {
		frame []byte
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := m.conn.ReadFrame()
		ch <- result{f, err}
	}()

	select {
	case r := <-ch:
		m.handle.CancelTimer()
		return r.frame, r.err
	case <-time.After(m.timeout):
		if !m.handle.IsCurrent(timer) {
			// Cancelled out from under us (e.g. a transaction abort).
			return nil, context.Canceled
		}
		m.handle.CancelTimer()
		m.conn.Close()
		return nil, ErrTimeout
	case <-ctx.Done():
		m.conn.Close()
		return nil, ctx.Err()
	}
}

// abort closes the session with reason, reports result to reporter, and
// returns err so the caller can propagate it.
func (m *Machine) abort(reporter Reporter, err error, result Result, reason string) error {
	m.handle.SetLogMsg(reason)
	m.handle.CancelTimer()
	m.conn.Close()
	m.handle.SetConnState(device.Closed)
	reporter.Report(m.handle.Name, result, reason)
	return err
}

// abortTransport classifies err (timeout, user cancel, commit failure,
// rpc-error, or other) into the right terminal result and reason before
// closing (spec.md §4.6).
func (m *Machine) abortTransport(reporter Reporter, err error) error {
	switch {
	case err == ErrTimeout:
		return m.abort(reporter, err, ResultError, "Timeout waiting for remote peer")
	case err == context.Canceled:
		return m.abort(reporter, err, ResultFailed, "Aborted by user")
	case err == ErrCommitFailed:
		return m.abort(reporter, err, ResultError, "Failed to commit")
	default:
		if rerr, ok := err.(*RPCError); ok {
			return m.abort(reporter, err, ResultFailed, rerr.Detail)
		}
		return m.abort(reporter, err, ResultError, err.Error())
	}
}

func hasAny(caps []string, targets ...string) bool {
	set := make(map[string]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	for _, t := range targets {
		if set[t] {
			return true
		}
	}
	return false
}

func hasPrefix(caps []string, prefix string) bool {
	for _, c := range caps {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func checkOK(raw []byte) error {
	reply, err := parseRPCReply(raw)
	if err != nil {
		return err
	}
	if !reply.ok() {
		return &RPCError{Detail: reply.errorString()}
	}
	return nil
}
