package rpc

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/meridian-net/meridian/internal/config"
	"github.com/meridian-net/meridian/internal/datastore/memstore"
	"github.com/meridian-net/meridian/internal/device"
	"github.com/meridian-net/meridian/internal/devfsm"
	"github.com/meridian-net/meridian/internal/frame"
	"github.com/meridian-net/meridian/internal/notify/memorybus"
	"github.com/meridian-net/meridian/internal/schema"
	"github.com/meridian-net/meridian/internal/schema/flatset"
	"github.com/meridian-net/meridian/internal/transport"
	"github.com/meridian-net/meridian/internal/txn"
)

const helloWithMonitoring = `<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><capabilities>` +
	`<capability>urn:ietf:params:netconf:base:1.0</capability>` +
	`<capability>urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring?module=ietf-netconf-monitoring&amp;revision=2010-10-04</capability>` +
	`</capabilities></hello>`

const emptySchemaListReply = `<rpc-reply message-id="1" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">` +
	`<data><netconf-state xmlns="urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring"><schemas></schemas></netconf-state></data>` +
	`</rpc-reply>`

const emptyGetConfigReply = `<rpc-reply message-id="2" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><data></data></rpc-reply>`

// fakeChannel is an in-memory devfsm.FrameChannel: ReadFrame replays a
// scripted sequence of inbound frames; WriteFrame just records what was
// sent. Grounded on internal/devfsm's own machine_test.go fake.
type fakeChannel struct {
	in      [][]byte
	idx     int
	written [][]byte
	mode    frame.Mode
	done    chan struct{}
	closed  bool
}

func newFakeChannel(in ...string) *fakeChannel {
	f := &fakeChannel{done: make(chan struct{})}
	for _, s := range in {
		f.in = append(f.in, []byte(s))
	}
	return f
}

func (f *fakeChannel) WriteFrame(b []byte) error {
	f.written = append(f.written, append([]byte(nil), b...))
	return nil
}

func (f *fakeChannel) ReadFrame() ([]byte, error) {
	if f.idx >= len(f.in) {
		<-f.done
		return nil, io.EOF
	}
	b := f.in[f.idx]
	f.idx++
	return b, nil
}

func (f *fakeChannel) SetMode(m frame.Mode) { f.mode = m }

func (f *fakeChannel) Close() error {
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

// fakeDialer hands out one pre-scripted fakeChannel per device address, so
// a test can script what the device "says" before dialing it.
type fakeDialer struct {
	channels map[string]*fakeChannel
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{channels: make(map[string]*fakeChannel)}
}

func (d *fakeDialer) script(address string, frames ...string) {
	d.channels[address] = newFakeChannel(frames...)
}

func (d *fakeDialer) Dial(address string, _ transport.Credentials, _ time.Duration) (devfsm.FrameChannel, error) {
	ch, ok := d.channels[address]
	if !ok {
		ch = newFakeChannel()
		d.channels[address] = ch
	}
	return ch, nil
}

// noCache is a schema.Cache that never has anything cached; fine for tests
// whose schema catalog is always empty.
type noCache struct{}

func (noCache) Get(schema.ModuleRef) ([]byte, bool) { return nil, false }
func (noCache) Put(schema.ModuleRef, []byte) error  { return nil }

func newTestController(t *testing.T, devices ...config.DeviceConfig) (*Controller, *fakeDialer) {
	t.Helper()
	for i := range devices {
		if devices[i].ConnType == "" {
			devices[i].ConnType = "ssh"
		}
	}
	cfg := &config.Config{Devices: devices, MountRoot: "/devices"}

	dialer := newFakeDialer()
	ctrl, err := New(cfg, memstore.New(), flatset.Parser{}, noCache{}, memorybus.New(), dialer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ctrl, dialer
}

func connectedDevice(t *testing.T, ctrl *Controller, dialer *fakeDialer, address string) {
	t.Helper()
	dialer.script(address, helloWithMonitoring, emptySchemaListReply, emptyGetConfigReply)
	if err := ctrl.ConnectionChange(context.Background(), address, ConnOpen); err != nil {
		t.Fatalf("ConnectionChange(open, %s): %v", address, err)
	}
}

// waitTerminal polls tid until its transaction reaches a terminal state,
// failing the test if it does not within a short deadline.
func waitTerminal(t *testing.T, ctrl *Controller, tid uint64) *txn.Transaction {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := ctrl.Transaction(tid)
		if err != nil {
			t.Fatalf("Transaction(%d): %v", tid, err)
		}
		if got.State().Terminal() {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("transaction %d did not reach a terminal state in time", tid)
	return nil
}

func TestExpandDevicesGlob(t *testing.T) {
	ctrl, _ := newTestController(t,
		config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin"},
		config.DeviceConfig{Name: "r2", Address: "r2.example", Username: "admin"},
		config.DeviceConfig{Name: "s1", Address: "s1.example", Username: "admin"},
	)
	names, err := ctrl.expandDevices("r*")
	if err != nil {
		t.Fatalf("expandDevices: %v", err)
	}
	if len(names) != 2 || names[0] != "r1" || names[1] != "r2" {
		t.Fatalf("unexpected glob match: %v", names)
	}
}

func TestExpandDevicesNoMatch(t *testing.T) {
	ctrl, _ := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin"})
	if _, err := ctrl.expandDevices("nope*"); err == nil {
		t.Fatal("expected no-match pattern to error")
	}
}

func TestConnectionChangeOpenDrivesDeviceToOpen(t *testing.T) {
	ctrl, dialer := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin", Password: "x"})
	connectedDevice(t, ctrl, dialer, "r1.example")

	h, err := ctrl.Registry().Find("r1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if h.ConnState() != device.Open {
		t.Fatalf("expected device OPEN, got %s", h.ConnState())
	}
}

func TestConnectionChangeCloseIsIdempotent(t *testing.T) {
	ctrl, _ := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin", Password: "x"})
	if err := ctrl.ConnectionChange(context.Background(), "r1", ConnClose); err != nil {
		t.Fatalf("closing a never-opened device should be a no-op, got %v", err)
	}
}

func TestConfigPullSucceedsOnOpenDevice(t *testing.T) {
	ctrl, dialer := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin", Password: "x"})
	connectedDevice(t, ctrl, dialer, "r1.example")

	// connectedDevice already consumed message-ids 1 (schema list) and 2
	// (initial get-config); this second pull's get-config is message-id 3.
	const secondGetConfigReply = `<rpc-reply message-id="3" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><data></data></rpc-reply>`
	ch := dialer.channels["r1.example"]
	ch.in = append(ch.in, []byte(secondGetConfigReply))

	tid, err := ctrl.ConfigPull(context.Background(), "r1", false)
	if err != nil {
		t.Fatalf("ConfigPull: %v", err)
	}
	got := waitTerminal(t, ctrl, tid)
	if got.State().String() != "SUCCESS" {
		t.Fatalf("expected SUCCESS, got %s: %s", got.State(), got.Reason())
	}
}

func TestControllerCommitPushNoneSkipsDeviceIO(t *testing.T) {
	ctrl, dialer := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin", Password: "x"})
	connectedDevice(t, ctrl, dialer, "r1.example")

	before := len(dialer.channels["r1.example"].written)
	tid, err := ctrl.ControllerCommit(context.Background(), "r1", SourceRunning, ActionsChange, PushNone, "")
	if err != nil {
		t.Fatalf("ControllerCommit: %v", err)
	}
	got := waitTerminal(t, ctrl, tid)
	if got.State().String() != "SUCCESS" {
		t.Fatalf("expected SUCCESS, got %s", got.State())
	}
	if wrote := len(dialer.channels["r1.example"].written); wrote != before {
		t.Fatalf("push=NONE should not touch the device, wrote %d new frames", wrote-before)
	}
}

func TestControllerCommitPushCommitWithNoDiffReportsSuccessWithoutEdit(t *testing.T) {
	ctrl, dialer := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin", Password: "x"})
	connectedDevice(t, ctrl, dialer, "r1.example")

	before := len(dialer.channels["r1.example"].written)
	// The device's synced tree and the (empty) running datastore are both
	// empty trees, so the computed script is empty: scenario S4 in
	// miniature (spec.md §8 S4, "push with no diff").
	tid, err := ctrl.ControllerCommit(context.Background(), "r1", SourceRunning, ActionsChange, PushCommit, "")
	if err != nil {
		t.Fatalf("ControllerCommit: %v", err)
	}
	got := waitTerminal(t, ctrl, tid)
	if got.State().String() != "SUCCESS" {
		t.Fatalf("expected SUCCESS, got %s", got.State())
	}
	if wrote := len(dialer.channels["r1.example"].written); wrote != before {
		t.Fatalf("empty diff should not send edit-config, wrote %d new frames", wrote-before)
	}
}

func TestTransactionNewAndError(t *testing.T) {
	ctrl, _ := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin"})
	tid := ctrl.TransactionNew("manual")
	if tid == 0 {
		t.Fatal("expected non-zero tid")
	}
	// Cancelling before Start is illegal (transaction is still INIT);
	// assert the error surfaces rather than a panic or silent success.
	if err := ctrl.TransactionError(tid, "manual", "nevermind"); err == nil {
		t.Fatal("expected TransactionError on a non-RUNNING transaction to fail")
	}
}

func TestDatastoreDiffSyncedAgainstRunning(t *testing.T) {
	ctrl, dialer := newTestController(t, config.DeviceConfig{Name: "r1", Address: "r1.example", Username: "admin", Password: "x"})
	connectedDevice(t, ctrl, dialer, "r1.example")

	entries, err := ctrl.DatastoreDiff(context.Background(), DiffRequest{
		DevName:     "r1",
		ConfigType1: "synced",
		ConfigType2: "running",
	})
	if err != nil {
		t.Fatalf("DatastoreDiff: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no diff between two empty trees, got %v", entries)
	}
}
