package device

import (
	"context"
	"testing"

	"github.com/meridian-net/meridian/internal/diff"
	"github.com/meridian-net/meridian/internal/schema/flatset"
)

func TestNewHandleStartsClosed(t *testing.T) {
	h := NewHandle("r1", "10.0.0.1", "admin", ConnSSH)
	if h.ConnState() != Closed {
		t.Errorf("expected initial state CLOSED, got %s", h.ConnState())
	}
	if !h.Enabled() {
		t.Errorf("expected new handle enabled by default")
	}
}

func TestSetConnStateOpenRequiresSchemaAndSync(t *testing.T) {
	h := NewHandle("r1", "10.0.0.1", "admin", ConnSSH)
	if err := h.SetConnState(Open); err == nil {
		t.Fatal("expected error entering OPEN without schema set and synced tree")
	}

	set, err := flatset.Parser{}.Parse(context.Background(), "/devices/r1", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	h.SetSchemaSet(set)
	h.SetSyncedXML(diff.NewTree())

	if err := h.SetConnState(Open); err != nil {
		t.Fatalf("expected OPEN to succeed once schema and sync are set: %v", err)
	}
	if h.ConnState() != Open {
		t.Errorf("expected state OPEN, got %s", h.ConnState())
	}
}

func TestNextMsgIDMonotonic(t *testing.T) {
	h := NewHandle("r1", "10.0.0.1", "admin", ConnSSH)
	prev := uint64(0)
	for i := 0; i < 100; i++ {
		id := h.NextMsgID()
		if id <= prev {
			t.Fatalf("message id not monotonic: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestCapabilitiesNegotiateChunkedFraming(t *testing.T) {
	h := NewHandle("r1", "10.0.0.1", "admin", ConnSSH)
	h.SetCapabilities([]string{
		"urn:ietf:params:netconf:base:1.0",
		"urn:ietf:params:netconf:base:1.1",
	})
	if !h.Chunked() {
		t.Error("expected chunked framing once peer advertises base:1.1")
	}
	if !h.HasCapability("urn:ietf:params:netconf:base:1.1") {
		t.Error("expected HasCapability to report the stored capability")
	}
}

func TestCapabilitiesWithoutBase11StaySentinel(t *testing.T) {
	h := NewHandle("r1", "10.0.0.1", "admin", ConnSSH)
	h.SetCapabilities([]string{"urn:ietf:params:netconf:base:1.0"})
	if h.Chunked() {
		t.Error("expected sentinel framing when peer does not advertise base:1.1")
	}
}

func TestTimerCancelInvalidatesStaleTimer(t *testing.T) {
	h := NewHandle("r1", "10.0.0.1", "admin", ConnSSH)
	timer := h.SetTimer(0)
	if !h.IsCurrent(timer) {
		t.Fatal("freshly armed timer should be current")
	}
	h.CancelTimer()
	if h.IsCurrent(timer) {
		t.Error("cancelled timer should no longer be current")
	}
}

func TestRegistryCreateFindRemove(t *testing.T) {
	r := NewRegistry()
	h, err := r.Create("r1", "10.0.0.1", "admin", ConnSSH)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create("r1", "10.0.0.1", "admin", ConnSSH); err == nil {
		t.Error("expected duplicate Create to fail")
	}

	found, err := r.Find("r1")
	if err != nil || found != h {
		t.Fatalf("Find: got %v, %v", found, err)
	}

	r.Remove("r1")
	if _, err := r.Find("r1"); err == nil {
		t.Error("expected Find to fail after Remove")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"r3", "r1", "r2"} {
		if _, err := r.Create(n, "10.0.0.1", "admin", ConnSSH); err != nil {
			t.Fatalf("Create(%s): %v", n, err)
		}
	}
	names := r.Names()
	want := []string{"r1", "r2", "r3"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], n)
		}
	}
}
