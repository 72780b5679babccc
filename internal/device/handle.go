// Package device holds the per-device state container (spec.md §3, §4.3)
// and the registry of all devices known to the controller. The device state
// machine that drives a Handle through its connection lifecycle lives in
// internal/devfsm; this package only owns the data and the bookkeeping
// primitives (message ids, timers) the machine operates on.
package device

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meridian-net/meridian/internal/diff"
	"github.com/meridian-net/meridian/internal/schema"
)

// ConnType names the transport used to reach a device.
type ConnType string

const (
	ConnSSH ConnType = "ssh"
)

// Timer is a pending per-device timeout. SetTimer hands out a fresh *Timer
// (bumping Generation when it supersedes an armed one) and CancelTimer
// clears the armed one, so a timer callback that fires late can detect via
// IsCurrent that it is stale and no-op, without needing to synchronously
// stop a time.Timer from a different goroutine.
type Timer struct {
	Deadline   time.Time
	Generation uint64
}

// Handle is the per-device state container (spec.md §3: "Device handle").
// Every field the device state machine reads or mutates during a connection
// cycle lives here; internal/devfsm never keeps its own copy of this state.
type Handle struct {
	Name string

	// Transport parameters.
	Address  string
	Username string
	ConnType ConnType

	mu sync.RWMutex

	enabled bool

	connState   ConnState
	configState ConfigState

	capabilities map[string]bool
	schemaCat    []schema.CatalogEntry
	schemaSet    schema.Set

	syncedXML *diff.Tree

	useChunked bool

	msgID uint64 // atomic; starts at 0 so the first NextMsgID() call returns 1

	timer *Timer

	logMsg string
}

// NewHandle creates a device handle in state CLOSED (spec.md §4.3: "Initial
// state on handle creation: CLOSED").
func NewHandle(name, address, username string, connType ConnType) *Handle {
	return &Handle{
		Name:         name,
		Address:      address,
		Username:     username,
		ConnType:     connType,
		enabled:      true,
		connState:    Closed,
		configState:  ConfigClosed,
		capabilities: make(map[string]bool),
	}
}

func (h *Handle) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

func (h *Handle) SetEnabled(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = v
}

func (h *Handle) ConnState() ConnState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connState
}

// SetConnState transitions the handle to s. Callers (internal/devfsm) are
// responsible for checking that the transition is legal; Handle enforces
// only the invariant that OPEN requires a non-nil schema set and synced
// tree (spec.md §3).
func (h *Handle) SetConnState(s ConnState) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s == Open && (h.schemaSet == nil || h.syncedXML == nil) {
		return fmt.Errorf("device %s: cannot enter OPEN without schema set and synced tree", h.Name)
	}
	h.connState = s
	return nil
}

func (h *Handle) ConfigState() ConfigState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.configState
}

func (h *Handle) SetConfigState(s ConfigState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.configState = s
}

// SetCapabilities stores the peer's advertised capability URIs.
func (h *Handle) SetCapabilities(caps []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.capabilities = make(map[string]bool, len(caps))
	for _, c := range caps {
		h.capabilities[c] = true
	}
	for _, c := range caps {
		if hasSuffix(c, "base:1.1") {
			h.useChunked = true
		}
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func (h *Handle) HasCapability(uri string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.capabilities[uri]
}

// Chunked reports whether NETCONF 1.1 chunked framing was negotiated
// (spec.md §4.3: both ends must advertise base:1.1; this records the local
// side's decision once the peer's hello has been processed).
func (h *Handle) Chunked() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.useChunked
}

func (h *Handle) SetSchemaCatalog(cat []schema.CatalogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.schemaCat = cat
}

func (h *Handle) SchemaCatalog() []schema.CatalogEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.schemaCat
}

func (h *Handle) SetSchemaSet(s schema.Set) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.schemaSet = s
}

func (h *Handle) SchemaSet() schema.Set {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.schemaSet
}

func (h *Handle) SetSyncedXML(t *diff.Tree) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.syncedXML = t
}

func (h *Handle) SyncedXML() *diff.Tree {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.syncedXML
}

// NextMsgID returns the next monotonic NETCONF message-id for this device,
// starting at 1 (spec.md §3: "msg_id (monotonic counter, starts at 1)").
func (h *Handle) NextMsgID() uint64 {
	return atomic.AddUint64(&h.msgID, 1)
}

// SetTimer arms a pending timeout, invalidating any previously armed one.
func (h *Handle) SetTimer(d time.Duration) *Timer {
	h.mu.Lock()
	defer h.mu.Unlock()
	gen := uint64(1)
	if h.timer != nil {
		gen = h.timer.Generation + 1
	}
	h.timer = &Timer{Deadline: time.Now().Add(d), Generation: gen}
	return h.timer
}

// CancelTimer invalidates the currently armed timer, if any, by clearing
// it; a late-firing callback holding the old *Timer value can detect
// staleness via IsCurrent.
func (h *Handle) CancelTimer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timer = nil
}

// IsCurrent reports whether t is still the armed timer (i.e. has not been
// cancelled or superseded since it was handed out).
func (h *Handle) IsCurrent(t *Timer) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.timer == t
}

func (h *Handle) SetLogMsg(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logMsg = msg
}

func (h *Handle) LogMsg() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.logMsg
}
