package txn

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meridian-net/meridian/internal/device"
	"github.com/meridian-net/meridian/internal/devfsm"
	"github.com/meridian-net/meridian/internal/logctx"
	"github.com/meridian-net/meridian/internal/notify"
)

// DefaultGracePeriod is how long a terminal transaction stays queryable
// before the coordinator garbage-collects it (spec.md §3: "retained until
// terminal notification is delivered, then garbage-collected after a
// bounded grace period for late queries").
const DefaultGracePeriod = 5 * time.Minute

// outcome is one participant's terminal report.
type outcome struct {
	result devfsm.Result
	reason string
}

// Transaction is the coordinator's bookkeeping for one controller-level
// operation spanning one or more devices (spec.md §3).
type Transaction struct {
	TID         uint64
	Origin      string
	Cancellable bool

	mu           sync.Mutex
	state        State
	participants map[string]struct{}
	results      map[string]outcome
	aborts       map[string]func(reason string)
	reason       string
	cancelled    bool
}

// State returns the transaction's current lifecycle state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reason returns the aggregate reason recorded once the transaction is
// terminal (empty for SUCCESS or while still running).
func (t *Transaction) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Participants returns the attached device names, sorted.
func (t *Transaction) Participants() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.participants))
	for name := range t.participants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Result returns the recorded outcome for device, if it has reported.
func (t *Transaction) Result(deviceName string) (devfsm.Result, string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.results[deviceName]
	if !ok {
		return 0, "", false
	}
	return o.result, o.reason, true
}

// Coordinator is the controller's single writer of transaction state
// (spec.md §4.4). One Coordinator serves the whole fleet.
type Coordinator struct {
	mu          sync.Mutex
	nextTID     uint64
	txns        map[uint64]*Transaction
	activeOn    map[string]uint64 // device name -> tid it is currently attached to
	registry    *device.Registry
	bus         notify.Bus
	gracePeriod time.Duration
}

// New returns a Coordinator that resolves participants against registry and
// publishes terminal notifications on bus.
func New(registry *device.Registry, bus notify.Bus) *Coordinator {
	return &Coordinator{
		txns:        make(map[uint64]*Transaction),
		activeOn:    make(map[string]uint64),
		registry:    registry,
		bus:         bus,
		gracePeriod: DefaultGracePeriod,
	}
}

// Begin allocates a fresh, never-reused tid and registers a transaction in
// state INIT (spec.md §4.4: "begin(origin) -> tid").
func (c *Coordinator) Begin(origin string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextTID++
	tid := c.nextTID
	c.txns[tid] = &Transaction{
		TID:          tid,
		Origin:       origin,
		Cancellable:  true,
		state:        StateInit,
		participants: make(map[string]struct{}),
		results:      make(map[string]outcome),
		aborts:       make(map[string]func(reason string)),
	}
	logctx.WithTransaction(tid).WithField("origin", origin).Info("transaction begin")
	return tid
}

// Get returns the transaction for tid, or ErrUnknownTransaction.
func (c *Coordinator) Get(tid uint64) (*Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	txn, ok := c.txns[tid]
	if !ok {
		return nil, &ErrUnknownTransaction{TID: tid}
	}
	return txn, nil
}

// Attach registers deviceName as a participant in tid (spec.md §4.4:
// "attach(tid, device_name) — fail if device is CLOSED or already attached
// to another transaction").
func (c *Coordinator) Attach(tid uint64, deviceName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn, ok := c.txns[tid]
	if !ok {
		return &ErrUnknownTransaction{TID: tid}
	}
	if existing, busy := c.activeOn[deviceName]; busy && existing != tid {
		return &ErrDeviceBusy{Device: deviceName, Other: existing}
	}

	h, err := c.registry.Find(deviceName)
	if err != nil {
		return fmt.Errorf("txn: attach %s: %w", deviceName, err)
	}
	if h.ConnState() == device.Closed {
		return fmt.Errorf("txn: attach %s: device is CLOSED", deviceName)
	}

	txn.mu.Lock()
	if txn.state != StateInit {
		txn.mu.Unlock()
		return &ErrWrongState{TID: tid, Have: txn.state, Expected: StateInit}
	}
	txn.participants[deviceName] = struct{}{}
	txn.mu.Unlock()

	c.activeOn[deviceName] = tid
	return nil
}

// SetAbort records the function the coordinator calls to abort deviceName's
// in-flight work within tid (spec.md §5: "any pending timer fires early,
// the current transient state closes its session"). The caller — whatever
// launches the per-device devfsm.Machine operation — registers this before
// starting the transaction and the goroutine driving that participant.
func (c *Coordinator) SetAbort(tid uint64, deviceName string, abort func(reason string)) error {
	txn, err := c.Get(tid)
	if err != nil {
		return err
	}
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.aborts[deviceName] = abort
	return nil
}

// Start transitions tid from INIT to RUNNING (spec.md §4.4: "start(tid) —
// transition to RUNNING; drive each participant's state machine"). Driving
// the participants is the caller's job (internal/rpc); Start only flips the
// transaction's own state so Report and Cancel become legal.
func (c *Coordinator) Start(tid uint64) error {
	txn, err := c.Get(tid)
	if err != nil {
		return err
	}
	txn.mu.Lock()
	if txn.state != StateInit {
		txn.mu.Unlock()
		return &ErrWrongState{TID: tid, Have: txn.state, Expected: StateInit}
	}
	txn.state = StateRunning
	logctx.WithTransaction(tid).WithField("participants", len(txn.participants)).Info("transaction running")
	vacuous := len(txn.participants) == 0
	txn.mu.Unlock()
	if vacuous {
		// Vacuously successful: nothing to wait on.
		c.finalize(txn)
	}
	return nil
}

// Cancel signals every in-flight participant of tid to abort (spec.md §4.4:
// "cancel(tid, reason) — only legal from RUNNING"; §5: "Cancellation is
// idempotent: repeated cancels on a terminal transaction are no-ops"). The
// transaction itself only reaches FAILED once every aborted participant has
// reported back through Report.
func (c *Coordinator) Cancel(tid uint64, reason string) error {
	txn, err := c.Get(tid)
	if err != nil {
		return err
	}
	txn.mu.Lock()
	if txn.state.Terminal() {
		txn.mu.Unlock()
		return nil
	}
	if txn.state != StateRunning {
		txn.mu.Unlock()
		return &ErrWrongState{TID: tid, Have: txn.state, Expected: StateRunning}
	}
	if txn.cancelled {
		txn.mu.Unlock()
		return nil
	}
	txn.cancelled = true
	aborts := make([]func(string), 0, len(txn.aborts))
	for name := range txn.participants {
		if _, reported := txn.results[name]; reported {
			continue
		}
		if fn, ok := txn.aborts[name]; ok {
			aborts = append(aborts, fn)
		}
	}
	txn.mu.Unlock()

	logctx.WithTransaction(tid).WithField("reason", reason).Info("transaction cancel requested")
	for _, fn := range aborts {
		fn(reason)
	}
	return nil
}

// Report is called by whatever drives a participant's devfsm.Machine
// (typically via a devfsm.Reporter adapter) with its terminal outcome
// (spec.md §4.4: "report(tid, device, outcome) ... when every participant
// has reported, coordinator computes aggregate and emits one
// notification").
func (c *Coordinator) Report(tid uint64, deviceName string, result devfsm.Result, reason string) error {
	txn, err := c.Get(tid)
	if err != nil {
		return err
	}

	txn.mu.Lock()
	if txn.state != StateRunning {
		txn.mu.Unlock()
		return &ErrWrongState{TID: tid, Have: txn.state, Expected: StateRunning}
	}
	if _, already := txn.results[deviceName]; already {
		txn.mu.Unlock()
		return fmt.Errorf("txn: device %s already reported for transaction %d", deviceName, tid)
	}
	if _, attached := txn.participants[deviceName]; !attached {
		txn.mu.Unlock()
		return fmt.Errorf("txn: device %s is not a participant of transaction %d", deviceName, tid)
	}
	txn.results[deviceName] = outcome{result: result, reason: reason}
	done := len(txn.results) == len(txn.participants)
	txn.mu.Unlock()

	logctx.WithTransaction(tid).WithField("device", deviceName).WithField("result", result).Info("participant reported")

	if done {
		c.finalize(txn)
	}
	return nil
}

// finalize computes the aggregate result, marks the transaction terminal,
// and publishes exactly one notification (spec.md §8, property 7). It
// acquires txn.mu itself; callers must not hold it.
func (c *Coordinator) finalize(txn *Transaction) {
	txn.mu.Lock()
	state, reason := aggregate(txn)
	txn.state = state
	txn.reason = reason
	txn.mu.Unlock()

	c.mu.Lock()
	for _, name := range txn.Participants() {
		if c.activeOn[name] == txn.TID {
			delete(c.activeOn, name)
		}
	}
	c.mu.Unlock()

	logctx.WithTransaction(txn.TID).WithField("result", state).Info("transaction terminal")

	if c.bus != nil {
		n := notify.Notification{TID: txn.TID, Result: state.String(), Reason: reason}
		if err := c.bus.Publish(context.Background(), n); err != nil {
			logctx.WithTransaction(txn.TID).WithField("error", err).Error("failed to publish transaction notification")
		}
	}

	tid := txn.TID
	grace := c.gracePeriod
	time.AfterFunc(grace, func() {
		c.mu.Lock()
		delete(c.txns, tid)
		c.mu.Unlock()
	})
}

// aggregate applies spec.md §4.4's precedence rule: ERROR if any
// participant is ERROR; else FAILED if any is FAILED; else SUCCESS. Reason
// is taken from the first non-success participant in sorted device-name
// order, so the choice is deterministic regardless of report arrival order
// (spec.md §5: "the coordinator's aggregation is commutative").
func aggregate(txn *Transaction) (State, string) {
	names := make([]string, 0, len(txn.results))
	for name := range txn.results {
		names = append(names, name)
	}
	sort.Strings(names)

	hasError, hasFailed := false, false
	reason := ""
	for _, name := range names {
		o := txn.results[name]
		if o.result == devfsm.ResultSuccess {
			continue
		}
		if reason == "" {
			reason = fmt.Sprintf("%s: %s", name, o.reason)
		}
		switch o.result {
		case devfsm.ResultError:
			hasError = true
		case devfsm.ResultFailed:
			hasFailed = true
		}
	}

	switch {
	case hasError:
		return StateError, reason
	case hasFailed:
		return StateFailed, reason
	default:
		return StateSuccess, ""
	}
}
