package devfsm

import (
	"errors"
	"fmt"

	"github.com/meridian-net/meridian/internal/device"
)

// ErrTimeout is returned when a transient state's registered timeout
// elapses before the awaited frame arrives (spec.md §4.3).
var ErrTimeout = errors.New("devfsm: timeout waiting for remote peer")

// ErrNoMonitoringCapability is returned from CONNECTING when the peer's
// hello does not advertise the NETCONF monitoring capability, so "list
// schemas" cannot be issued (spec.md §4.3 edge rule).
var ErrNoMonitoringCapability = errors.New("devfsm: no method to get schemas")

// ErrNoBaseCapability is returned from CONNECTING when the peer's hello
// advertises neither base:1.0 nor base:1.1.
var ErrNoBaseCapability = errors.New("devfsm: peer advertises no NETCONF base capability")

// ErrCommitFailed is returned from DEVICE_SYNC when the local datastore
// commit fails, and from the push flow when the device answers the commit
// rpc with an rpc-error (spec.md §4.3: "on commit failure the
// candidate is discarded and the session closes with log_msg = 'Failed to
// commit'").
var ErrCommitFailed = errors.New("devfsm: failed to commit")

// RPCError wraps a device-returned rpc-error so callers can distinguish a
// protocol reject from a transport failure while still propagating the
// device's own diagnostic text.
type RPCError struct {
	Detail string
}

func (e *RPCError) Error() string { return fmt.Sprintf("devfsm: rpc-error: %s", e.Detail) }

// UnexpectedMessageError is returned when a reply does not match what the
// current state expects (spec.md §4.3: "close session with 'Unexpected msg
// X in state Y'").
type UnexpectedMessageError struct {
	State   device.ConnState
	Message string
}

func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("devfsm: unexpected msg %s in state %s", e.Message, e.State)
}

// MessageIDMismatchError is returned when a reply's echoed message-id does
// not equal the id most recently sent (spec.md §5: "the state machine
// verifies the echoed id equals the id most recently sent and rejects
// mismatches as protocol errors"; §8 testable property 2).
type MessageIDMismatchError struct {
	Want uint64
	Got  string
}

func (e *MessageIDMismatchError) Error() string {
	return fmt.Sprintf("devfsm: reply message-id %q does not match sent id %d", e.Got, e.Want)
}
