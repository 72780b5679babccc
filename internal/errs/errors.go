// Package errs defines the controller's error taxonomy (spec.md §7):
// Transport, Protocol, Schema, Semantic, Timeout, and User. Each kind has a
// sentinel for errors.Is checks and a concrete type that carries the device
// and reason for logging and for surfacing in transaction results.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching across the taxonomy.
var (
	ErrTransport = errors.New("transport error")
	ErrProtocol  = errors.New("protocol error")
	ErrSchema    = errors.New("schema error")
	ErrSemantic  = errors.New("semantic error")
	ErrTimeout   = errors.New("timeout error")
	ErrUser      = errors.New("aborted by user")
)

// TransportError reports a framing violation, EOF mid-frame, or connect
// failure. The device session must close on this error.
type TransportError struct {
	Device string
	Reason string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %s", e.Device, e.Reason)
}

func (e *TransportError) Unwrap() error { return ErrTransport }

// ProtocolError reports an unexpected RPC in the current state, a
// message-id mismatch, or a missing required element.
type ProtocolError struct {
	Device string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol error: %s", e.Device, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// SchemaError reports an unparseable module or a binding failure when
// attaching pulled data to a device's schema set.
type SchemaError struct {
	Device string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema error: %s", e.Device, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// SemanticError reports a validate/commit rejection by the datastore. The
// device returns to OPEN unchanged; only the transaction participant fails.
type SemanticError struct {
	Device string
	Reason string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: rejected: %s", e.Device, e.Reason)
}

func (e *SemanticError) Unwrap() error { return ErrSemantic }

// TimeoutError reports a transient-state overrun.
type TimeoutError struct {
	Device string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout waiting for remote peer", e.Device)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// UserError reports an explicit client cancellation.
type UserError struct {
	Device string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s: aborted by user", e.Device)
}

func (e *UserError) Unwrap() error { return ErrUser }
