package txn

import "fmt"

// ErrUnknownTransaction is returned for any operation naming a tid the
// coordinator has not allocated (or has already garbage-collected).
type ErrUnknownTransaction struct {
	TID uint64
}

func (e *ErrUnknownTransaction) Error() string {
	return fmt.Sprintf("txn: unknown transaction %d", e.TID)
}

// ErrDeviceBusy is returned from Attach when a device is already attached to
// a different active transaction (spec.md §3: "A device may participate in
// at most one active transaction at a time").
type ErrDeviceBusy struct {
	Device string
	Other  uint64
}

func (e *ErrDeviceBusy) Error() string {
	return fmt.Sprintf("txn: device %s is already attached to transaction %d", e.Device, e.Other)
}

// ErrWrongState is returned when an operation is attempted against a
// transaction that is not in the state it requires (e.g. Start on anything
// but INIT, Cancel on anything but RUNNING).
type ErrWrongState struct {
	TID      uint64
	Have     State
	Expected State
}

func (e *ErrWrongState) Error() string {
	return fmt.Sprintf("txn: transaction %d is %s, expected %s", e.TID, e.Have, e.Expected)
}
