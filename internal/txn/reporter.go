package txn

import "github.com/meridian-net/meridian/internal/devfsm"

// participantReporter adapts one (Coordinator, tid, device) triple to the
// devfsm.Reporter interface a Machine expects, so internal/devfsm never
// needs to know about transactions at all.
type participantReporter struct {
	coord  *Coordinator
	tid    uint64
	device string
}

// Reporter returns a devfsm.Reporter that forwards deviceName's terminal
// outcome within tid to c.Report. Pass the result to devfsm.Machine's
// Connect/Push/ConfigPull calls that drive this participant.
func (c *Coordinator) Reporter(tid uint64, deviceName string) devfsm.Reporter {
	return &participantReporter{coord: c, tid: tid, device: deviceName}
}

func (r *participantReporter) Report(device string, result devfsm.Result, reason string) {
	// device is always r.device: devfsm.Machine is scoped to one handle, so
	// this parameter is redundant here but kept for the Reporter interface
	// shape devfsm defines.
	_ = device
	r.coord.Report(r.tid, r.device, result, reason) //nolint:errcheck // best effort; Report only fails on protocol misuse by the caller
}
