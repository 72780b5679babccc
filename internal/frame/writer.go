package frame

import (
	"fmt"
	"io"
)

// WriteFrame writes msg to w framed according to mode: sentinel mode
// appends the NETCONF 1.0 end-of-message marker, chunked mode wraps msg in
// a single chunk followed by the end-of-chunks marker (spec.md §4.1). A
// single chunk per message is a valid NETCONF 1.1 encoding; the controller
// never needs to split an outbound RPC across multiple chunks.
func WriteFrame(w io.Writer, mode Mode, msg []byte) error {
	if mode == Sentinel {
		if _, err := w.Write(msg); err != nil {
			return err
		}
		_, err := w.Write([]byte(SentinelBytes))
		return err
	}
	if _, err := fmt.Fprintf(w, "\n#%d\n", len(msg)); err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n##\n")
	return err
}
