// Package frame implements the framed transport described in spec.md §4.1:
// reading and writing self-delimited NETCONF messages in either
// sentinel-terminated (NETCONF 1.0, "]]>]]>") or chunked (NETCONF 1.1,
// "\n#<len>\n...\n##\n") mode. The chunked reader is a small explicit state
// machine so a frame can be reassembled correctly regardless of how the
// underlying byte stream happens to be sliced across reads (spec.md §8,
// property 3) — the naive string-buffering approach used by simpler NETCONF
// clients (search the whole buffer for "\n##\n" on every read) cannot make
// that guarantee once a chunk header itself straddles a read boundary.
package frame

import "errors"

// Mode selects the wire framing in effect for a session, negotiated once via
// capability exchange during CONNECTING (spec.md §4.3) and fixed for the
// life of the connection.
type Mode int

const (
	Sentinel Mode = iota
	Chunked
)

// SentinelBytes is the NETCONF 1.0 end-of-message marker.
const SentinelBytes = "]]>]]>"

// ErrFramingInvalid is returned on a malformed chunked frame header
// (spec.md §4.1).
var ErrFramingInvalid = errors.New("frame: malformed chunk header")

// ErrEOFMidFrame is returned by FeedEOF when the underlying stream closed
// while a frame was only partially received (spec.md §4.1).
var ErrEOFMidFrame = errors.New("frame: stream closed mid-frame")
