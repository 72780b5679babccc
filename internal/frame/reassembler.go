package frame

import "strconv"

type chunkState int

const (
	csIdle chunkState = iota // waiting for the '\n' that starts the next chunk or end-marker
	csExpectHash
	csSizeOrEndHash // saw the leading '#'; next byte is either a size digit or a second '#'
	csReadingSize
	csExpectLFAfterSize
	csReadingData
	csExpectLFAfterEndHash
)

// Reassembler turns a byte stream fed in arbitrary-sized slices into
// complete NETCONF messages, in either framing mode. A single Reassembler
// serves one device connection for its whole lifetime (the mode is fixed
// once negotiated).
type Reassembler struct {
	mode Mode

	// sentinel mode
	carry []byte

	// chunked mode
	state     chunkState
	sizeDigits []byte
	remaining  int
	msgBuf     []byte
}

// NewReassembler returns a Reassembler for the given framing mode.
func NewReassembler(mode Mode) *Reassembler {
	return &Reassembler{mode: mode}
}

// Feed appends newly-read bytes and returns every complete frame they
// finished, in order. Frames never span a Feed call's worth of partial data
// incorrectly — a frame's bytes may be split across any number of Feed
// calls, including one byte at a time (spec.md §8, property 3).
func (r *Reassembler) Feed(data []byte) ([][]byte, error) {
	if r.mode == Sentinel {
		return r.feedSentinel(data)
	}
	return r.feedChunked(data)
}

func (r *Reassembler) feedSentinel(data []byte) ([][]byte, error) {
	r.carry = append(r.carry, data...)
	var out [][]byte
	for {
		idx := indexOf(r.carry, []byte(SentinelBytes))
		if idx < 0 {
			return out, nil
		}
		out = append(out, append([]byte(nil), r.carry[:idx]...))
		r.carry = append([]byte(nil), r.carry[idx+len(SentinelBytes):]...)
	}
}

func indexOf(haystack, needle []byte) int {
	n, m := len(haystack), len(needle)
	if m == 0 || n < m {
		return -1
	}
	for i := 0; i <= n-m; i++ {
		if string(haystack[i:i+m]) == string(needle) {
			return i
		}
	}
	return -1
}

func (r *Reassembler) feedChunked(data []byte) ([][]byte, error) {
	var out [][]byte
	for _, b := range data {
		switch r.state {
		case csIdle:
			if b != '\n' {
				return out, ErrFramingInvalid
			}
			r.state = csExpectHash

		case csExpectHash:
			if b != '#' {
				return out, ErrFramingInvalid
			}
			r.state = csSizeOrEndHash

		case csSizeOrEndHash:
			switch {
			case b == '#':
				r.state = csExpectLFAfterEndHash
			case b >= '0' && b <= '9':
				r.sizeDigits = append(r.sizeDigits[:0], b)
				r.state = csReadingSize
			default:
				return out, ErrFramingInvalid
			}

		case csReadingSize:
			if b == '\n' {
				size, err := strconv.Atoi(string(r.sizeDigits))
				if err != nil || size <= 0 {
					return out, ErrFramingInvalid
				}
				r.remaining = size
				r.state = csReadingData
				continue
			}
			if b < '0' || b > '9' || len(r.sizeDigits) >= 10 {
				return out, ErrFramingInvalid
			}
			r.sizeDigits = append(r.sizeDigits, b)

		case csReadingData:
			r.msgBuf = append(r.msgBuf, b)
			r.remaining--
			if r.remaining == 0 {
				r.state = csIdle
			}

		case csExpectLFAfterEndHash:
			if b != '\n' {
				return out, ErrFramingInvalid
			}
			out = append(out, r.msgBuf)
			r.msgBuf = nil
			r.state = csIdle

		default:
			return out, ErrFramingInvalid
		}
	}
	return out, nil
}

// FeedEOF signals the underlying stream closed. It returns ErrEOFMidFrame if
// a frame was only partially received.
func (r *Reassembler) FeedEOF() error {
	if r.mode == Sentinel {
		if len(r.carry) > 0 {
			return ErrEOFMidFrame
		}
		return nil
	}
	if r.state != csIdle || len(r.msgBuf) > 0 {
		return ErrEOFMidFrame
	}
	return nil
}
