package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestSentinelRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := []byte("<hello/>")
	if err := WriteFrame(&buf, Sentinel, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r := NewReassembler(Sentinel)
	frames, err := r.Feed(buf.Bytes())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 1 || string(frames[0]) != string(msg) {
		t.Fatalf("got %q, want %q", frames, msg)
	}
}

func TestChunkedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := []byte("<rpc-reply/>")
	if err := WriteFrame(&buf, Chunked, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r := NewReassembler(Chunked)
	frames, err := r.Feed(buf.Bytes())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 1 || string(frames[0]) != string(msg) {
		t.Fatalf("got %q, want %q", frames, msg)
	}
}

// TestChunkedArbitraryBoundaries is the reassembly property from spec.md
// §8: for any byte-slicing of a valid frame, the reassembler yields the
// same frame regardless of slice boundaries.
func TestChunkedArbitraryBoundaries(t *testing.T) {
	var buf bytes.Buffer
	msg := []byte("<rpc message-id=\"7\"><get-config/></rpc>")
	if err := WriteFrame(&buf, Chunked, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	raw := buf.Bytes()

	for sliceSize := 1; sliceSize <= len(raw); sliceSize++ {
		r := NewReassembler(Chunked)
		var got [][]byte
		for i := 0; i < len(raw); i += sliceSize {
			end := i + sliceSize
			if end > len(raw) {
				end = len(raw)
			}
			frames, err := r.Feed(raw[i:end])
			if err != nil {
				t.Fatalf("slice size %d: Feed: %v", sliceSize, err)
			}
			got = append(got, frames...)
		}
		if len(got) != 1 || string(got[0]) != string(msg) {
			t.Fatalf("slice size %d: got %q, want one frame %q", sliceSize, got, msg)
		}
	}
}

func TestSentinelArbitraryBoundaries(t *testing.T) {
	var buf bytes.Buffer
	msg := []byte("<hello xmlns=\"urn:ietf:params:xml:ns:netconf:base:1.0\"/>")
	if err := WriteFrame(&buf, Sentinel, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	raw := buf.Bytes()

	for sliceSize := 1; sliceSize <= len(raw); sliceSize++ {
		r := NewReassembler(Sentinel)
		var got [][]byte
		for i := 0; i < len(raw); i += sliceSize {
			end := i + sliceSize
			if end > len(raw) {
				end = len(raw)
			}
			frames, err := r.Feed(raw[i:end])
			if err != nil {
				t.Fatalf("slice size %d: Feed: %v", sliceSize, err)
			}
			got = append(got, frames...)
		}
		if len(got) != 1 || string(got[0]) != string(msg) {
			t.Fatalf("slice size %d: got %q, want one frame %q", sliceSize, got, msg)
		}
	}
}

func TestChunkedMultipleFramesInOneFeed(t *testing.T) {
	var buf bytes.Buffer
	first, second := []byte("<hello/>"), []byte("<rpc-reply/>")
	WriteFrame(&buf, Chunked, first)
	WriteFrame(&buf, Chunked, second)

	r := NewReassembler(Chunked)
	frames, err := r.Feed(buf.Bytes())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 2 || string(frames[0]) != string(first) || string(frames[1]) != string(second) {
		t.Fatalf("got %q", frames)
	}
}

func TestChunkedMalformedHeader(t *testing.T) {
	r := NewReassembler(Chunked)
	_, err := r.Feed([]byte("\n#abc\n"))
	if !errors.Is(err, ErrFramingInvalid) {
		t.Fatalf("expected ErrFramingInvalid, got %v", err)
	}
}

func TestFeedEOFMidFrame(t *testing.T) {
	r := NewReassembler(Chunked)
	if _, err := r.Feed([]byte("\n#12\npartial")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if err := r.FeedEOF(); !errors.Is(err, ErrEOFMidFrame) {
		t.Fatalf("expected ErrEOFMidFrame, got %v", err)
	}
}

func TestFeedEOFCleanBoundary(t *testing.T) {
	r := NewReassembler(Chunked)
	if _, err := r.Feed([]byte("\n#4\nabcd\n##\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if err := r.FeedEOF(); err != nil {
		t.Fatalf("expected no error at a clean frame boundary, got %v", err)
	}
}
