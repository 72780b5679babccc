package devfsm

import "github.com/meridian-net/meridian/internal/frame"

// FrameChannel is the framed-transport surface a Machine drives (spec.md
// §1: "read frame", "write frame", "close"). *transport.Session satisfies
// this; tests use an in-memory fake so the state machine can be exercised
// without a real SSH connection.
type FrameChannel interface {
	ReadFrame() ([]byte, error)
	WriteFrame(msg []byte) error
	SetMode(mode frame.Mode)
	Close() error
}
