// Package session owns per-session mutable state: the rolling temporal
// window, accumulated chunk results, the streaming frame buffer, and
// finalized reports retrievable by id until expiry.
package session

import (
	"errors"
	"fmt"
)

// Mode distinguishes how chunks arrive and how results are delivered.
type Mode string

const (
	// ModeBatch analyzes a complete waveform and returns one report.
	ModeBatch Mode = "batch"
	// ModeStreaming scores chunks incrementally as audio frames arrive.
	ModeStreaming Mode = "streaming"
)

// State represents the lifecycle state of a session.
type State int

const (
	// StateActive - session accepts chunk submissions.
	StateActive State = iota
	// StateFinalized - report built, session is read-only until expiry.
	StateFinalized
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateFinalized:
		return "FINALIZED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors surfaced by the session manager.
var (
	// ErrSessionNotFound means the session id is unknown or has expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionFinalized means a chunk was submitted after finalization.
	ErrSessionFinalized = errors.New("session already finalized")
	// ErrSessionActive means a report was requested before finalization.
	ErrSessionActive = errors.New("session not yet finalized")
	// ErrStreamBufferFull means a streaming frame would exceed the buffer cap.
	ErrStreamBufferFull = errors.New("stream buffer full")
)
