// ABOUTME: Process-wide slot bridging the oscillator into the audio callback
// ABOUTME: Tracks stream lifecycle and serializes every oscillator access
package bridge

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-tone/internal/tone"
	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
)

// State is the lifecycle state of a Slot
type State int

const (
	Uninitialized State = iota
	Armed
	Streaming
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Armed:
		return "armed"
	case Streaming:
		return "streaming"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrSlotEmpty is the panic value when a fill runs without an oscillator
	ErrSlotEmpty = errors.New("bridge: fill callback invoked on empty slot")

	ErrInvalidTransition = errors.New("bridge: invalid state transition")
)

// Shared is the process-wide slot used by the tone stream
var Shared = &Slot{}

// Slot holds the one live oscillator. Callbacks capture the *Slot, never the
// oscillator, so the oscillator can be swapped while the slot stays put.
type Slot struct {
	mu  sync.Mutex
	osc *tone.Oscillator

	// Written under mu, read lock-free by status displays
	state      atomic.Int32
	frames     atomic.Uint64
	streamErrs atomic.Uint64
	lastErr    atomic.Pointer[string]
}

// NewSlot creates an empty slot
func NewSlot() *Slot {
	return &Slot{}
}

// Arm places a freshly constructed oscillator in the slot
func (s *Slot) Arm(osc *tone.Oscillator) error {
	if osc == nil {
		return fmt.Errorf("%w: nil oscillator", ErrSlotEmpty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.load(); st != Uninitialized && st != Armed {
		return fmt.Errorf("%w: arm from %s", ErrInvalidTransition, st)
	}
	s.osc = osc
	s.state.Store(int32(Armed))
	s.frames.Store(0)
	s.streamErrs.Store(0)
	s.lastErr.Store(nil)
	return nil
}

// MarkStreaming records that the backend accepted the stream
func (s *Slot) MarkStreaming() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.load(); st != Armed {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, st)
	}
	s.state.Store(int32(Streaming))
	return nil
}

// Stop moves the slot to its terminal state. Stopping twice is a no-op.
// The oscillator is kept so late callbacks from a draining backend still fill.
func (s *Slot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Store(int32(Stopped))
}

// State returns the current lifecycle state without waiting on a fill
func (s *Slot) State() State {
	return s.load()
}

func (s *Slot) load() State {
	return State(s.state.Load())
}

// Phase returns the held oscillator's phase, or 0 when empty
func (s *Slot) Phase() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.osc == nil {
		return 0
	}
	return s.osc.Phase()
}

// Stats is a snapshot of slot counters
type Stats struct {
	Frames    uint64
	Errors    uint64
	LastError string
}

// Stats returns counters without taking the slot lock
func (s *Slot) Stats() Stats {
	st := Stats{
		Frames: s.frames.Load(),
		Errors: s.streamErrs.Load(),
	}
	if msg := s.lastErr.Load(); msg != nil {
		st.LastError = *msg
	}
	return st
}

// fill runs one locked fill against the held oscillator
func fill[T audio.Sample](s *Slot, buf []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.osc == nil {
		panic(ErrSlotEmpty)
	}
	n := tone.Fill(s.osc, buf)
	s.frames.Add(uint64(n))
}

// FillCallback returns the data callback handed to the audio backend.
// It panics with ErrSlotEmpty if invoked before Arm.
func FillCallback[T audio.Sample](s *Slot) func([]T) {
	return func(buf []T) {
		fill(s, buf)
	}
}

// ErrorCallback returns the stream error callback. Errors are logged and
// counted; the stream keeps running.
func ErrorCallback(s *Slot) func(error) {
	return func(err error) {
		if err == nil {
			return
		}
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.streamErrs.Add(1)
		log.Printf("Stream error: %v", err)
	}
}
