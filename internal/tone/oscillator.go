// ABOUTME: Sine oscillator driven by a per-sample phase counter
// ABOUTME: Generates 440Hz samples and fills interleaved output buffers
package tone

import (
	"errors"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
)

// Frequency is the fixed tone pitch (A4)
const Frequency = 440.0

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidChannels   = errors.New("channel count must be at least 1")
)

// Oscillator produces successive sine samples from an internal phase counter.
// The phase counts elapsed samples and wraps at the sample rate.
// An Oscillator is not safe for concurrent use; see bridge.Slot.
type Oscillator struct {
	sampleRate float64
	channels   int
	phase      float64
}

// NewOscillator creates an oscillator at phase 0
func NewOscillator(sampleRate float64, channels int) (*Oscillator, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}
	return &Oscillator{
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// NewFromConfig creates an oscillator for a negotiated stream configuration
func NewFromConfig(cfg audio.StreamConfig) (*Oscillator, error) {
	return NewOscillator(float64(cfg.SampleRate), cfg.Channels)
}

// Advance steps the phase by one sample and returns the new sample value
func (o *Oscillator) Advance() float32 {
	o.phase = math.Mod(o.phase+1, o.sampleRate)
	return float32(math.Sin(o.phase * Frequency * 2 * math.Pi / o.sampleRate))
}

// Phase returns the current phase in samples, in [0, sample rate)
func (o *Oscillator) Phase() float64 { return o.phase }

func (o *Oscillator) SampleRate() float64 { return o.sampleRate }
func (o *Oscillator) Channels() int       { return o.channels }

// Fill writes one frame per Advance into buf, duplicating the converted
// sample across every channel of the frame. A trailing partial frame is
// filled as far as buf reaches. Returns the number of frames advanced.
func Fill[T audio.Sample](o *Oscillator, buf []T) int {
	convert := audio.Converter[T]()
	frames := 0
	for start := 0; start < len(buf); start += o.channels {
		end := start + o.channels
		if end > len(buf) {
			end = len(buf)
		}
		v := convert(o.Advance())
		frame := buf[start:end]
		for i := range frame {
			frame[i] = v
		}
		frames++
	}
	return frames
}
