// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats and negotiated stream configurations
package audio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for sample format tags outside the known set
var ErrUnsupportedFormat = errors.New("unsupported sample format")

// SampleFormat identifies the in-memory representation of one sample
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatI8
	FormatI16
	FormatI32
	FormatI64
	FormatU8
	FormatU16
	FormatU32
	FormatU64
	FormatF32
	FormatF64
)

// AllFormats lists every supported sample format in dispatch order
var AllFormats = []SampleFormat{
	FormatI8, FormatI16, FormatI32, FormatI64,
	FormatU8, FormatU16, FormatU32, FormatU64,
	FormatF32, FormatF64,
}

var formatNames = map[SampleFormat]string{
	FormatI8:  "i8",
	FormatI16: "i16",
	FormatI32: "i32",
	FormatI64: "i64",
	FormatU8:  "u8",
	FormatU16: "u16",
	FormatU32: "u32",
	FormatU64: "u64",
	FormatF32: "f32",
	FormatF64: "f64",
}

func (f SampleFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(f))
}

// Valid reports whether f is one of the known formats
func (f SampleFormat) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// Size returns the number of bytes one sample occupies
func (f SampleFormat) Size() int {
	switch f {
	case FormatI8, FormatU8:
		return 1
	case FormatI16, FormatU16:
		return 2
	case FormatI32, FormatU32, FormatF32:
		return 4
	case FormatI64, FormatU64, FormatF64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether f is a floating-point format
func (f SampleFormat) IsFloat() bool {
	return f == FormatF32 || f == FormatF64
}

// ParseSampleFormat parses a format name such as "i16" or "F32"
func ParseSampleFormat(s string) (SampleFormat, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, f := range AllFormats {
		if formatNames[f] == want {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// StreamConfig describes the layout of an output stream
type StreamConfig struct {
	SampleRate int // Hz
	Channels   int // interleaved
}

// Validate checks that the configuration can drive an oscillator
func (c StreamConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	return nil
}

// SupportedConfig is a stream configuration together with its sample format
type SupportedConfig struct {
	StreamConfig
	Format SampleFormat
}

func (c SupportedConfig) String() string {
	return fmt.Sprintf("%dHz %dch %s", c.SampleRate, c.Channels, c.Format)
}

// BytesPerFrame returns the size of one interleaved frame in bytes
func (c SupportedConfig) BytesPerFrame() int {
	return c.Channels * c.Format.Size()
}
