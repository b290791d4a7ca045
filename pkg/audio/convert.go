// ABOUTME: Sample conversion from canonical float to every sample format
// ABOUTME: Provides per-type converters and little-endian encoders
package audio

import (
	"encoding/binary"
	"math"
)

// Sample is the set of Go types a stream buffer can hold
type Sample interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Full-scale multipliers for signed fixed-point formats
const (
	scale8  = 1 << 7
	scale16 = 1 << 15
	scale32 = 1 << 31
	scale64 = 1 << 63
)

// FormatOf returns the sample format tag for T
func FormatOf[T Sample]() SampleFormat {
	var zero T
	switch any(zero).(type) {
	case int8:
		return FormatI8
	case int16:
		return FormatI16
	case int32:
		return FormatI32
	case int64:
		return FormatI64
	case uint8:
		return FormatU8
	case uint16:
		return FormatU16
	case uint32:
		return FormatU32
	case uint64:
		return FormatU64
	case float32:
		return FormatF32
	case float64:
		return FormatF64
	}
	return FormatUnknown
}

// Converter returns the function mapping a canonical [-1.0, 1.0] sample to T.
// Resolve it once outside the sample loop.
func Converter[T Sample]() func(float32) T {
	var fn any
	switch FormatOf[T]() {
	case FormatI8:
		fn = ToInt8
	case FormatI16:
		fn = ToInt16
	case FormatI32:
		fn = ToInt32
	case FormatI64:
		fn = ToInt64
	case FormatU8:
		fn = ToUint8
	case FormatU16:
		fn = ToUint16
	case FormatU32:
		fn = ToUint32
	case FormatU64:
		fn = ToUint64
	case FormatF32:
		fn = func(v float32) float32 { return v }
	case FormatF64:
		fn = func(v float32) float64 { return float64(v) }
	}
	return fn.(func(float32) T)
}

// ToInt8 scales v to the full int8 range
func ToInt8(v float32) int8 {
	return int8(clampScale(float64(v), scale8, math.MinInt8, math.MaxInt8))
}

// ToInt16 scales v to the full int16 range
func ToInt16(v float32) int16 {
	return int16(clampScale(float64(v), scale16, math.MinInt16, math.MaxInt16))
}

// ToInt32 scales v to the full int32 range
func ToInt32(v float32) int32 {
	return int32(clampScale(float64(v), scale32, math.MinInt32, math.MaxInt32))
}

// ToInt64 scales v to the full int64 range.
// float64 cannot represent MaxInt64, so the top is clamped before conversion.
func ToInt64(v float32) int64 {
	f := float64(v) * scale64
	switch {
	case f >= scale64:
		return math.MaxInt64
	case f <= -scale64:
		return math.MinInt64
	case math.IsNaN(f):
		return 0
	}
	return int64(f)
}

// ToUint8 maps v to uint8 with 0.0 at the 128 midpoint
func ToUint8(v float32) uint8 {
	return uint8(ToInt8(v)) ^ 0x80
}

// ToUint16 maps v to uint16 with 0.0 at the 32768 midpoint
func ToUint16(v float32) uint16 {
	return uint16(ToInt16(v)) ^ 0x8000
}

// ToUint32 maps v to uint32 with 0.0 at the 2^31 midpoint
func ToUint32(v float32) uint32 {
	return uint32(ToInt32(v)) ^ 0x80000000
}

// ToUint64 maps v to uint64 with 0.0 at the 2^63 midpoint
func ToUint64(v float32) uint64 {
	return uint64(ToInt64(v)) ^ (1 << 63)
}

// clampScale multiplies v by scale and clamps the result to [lo, hi]
func clampScale(v, scale, lo, hi float64) float64 {
	f := v * scale
	if math.IsNaN(f) {
		return 0
	}
	if f > hi {
		return hi
	}
	if f < lo {
		return lo
	}
	return f
}

// Encoder returns a function writing one T into dst as little-endian bytes.
// dst must hold at least FormatOf[T]().Size() bytes.
func Encoder[T Sample]() func(dst []byte, v T) {
	var fn any
	switch FormatOf[T]() {
	case FormatI8:
		fn = func(dst []byte, v int8) { dst[0] = byte(v) }
	case FormatU8:
		fn = func(dst []byte, v uint8) { dst[0] = v }
	case FormatI16:
		fn = func(dst []byte, v int16) { binary.LittleEndian.PutUint16(dst, uint16(v)) }
	case FormatU16:
		fn = func(dst []byte, v uint16) { binary.LittleEndian.PutUint16(dst, v) }
	case FormatI32:
		fn = func(dst []byte, v int32) { binary.LittleEndian.PutUint32(dst, uint32(v)) }
	case FormatU32:
		fn = func(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }
	case FormatI64:
		fn = func(dst []byte, v int64) { binary.LittleEndian.PutUint64(dst, uint64(v)) }
	case FormatU64:
		fn = func(dst []byte, v uint64) { binary.LittleEndian.PutUint64(dst, v) }
	case FormatF32:
		fn = func(dst []byte, v float32) { binary.LittleEndian.PutUint32(dst, math.Float32bits(v)) }
	case FormatF64:
		fn = func(dst []byte, v float64) { binary.LittleEndian.PutUint64(dst, math.Float64bits(v)) }
	}
	return fn.(func([]byte, T))
}
