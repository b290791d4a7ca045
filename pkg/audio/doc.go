// ABOUTME: Audio fundamentals package providing sample formats and conversions
// ABOUTME: Defines SampleFormat, StreamConfig and float-to-format converters
// Package audio provides the sample representations a tone stream can be rendered in.
//
// This package defines core types used throughout resonate-tone:
//   - SampleFormat: one of the ten supported sample representations
//   - StreamConfig / SupportedConfig: a negotiated rate, channel count and format
//
// It also converts canonical float samples in [-1.0, 1.0] to each format:
//   - signed integers use their full range (1.0 → max, -1.0 → min)
//   - unsigned integers are offset so that 0.0 lands on the midpoint
//   - floats pass through
//
// Example:
//
//	toI16 := audio.Converter[int16]()
//	s := toI16(0.5) // 16384
package audio
