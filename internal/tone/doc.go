// Package tone implements the fixed 440Hz sine oscillator.
package tone
