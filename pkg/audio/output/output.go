// ABOUTME: Audio output host, device and stream interfaces
// ABOUTME: Common callback-driven contract for audio playback backends
package output

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
)

var (
	ErrNoDevice       = errors.New("no output device available")
	ErrBuildTimeout   = errors.New("timed out building output stream")
	ErrStreamClosed   = errors.New("stream closed")
	ErrUnknownHost    = errors.New("unknown audio host")
	ErrDeviceStopped  = errors.New("device stopped unexpectedly")
	ErrHostNotEnabled = errors.New("audio host not enabled in this build")
)

// RawFillFunc fills a little-endian interleaved byte buffer
type RawFillFunc func(out []byte)

// ErrorFunc receives stream errors reported while playing
type ErrorFunc func(err error)

// Host is an audio API that can enumerate output devices
type Host interface {
	Name() string
	Devices() ([]Device, error)
	DefaultOutputDevice() (Device, error)
	Close() error
}

// Device is a single output endpoint
type Device interface {
	Name() string

	// DefaultOutputConfig returns the configuration the device prefers
	DefaultOutputConfig() (audio.SupportedConfig, error)

	// SupportedFormats lists the sample formats BuildRawStream accepts
	SupportedFormats() []audio.SampleFormat

	// BuildRawStream creates a paused stream that calls fill from the
	// backend's own goroutine or thread. A zero timeout waits indefinitely.
	BuildRawStream(cfg audio.SupportedConfig, fill RawFillFunc, onError ErrorFunc, timeout time.Duration) (Stream, error)
}

// Stream is a built output stream
type Stream interface {
	// Play starts invoking the fill callback
	Play() error

	// Close stops the stream and releases backend resources
	Close() error
}

// Supports reports whether d accepts format
func Supports(d Device, format audio.SampleFormat) bool {
	return slices.Contains(d.SupportedFormats(), format)
}

// BuildOutputStream builds a stream whose callback works on typed samples.
// The sample format is taken from T and must be supported by the device.
func BuildOutputStream[T audio.Sample](d Device, cfg audio.StreamConfig, data func([]T), onError ErrorFunc, timeout time.Duration) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format := audio.FormatOf[T]()
	if !Supports(d, format) {
		return nil, fmt.Errorf("%w: %s on device %q", audio.ErrUnsupportedFormat, format, d.Name())
	}
	if onError == nil {
		onError = func(error) {}
	}

	r := newRenderer(data, cfg)
	full := audio.SupportedConfig{StreamConfig: cfg, Format: format}

	stream, err := d.BuildRawStream(full, r.render, onError, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s stream: %w", full, err)
	}
	return stream, nil
}

// renderer adapts a typed data callback to a raw byte callback
type renderer[T audio.Sample] struct {
	data    func([]T)
	encode  func([]byte, T)
	size    int
	scratch []T
}

// Scratch space for 100ms of audio is allocated up front so the callback
// only allocates if the backend hands over an unusually large buffer.
func newRenderer[T audio.Sample](data func([]T), cfg audio.StreamConfig) *renderer[T] {
	return &renderer[T]{
		data:    data,
		encode:  audio.Encoder[T](),
		size:    audio.FormatOf[T]().Size(),
		scratch: make([]T, (cfg.SampleRate/10)*cfg.Channels),
	}
}

func (r *renderer[T]) render(out []byte) {
	n := len(out) / r.size
	if n > len(r.scratch) {
		r.scratch = make([]T, n)
	}
	buf := r.scratch[:n]
	r.data(buf)
	for i, v := range buf {
		r.encode(out[i*r.size:], v)
	}
	clear(out[n*r.size:])
}

// DefaultHostName is the host used when none is requested
const DefaultHostName = "oto"

var (
	hostsMu sync.Mutex
	hosts   = map[string]func() (Host, error){
		"oto":      newOtoHost,
		"headless": func() (Host, error) { return NewHeadlessHost(HeadlessConfig{}), nil },
		"malgo":    newMalgoHost,
	}
)

// RegisterHost makes a host available to HostByName
func RegisterHost(name string, factory func() (Host, error)) {
	hostsMu.Lock()
	defer hostsMu.Unlock()
	hosts[name] = factory
}

// AvailableHosts returns the registered host names
func AvailableHosts() []string {
	hostsMu.Lock()
	defer hostsMu.Unlock()

	names := make([]string, 0, len(hosts))
	for name := range hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HostByName opens the named host
func HostByName(name string) (Host, error) {
	hostsMu.Lock()
	factory, ok := hosts[name]
	hostsMu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownHost, name, AvailableHosts())
	}
	return factory()
}

// DefaultHost opens the default host
func DefaultHost() (Host, error) {
	return HostByName(DefaultHostName)
}
