// ABOUTME: Headless audio host that renders into a discarded buffer
// ABOUTME: Drives fill callbacks from a ticker goroutine, no sound device needed
package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
)

const defaultHeadlessPeriod = 10 * time.Millisecond

// HeadlessConfig configures a headless host
type HeadlessConfig struct {
	// Config is reported as the default output config (48kHz stereo f32 if zero)
	Config audio.SupportedConfig

	// Period is the simulated callback interval (10ms if zero)
	Period time.Duration

	// NoDevice makes the host report no output device
	NoDevice bool

	// PlayErr is returned by Play, simulating a device that refuses activation
	PlayErr error

	// OnRender observes every rendered buffer from the callback goroutine
	OnRender func(out []byte)
}

// HeadlessHost is an output host that needs no audio hardware
type HeadlessHost struct {
	config HeadlessConfig
	device *HeadlessDevice
}

// NewHeadlessHost creates a headless host
func NewHeadlessHost(config HeadlessConfig) *HeadlessHost {
	if config.Config.SampleRate == 0 {
		config.Config = audio.SupportedConfig{
			StreamConfig: audio.StreamConfig{SampleRate: 48000, Channels: 2},
			Format:       audio.FormatF32,
		}
	}
	if config.Period <= 0 {
		config.Period = defaultHeadlessPeriod
	}
	return &HeadlessHost{
		config: config,
		device: &HeadlessDevice{config: config},
	}
}

func (h *HeadlessHost) Name() string { return "headless" }

func (h *HeadlessHost) Devices() ([]Device, error) {
	if h.config.NoDevice {
		return nil, nil
	}
	return []Device{h.device}, nil
}

func (h *HeadlessHost) DefaultOutputDevice() (Device, error) {
	if h.config.NoDevice {
		return nil, ErrNoDevice
	}
	return h.device, nil
}

func (h *HeadlessHost) Close() error { return nil }

// HeadlessDevice accepts every sample format
type HeadlessDevice struct {
	config HeadlessConfig
}

func (d *HeadlessDevice) Name() string { return "null" }

func (d *HeadlessDevice) DefaultOutputConfig() (audio.SupportedConfig, error) {
	return d.config.Config, nil
}

func (d *HeadlessDevice) SupportedFormats() []audio.SampleFormat {
	return audio.AllFormats
}

func (d *HeadlessDevice) BuildRawStream(cfg audio.SupportedConfig, fill RawFillFunc, onError ErrorFunc, timeout time.Duration) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Format.Valid() {
		return nil, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, cfg.Format)
	}

	frames := int(int64(cfg.SampleRate) * int64(d.config.Period) / int64(time.Second))
	if frames < 1 {
		frames = 1
	}

	return &HeadlessStream{
		fill:     fill,
		onError:  onError,
		onRender: d.config.OnRender,
		playErr:  d.config.PlayErr,
		period:   d.config.Period,
		buf:      make([]byte, frames*cfg.BytesPerFrame()),
		done:     make(chan struct{}),
	}, nil
}

// HeadlessStream calls its fill callback once per period
type HeadlessStream struct {
	fill     RawFillFunc
	onError  ErrorFunc
	onRender func([]byte)
	playErr  error
	period   time.Duration
	buf      []byte

	callbacks atomic.Int64

	mu      sync.Mutex
	playing bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func (s *HeadlessStream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.playErr != nil {
		return s.playErr
	}
	if s.playing {
		return nil
	}

	s.playing = true
	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *HeadlessStream) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.fill(s.buf)
			if s.onRender != nil {
				s.onRender(s.buf)
			}
			s.callbacks.Add(1)
		}
	}
}

// Callbacks returns how many buffers have been rendered
func (s *HeadlessStream) Callbacks() int64 {
	return s.callbacks.Load()
}

// ReportError delivers err through the stream's error callback, as a real
// backend would for an underrun or disconnect
func (s *HeadlessStream) ReportError(err error) {
	s.onError(err)
}

func (s *HeadlessStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
