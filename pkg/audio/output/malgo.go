//go:build malgo

// ABOUTME: Malgo-based audio output host
// ABOUTME: Uses miniaudio via malgo for device enumeration and callback playback
package output

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
	"github.com/gen2brain/malgo"
)

// malgoHost wraps one miniaudio context
type malgoHost struct {
	ctx *malgo.AllocatedContext
}

func newMalgoHost() (Host, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Printf("malgo: %s", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &malgoHost{ctx: ctx}, nil
}

func (h *malgoHost) Name() string { return "malgo" }

func (h *malgoHost) Devices() ([]Device, error) {
	infos, err := h.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for i := range infos {
		devices = append(devices, &malgoDevice{
			host:      h,
			info:      infos[i],
			name:      infos[i].Name(),
			isDefault: infos[i].IsDefault != 0,
		})
	}
	return devices, nil
}

func (h *malgoHost) DefaultOutputDevice() (Device, error) {
	devices, err := h.Devices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}
	for _, d := range devices {
		if d.(*malgoDevice).isDefault {
			return d, nil
		}
	}
	return devices[0], nil
}

func (h *malgoHost) Close() error {
	if h.ctx == nil {
		return nil
	}
	err := h.ctx.Uninit()
	h.ctx.Free()
	h.ctx = nil
	if err != nil {
		return fmt.Errorf("malgo context uninit: %w", err)
	}
	return nil
}

type malgoDevice struct {
	host      *malgoHost
	info      malgo.DeviceInfo
	name      string
	isDefault bool
}

func (d *malgoDevice) Name() string { return d.name }

func (d *malgoDevice) SupportedFormats() []audio.SampleFormat {
	return []audio.SampleFormat{audio.FormatF32, audio.FormatI32, audio.FormatI16, audio.FormatU8}
}

// DefaultOutputConfig opens the device with native settings to learn them.
// Native formats outside the supported set are reported as f32, which
// miniaudio converts from.
func (d *malgoDevice) DefaultOutputConfig() (audio.SupportedConfig, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.DeviceID = d.info.ID.Pointer()

	probe, err := malgo.InitDevice(d.host.ctx.Context, deviceConfig, malgo.DeviceCallbacks{})
	if err != nil {
		return audio.SupportedConfig{}, fmt.Errorf("failed to query device %q: %w", d.name, err)
	}
	defer probe.Uninit()

	cfg := audio.SupportedConfig{
		StreamConfig: audio.StreamConfig{
			SampleRate: int(probe.SampleRate()),
			Channels:   int(probe.PlaybackChannels()),
		},
		Format: fromMalgoFormat(probe.PlaybackFormat()),
	}
	if err := cfg.Validate(); err != nil {
		return audio.SupportedConfig{}, fmt.Errorf("device %q reported %w", d.name, err)
	}
	return cfg, nil
}

func fromMalgoFormat(f malgo.FormatType) audio.SampleFormat {
	switch f {
	case malgo.FormatU8:
		return audio.FormatU8
	case malgo.FormatS16:
		return audio.FormatI16
	case malgo.FormatS32:
		return audio.FormatI32
	default:
		return audio.FormatF32
	}
}

func toMalgoFormat(f audio.SampleFormat) (malgo.FormatType, error) {
	switch f {
	case audio.FormatU8:
		return malgo.FormatU8, nil
	case audio.FormatI16:
		return malgo.FormatS16, nil
	case audio.FormatI32:
		return malgo.FormatS32, nil
	case audio.FormatF32:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %s (malgo supports f32, i32, i16, u8)", audio.ErrUnsupportedFormat, f)
	}
}

func (d *malgoDevice) BuildRawStream(cfg audio.SupportedConfig, fill RawFillFunc, onError ErrorFunc, timeout time.Duration) (Stream, error) {
	format, err := toMalgoFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.Playback.DeviceID = d.info.ID.Pointer()
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	s := &malgoStream{}
	frameLen := cfg.BytesPerFrame()

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			fill(pOutputSample[:int(frameCount)*frameLen])
		},
		Stop: func() {
			if !s.stopping() {
				onError(fmt.Errorf("%w: %s", ErrDeviceStopped, d.name))
			}
		},
	}

	type result struct {
		device *malgo.Device
		err    error
	}
	done := make(chan result, 1)
	go func() {
		device, err := malgo.InitDevice(d.host.ctx.Context, deviceConfig, callbacks)
		done <- result{device, err}
	}()

	var res result
	if timeout > 0 {
		select {
		case res = <-done:
		case <-time.After(timeout):
			// Release the device if init completes after we gave up
			go func() {
				if late := <-done; late.err == nil {
					late.device.Uninit()
				}
			}()
			return nil, fmt.Errorf("%w: device %q not ready after %v", ErrBuildTimeout, d.name, timeout)
		}
	} else {
		res = <-done
	}
	if res.err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", res.err)
	}

	s.device = res.device
	log.Printf("Audio output initialized: %s on %q (malgo)", cfg, d.name)
	return s, nil
}

type malgoStream struct {
	device *malgo.Device

	mu      sync.Mutex
	closing bool
	closed  bool
}

func (s *malgoStream) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *malgoStream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

func (s *malgoStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.closed = true
	s.mu.Unlock()

	if err := s.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	s.device.Uninit()
	return nil
}
