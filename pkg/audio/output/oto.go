// ABOUTME: Oto-based audio output host
// ABOUTME: Drives the fill callback from oto's player through an io.Reader
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

const (
	otoDefaultSampleRate = 48000
	otoDefaultChannels   = 2

	// How often player and context errors are checked while playing
	otoErrPollInterval = 50 * time.Millisecond
)

// oto allows a single context per process, shared by every otoHost
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoCtxCfg audio.SupportedConfig

	// Set when a context was created but not ready before the build timeout.
	// oto rejects a second NewContext, so later builds wait on this one.
	otoReady <-chan struct{}
)

// otoHost exposes the system default output through oto
type otoHost struct {
	device *otoDevice
}

func newOtoHost() (Host, error) {
	return &otoHost{device: &otoDevice{}}, nil
}

func (h *otoHost) Name() string { return "oto" }

func (h *otoHost) Devices() ([]Device, error) {
	return []Device{h.device}, nil
}

func (h *otoHost) DefaultOutputDevice() (Device, error) {
	return h.device, nil
}

// Close is a no-op: the oto context lives for the rest of the process
func (h *otoHost) Close() error { return nil }

type otoDevice struct{}

func (d *otoDevice) Name() string { return "default" }

func (d *otoDevice) DefaultOutputConfig() (audio.SupportedConfig, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	// Once a context exists its format is the only one that can play
	if otoCtx != nil {
		return otoCtxCfg, nil
	}
	return audio.SupportedConfig{
		StreamConfig: audio.StreamConfig{
			SampleRate: otoDefaultSampleRate,
			Channels:   otoDefaultChannels,
		},
		Format: audio.FormatF32,
	}, nil
}

func (d *otoDevice) SupportedFormats() []audio.SampleFormat {
	return []audio.SampleFormat{audio.FormatF32, audio.FormatI16, audio.FormatU8}
}

func otoFormat(f audio.SampleFormat) (oto.Format, error) {
	switch f {
	case audio.FormatF32:
		return oto.FormatFloat32LE, nil
	case audio.FormatI16:
		return oto.FormatSignedInt16LE, nil
	case audio.FormatU8:
		return oto.FormatUnsignedInt8, nil
	default:
		return 0, fmt.Errorf("%w: %s (oto supports f32, i16, u8)", audio.ErrUnsupportedFormat, f)
	}
}

// otoContext returns the process context, creating it on first use
func otoContext(cfg audio.SupportedConfig, timeout time.Duration) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoCtxCfg != cfg {
			return nil, fmt.Errorf("oto context already created with %s, cannot reopen with %s", otoCtxCfg, cfg)
		}
		if otoReady == nil {
			return otoCtx, nil
		}
	} else {
		format, err := otoFormat(cfg.Format)
		if err != nil {
			return nil, err
		}

		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       format,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return nil, fmt.Errorf("failed to create oto context: %w", err)
		}
		otoCtx = ctx
		otoCtxCfg = cfg
		otoReady = readyChan
	}

	if err := waitReady(otoReady, timeout); err != nil {
		return nil, fmt.Errorf("oto context not ready: %w", err)
	}
	otoReady = nil

	log.Printf("Audio output initialized: %s (oto)", cfg)

	return otoCtx, nil
}

// waitReady blocks until ready is closed, or until timeout when it is positive
func waitReady(ready <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-ready
		return nil
	}
	select {
	case <-ready:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w after %v", ErrBuildTimeout, timeout)
	}
}

func (d *otoDevice) BuildRawStream(cfg audio.SupportedConfig, fill RawFillFunc, onError ErrorFunc, timeout time.Duration) (Stream, error) {
	ctx, err := otoContext(cfg, timeout)
	if err != nil {
		return nil, err
	}

	reader := &otoReader{
		fill:     fill,
		frameLen: cfg.BytesPerFrame(),
	}

	return &otoStream{
		ctx:     ctx,
		player:  ctx.NewPlayer(reader),
		onError: onError,
		done:    make(chan struct{}),
	}, nil
}

// otoReader turns oto's pull reads into fill callbacks
type otoReader struct {
	fill     RawFillFunc
	frameLen int
}

// Read fills whole frames so channel alignment survives across reads.
// A buffer shorter than one frame is left untouched.
func (r *otoReader) Read(p []byte) (int, error) {
	n := len(p) - len(p)%r.frameLen
	if n == 0 {
		return 0, nil
	}
	r.fill(p[:n])
	return n, nil
}

type otoStream struct {
	ctx     *oto.Context
	player  *oto.Player
	onError ErrorFunc

	mu      sync.Mutex
	playing bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func (s *otoStream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.playing {
		return nil
	}

	s.player.Play()
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("oto context error: %w", err)
	}
	if err := s.player.Err(); err != nil {
		return fmt.Errorf("oto player error: %w", err)
	}

	s.playing = true
	s.wg.Add(1)
	go s.watchErrors()
	return nil
}

// watchErrors forwards each distinct player or context error once
func (s *otoStream) watchErrors() {
	defer s.wg.Done()

	ticker := time.NewTicker(otoErrPollInterval)
	defer ticker.Stop()

	var lastCtxErr, lastPlayerErr error
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.ctx.Err(); err != nil && err != lastCtxErr {
				lastCtxErr = err
				s.onError(fmt.Errorf("oto context: %w", err))
			}
			if err := s.player.Err(); err != nil && err != lastPlayerErr {
				lastPlayerErr = err
				s.onError(fmt.Errorf("oto player: %w", err))
			}
		}
	}
}

func (s *otoStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()

	if err := s.player.Close(); err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}
