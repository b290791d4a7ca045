// ABOUTME: Tone application orchestration
// ABOUTME: Negotiates the device, arms the bridge and runs the stream lifecycle
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/internal/bridge"
	"github.com/Resonate-Protocol/resonate-tone/internal/tone"
	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
	"github.com/Resonate-Protocol/resonate-tone/pkg/audio/output"
	"github.com/google/uuid"
)

const (
	DefaultDuration = 1000 * time.Millisecond
)

var (
	// ErrNegotiation wraps failures finding a device or its configuration
	ErrNegotiation = errors.New("device negotiation failed")
)

// Config holds tone run configuration
type Config struct {
	Host     string        // output host name, empty for the default
	Duration time.Duration // how long to stream, DefaultDuration if zero
	Format   string        // sample format override, empty to use the device default
	Timeout  time.Duration // stream build timeout, zero waits indefinitely

	// Slot receives the oscillator; bridge.Shared if nil
	Slot *bridge.Slot
}

// Status is a snapshot of a run for display
type Status struct {
	Session   string
	Host      string
	Device    string
	Config    audio.SupportedConfig
	State     bridge.State
	Frames    uint64
	Errors    uint64
	LastError string
	Elapsed   time.Duration
	Duration  time.Duration
}

// App runs one tone stream
type App struct {
	config  Config
	slot    *bridge.Slot
	session string

	mu         sync.Mutex
	hostName   string
	deviceName string
	streamCfg  audio.SupportedConfig
	started    time.Time
}

// New creates a tone application
func New(config Config) *App {
	if config.Duration <= 0 {
		config.Duration = DefaultDuration
	}
	if config.Host == "" {
		config.Host = output.DefaultHostName
	}
	slot := config.Slot
	if slot == nil {
		slot = bridge.Shared
	}

	return &App{
		config:  config,
		slot:    slot,
		session: uuid.New().String(),
	}
}

// Session returns the run's unique identifier
func (a *App) Session() string {
	return a.session
}

// Run negotiates a device and streams the tone until the duration elapses
// or ctx is cancelled. Any negotiation, build or play failure is returned.
func (a *App) Run(ctx context.Context) error {
	host, err := output.HostByName(a.config.Host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNegotiation, err)
	}
	defer func() {
		if err := host.Close(); err != nil {
			log.Printf("[%s] Error closing host: %v", a.session, err)
		}
	}()

	device, cfg, err := a.negotiate(host)
	if err != nil {
		return err
	}

	osc, err := tone.NewFromConfig(cfg.StreamConfig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNegotiation, err)
	}
	if err := a.slot.Arm(osc); err != nil {
		return fmt.Errorf("failed to arm stream bridge: %w", err)
	}

	stream, err := buildStream(device, cfg, a.slot, a.config.Timeout)
	if err != nil {
		return err
	}
	defer a.slot.Stop()
	defer func() {
		if err := stream.Close(); err != nil {
			log.Printf("[%s] Error closing stream: %v", a.session, err)
		}
	}()

	if err := stream.Play(); err != nil {
		return fmt.Errorf("failed to play stream: %w", err)
	}
	if err := a.slot.MarkStreaming(); err != nil {
		return err
	}

	a.mu.Lock()
	a.started = time.Now()
	a.mu.Unlock()

	log.Printf("[%s] Streaming %.0fHz tone for %v", a.session, tone.Frequency, a.config.Duration)

	timer := time.NewTimer(a.config.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		log.Printf("[%s] Stop requested: %v", a.session, context.Cause(ctx))
	}

	st := a.slot.Stats()
	log.Printf("[%s] Stream finished: %d frames, %d stream errors", a.session, st.Frames, st.Errors)
	return nil
}

// negotiate picks the default output device and its configuration
func (a *App) negotiate(host output.Host) (output.Device, audio.SupportedConfig, error) {
	device, err := host.DefaultOutputDevice()
	if err != nil {
		return nil, audio.SupportedConfig{}, fmt.Errorf("%w: %w", ErrNegotiation, err)
	}

	cfg, err := device.DefaultOutputConfig()
	if err != nil {
		return nil, audio.SupportedConfig{}, fmt.Errorf("%w: %w", ErrNegotiation, err)
	}

	if a.config.Format != "" {
		format, err := audio.ParseSampleFormat(a.config.Format)
		if err != nil {
			return nil, audio.SupportedConfig{}, err
		}
		if !output.Supports(device, format) {
			return nil, audio.SupportedConfig{}, fmt.Errorf("%w: %s not supported by %s/%s",
				audio.ErrUnsupportedFormat, format, host.Name(), device.Name())
		}
		cfg.Format = format
	}

	log.Printf("[%s] Output device: %s/%s, config: %s", a.session, host.Name(), device.Name(), cfg)

	a.mu.Lock()
	a.hostName = host.Name()
	a.deviceName = device.Name()
	a.streamCfg = cfg
	a.mu.Unlock()

	return device, cfg, nil
}

// Status returns a snapshot of the run
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.slot.Stats()
	status := Status{
		Session:   a.session,
		Host:      a.hostName,
		Device:    a.deviceName,
		Config:    a.streamCfg,
		State:     a.slot.State(),
		Frames:    st.Frames,
		Errors:    st.Errors,
		LastError: st.LastError,
		Duration:  a.config.Duration,
	}
	if !a.started.IsZero() {
		status.Elapsed = time.Since(a.started)
		if status.Elapsed > status.Duration {
			status.Elapsed = status.Duration
		}
	}
	return status
}
