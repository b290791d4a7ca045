// ABOUTME: Audio output tests
// ABOUTME: Verifies host registry, typed stream building and the headless host
package output

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
)

func TestHostsImplementInterfaces(t *testing.T) {
	var _ Host = (*HeadlessHost)(nil)
	var _ Device = (*HeadlessDevice)(nil)
	var _ Stream = (*HeadlessStream)(nil)
	var _ Host = (*otoHost)(nil)
	var _ Device = (*otoDevice)(nil)
	var _ Stream = (*otoStream)(nil)
}

func TestAvailableHosts(t *testing.T) {
	names := AvailableHosts()
	for _, want := range []string{"headless", "malgo", "oto"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected host %q in %v", want, names)
		}
	}
}

func TestHostByNameUnknown(t *testing.T) {
	_, err := HostByName("coreaudio-direct")
	if !errors.Is(err, ErrUnknownHost) {
		t.Errorf("expected ErrUnknownHost, got %v", err)
	}
}

func TestHostByNameHeadless(t *testing.T) {
	host, err := HostByName("headless")
	if err != nil {
		t.Fatalf("HostByName: %v", err)
	}
	defer host.Close()

	if host.Name() != "headless" {
		t.Errorf("expected headless, got %s", host.Name())
	}
	dev, err := host.DefaultOutputDevice()
	if err != nil {
		t.Fatalf("DefaultOutputDevice: %v", err)
	}
	cfg, err := dev.DefaultOutputConfig()
	if err != nil {
		t.Fatalf("DefaultOutputConfig: %v", err)
	}
	if cfg.SampleRate != 48000 || cfg.Channels != 2 || cfg.Format != audio.FormatF32 {
		t.Errorf("unexpected default config %s", cfg)
	}
}

func TestRegisterHost(t *testing.T) {
	RegisterHost("test-null", func() (Host, error) {
		return NewHeadlessHost(HeadlessConfig{NoDevice: true}), nil
	})

	host, err := HostByName("test-null")
	if err != nil {
		t.Fatalf("HostByName: %v", err)
	}
	if _, err := host.DefaultOutputDevice(); !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
	devices, err := host.Devices()
	if err != nil || len(devices) != 0 {
		t.Errorf("expected no devices, got %v, %v", devices, err)
	}
}

func TestOtoDeviceFormats(t *testing.T) {
	dev := &otoDevice{}
	for _, f := range []audio.SampleFormat{audio.FormatF32, audio.FormatI16, audio.FormatU8} {
		if !Supports(dev, f) {
			t.Errorf("oto should support %s", f)
		}
		if _, err := otoFormat(f); err != nil {
			t.Errorf("otoFormat(%s): %v", f, err)
		}
	}
	if _, err := otoFormat(audio.FormatI64); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for i64, got %v", err)
	}
}

func TestBuildOutputStreamRejectsUnsupportedFormat(t *testing.T) {
	dev := &otoDevice{}
	cfg := audio.StreamConfig{SampleRate: 48000, Channels: 2}

	_, err := BuildOutputStream(dev, cfg, func([]float64) {}, nil, 0)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestBuildOutputStreamRejectsInvalidConfig(t *testing.T) {
	host := NewHeadlessHost(HeadlessConfig{})
	dev, _ := host.DefaultOutputDevice()

	_, err := BuildOutputStream(dev, audio.StreamConfig{SampleRate: 0, Channels: 2}, func([]int16) {}, nil, 0)
	if err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestRendererEncodesTypedSamples(t *testing.T) {
	cfg := audio.StreamConfig{SampleRate: 10, Channels: 1}
	r := newRenderer(func(buf []int16) {
		for i := range buf {
			buf[i] = int16(i + 1)
		}
	}, cfg)

	// 3 whole samples plus one stray byte
	out := []byte{9, 9, 9, 9, 9, 9, 9}
	r.render(out)

	for i := 0; i < 3; i++ {
		if got := int16(binary.LittleEndian.Uint16(out[i*2:])); got != int16(i+1) {
			t.Errorf("sample %d: expected %d, got %d", i, i+1, got)
		}
	}
	if out[6] != 0 {
		t.Errorf("expected trailing byte zeroed, got %d", out[6])
	}
}

func TestRendererGrowsScratch(t *testing.T) {
	var seen int
	r := newRenderer(func(buf []uint8) { seen = len(buf) }, audio.StreamConfig{SampleRate: 10, Channels: 1})
	r.render(make([]byte, 64))
	if seen != 64 {
		t.Errorf("expected 64 samples, got %d", seen)
	}
}

func TestOtoReaderWholeFrames(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{"exact frames", 32, 32},
		{"trailing partial frame", 30, 24},
		{"shorter than a frame", 5, 0},
		{"empty", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, got := 0, 0
			r := &otoReader{fill: func(out []byte) { calls++; got = len(out) }, frameLen: 8}

			n, err := r.Read(make([]byte, tt.size))
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if n != tt.want {
				t.Errorf("expected %d bytes read, got %d", tt.want, n)
			}
			if tt.want == 0 && calls != 0 {
				t.Errorf("expected no fill for a sub-frame read, got %d calls", calls)
			}
			if tt.want > 0 && got != tt.want {
				t.Errorf("expected fill of %d bytes, got %d", tt.want, got)
			}
		})
	}
}

func TestWaitReady(t *testing.T) {
	ready := make(chan struct{})
	if err := waitReady(ready, 10*time.Millisecond); !errors.Is(err, ErrBuildTimeout) {
		t.Errorf("expected ErrBuildTimeout, got %v", err)
	}

	// A later wait on the same context succeeds once it becomes ready
	close(ready)
	if err := waitReady(ready, 10*time.Millisecond); err != nil {
		t.Errorf("expected ready, got %v", err)
	}
	if err := waitReady(ready, 0); err != nil {
		t.Errorf("expected ready without timeout, got %v", err)
	}
}

func TestHeadlessStreamPlaysAndStops(t *testing.T) {
	var rendered atomic.Int64
	host := NewHeadlessHost(HeadlessConfig{
		Config: audio.SupportedConfig{
			StreamConfig: audio.StreamConfig{SampleRate: 8000, Channels: 2},
			Format:       audio.FormatI16,
		},
		Period:   time.Millisecond,
		OnRender: func(out []byte) { rendered.Add(int64(len(out))) },
	})
	dev, _ := host.DefaultOutputDevice()

	var mu sync.Mutex
	var frames int
	stream, err := BuildOutputStream(dev, audio.StreamConfig{SampleRate: 8000, Channels: 2}, func(buf []int16) {
		mu.Lock()
		frames += len(buf) / 2
		mu.Unlock()
	}, nil, time.Second)
	if err != nil {
		t.Fatalf("BuildOutputStream: %v", err)
	}

	if err := stream.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := stream.Play(); err != nil {
		t.Fatalf("second Play should be a no-op: %v", err)
	}

	hs := stream.(*HeadlessStream)
	deadline := time.Now().Add(2 * time.Second)
	for hs.Callbacks() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}

	calls := hs.Callbacks()
	if calls < 5 {
		t.Fatalf("expected at least 5 callbacks, got %d", calls)
	}

	// 1ms at 8kHz is 8 frames of 4 bytes
	mu.Lock()
	defer mu.Unlock()
	if frames != int(calls)*8 {
		t.Errorf("expected %d frames, got %d", calls*8, frames)
	}
	if rendered.Load() != calls*32 {
		t.Errorf("expected %d bytes rendered, got %d", calls*32, rendered.Load())
	}

	time.Sleep(5 * time.Millisecond)
	if hs.Callbacks() != calls {
		t.Error("callbacks continued after Close")
	}

	if err := stream.Play(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("expected ErrStreamClosed, got %v", err)
	}
}

func TestHeadlessPlayError(t *testing.T) {
	refused := errors.New("device busy")
	host := NewHeadlessHost(HeadlessConfig{PlayErr: refused})
	dev, _ := host.DefaultOutputDevice()

	stream, err := BuildOutputStream(dev, audio.StreamConfig{SampleRate: 48000, Channels: 2}, func([]float32) {}, nil, 0)
	if err != nil {
		t.Fatalf("BuildOutputStream: %v", err)
	}
	defer stream.Close()

	if err := stream.Play(); !errors.Is(err, refused) {
		t.Errorf("expected play error, got %v", err)
	}
}

func TestHeadlessReportError(t *testing.T) {
	host := NewHeadlessHost(HeadlessConfig{})
	dev, _ := host.DefaultOutputDevice()

	var got error
	stream, err := BuildOutputStream(dev, audio.StreamConfig{SampleRate: 48000, Channels: 1}, func([]uint32) {}, func(err error) {
		got = err
	}, 0)
	if err != nil {
		t.Fatalf("BuildOutputStream: %v", err)
	}
	defer stream.Close()

	underrun := errors.New("underrun")
	stream.(*HeadlessStream).ReportError(underrun)
	if !errors.Is(got, underrun) {
		t.Errorf("expected error callback to receive underrun, got %v", got)
	}
}

func TestHeadlessSupportsAllFormats(t *testing.T) {
	dev := NewHeadlessHost(HeadlessConfig{}).device
	for _, f := range audio.AllFormats {
		if !Supports(dev, f) {
			t.Errorf("headless should support %s", f)
		}
	}
}

func TestMalgoStubOrHost(t *testing.T) {
	host, err := HostByName("malgo")
	if err != nil {
		if !errors.Is(err, ErrHostNotEnabled) {
			t.Skipf("malgo unavailable: %v", err)
		}
		return
	}
	host.Close()
}
