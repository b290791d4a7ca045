// ABOUTME: Audio output package for callback-driven playback
// ABOUTME: Provides Host/Device/Stream interfaces with oto, headless and malgo hosts
// Package output opens audio devices and drives a fill callback.
//
// A Host enumerates devices; a Device reports its default configuration and
// builds streams; a Stream plays until closed. The backend owns the goroutine
// or thread the fill callback runs on.
//
// Available hosts:
//   - oto: system default output via ebitengine/oto (f32, i16, u8)
//   - headless: ticker-driven null device accepting every sample format
//   - malgo: miniaudio with device enumeration (build with -tags malgo)
//
// Example:
//
//	host, err := output.DefaultHost()
//	dev, err := host.DefaultOutputDevice()
//	cfg, err := dev.DefaultOutputConfig()
//	stream, err := output.BuildOutputStream(dev, cfg.StreamConfig,
//	    func(buf []float32) { /* fill */ }, func(err error) { log.Print(err) }, 0)
//	err = stream.Play()
//	defer stream.Close()
package output
