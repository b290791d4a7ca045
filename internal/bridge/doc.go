// ABOUTME: Stream bridge between the main goroutine and audio callbacks
// ABOUTME: Documents the slot lifecycle and fill protocol
// Package bridge hands a live oscillator from the goroutine that negotiates the
// stream to the callbacks the audio backend invokes on its own threads.
//
// Lifecycle of a Slot:
//
//	Uninitialized --Arm--> Armed --MarkStreaming--> Streaming --Stop--> Stopped
//
// Arm must happen before the stream is played, which happens before any fill
// callback runs. Each fill holds the slot's mutex for exactly one buffer.
//
// Example:
//
//	osc, _ := tone.NewFromConfig(cfg.StreamConfig)
//	_ = bridge.Shared.Arm(osc)
//	stream, _ := output.BuildOutputStream(dev, cfg.StreamConfig,
//	    bridge.FillCallback[float32](bridge.Shared),
//	    bridge.ErrorCallback(bridge.Shared), 0)
//	_ = stream.Play()
//	_ = bridge.Shared.MarkStreaming()
package bridge
