// ABOUTME: Sample format dispatch for stream construction
// ABOUTME: Binds the bridge fill callback to the negotiated sample type
package app

import (
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/internal/bridge"
	"github.com/Resonate-Protocol/resonate-tone/pkg/audio"
	"github.com/Resonate-Protocol/resonate-tone/pkg/audio/output"
)

// buildStream builds a stream whose callback fills buffers of the
// negotiated sample type. Formats outside the known set are rejected.
func buildStream(device output.Device, cfg audio.SupportedConfig, slot *bridge.Slot, timeout time.Duration) (output.Stream, error) {
	switch cfg.Format {
	case audio.FormatI8:
		return build[int8](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatI16:
		return build[int16](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatI32:
		return build[int32](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatI64:
		return build[int64](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatU8:
		return build[uint8](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatU16:
		return build[uint16](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatU32:
		return build[uint32](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatU64:
		return build[uint64](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatF32:
		return build[float32](device, cfg.StreamConfig, slot, timeout)
	case audio.FormatF64:
		return build[float64](device, cfg.StreamConfig, slot, timeout)
	default:
		return nil, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, cfg.Format)
	}
}

func build[T audio.Sample](device output.Device, cfg audio.StreamConfig, slot *bridge.Slot, timeout time.Duration) (output.Stream, error) {
	return output.BuildOutputStream(device, cfg, bridge.FillCallback[T](slot), bridge.ErrorCallback(slot), timeout)
}
