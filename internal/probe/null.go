package probe

import (
	"context"

	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/framesource"
)

// NullEyeProbe stands in when no eye inference endpoint is configured.
// Every frame reads as unknown; the drowsiness verdict then follows the
// configured unknown-frame policy.
type NullEyeProbe struct{}

func (NullEyeProbe) Probe(_ context.Context, _ framesource.Frame) (toll.EyeState, error) {
	return toll.EyeUnknown, nil
}
