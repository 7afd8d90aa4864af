// Package probe defines the per-frame detection boundaries: the eye-state
// probe and the plate reader. Both are external capabilities; the workflow
// consumes their results as already-computed inputs and normalizes every
// failure into "no signal this frame".
package probe

import (
	"context"

	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/framesource"
)

// EyeStateProbe judges eye closure for one frame. Implementations return
// EyeUnknown when no face is found; transport errors are returned so the
// caller can degrade the frame, never the session.
type EyeStateProbe interface {
	Probe(ctx context.Context, frame framesource.Frame) (toll.EyeState, error)
}

// PlateReader returns zero or more raw text candidates with confidence
// scores for one frame.
type PlateReader interface {
	Read(ctx context.Context, frame framesource.Frame) ([]toll.PlateCandidate, error)
}
