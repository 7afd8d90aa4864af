// Package framesource supplies timestamped frames to the workflow, either
// from a live camera or from a directory of still images for offline
// evaluation.
package framesource

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted signals that the source has no further frames (a batch
// directory fully consumed, or a closed camera).
var ErrExhausted = errors.New("frame source exhausted")

// Frame carries one captured image. Data holds the encoded image bytes;
// Path is set for file-backed frames and empty for live capture.
type Frame struct {
	Index     int
	Timestamp time.Time
	Path      string
	Data      []byte
}

// Source supplies frames on demand. Next blocks only for the next frame;
// implementations must honor ctx cancellation between frames. Close releases
// the underlying capture resource and is safe on every exit path.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}
