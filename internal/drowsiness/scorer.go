// Package drowsiness turns a stream of per-frame eye observations into a
// stable alertness classification for one vehicle session.
package drowsiness

import (
	"errors"
	"fmt"

	"tollgate-service/internal/domain/toll"
)

var ErrNotDecided = errors.New("drowsiness window has not decided yet")

type WindowStatus int

const (
	Filling WindowStatus = iota
	Decided
)

type Config struct {
	// WindowFrames is the fixed window capacity, typically the configured
	// analysis duration times the expected frame rate.
	WindowFrames int
	// DrowsyThreshold is the closed/total ratio at or above which the
	// driver is classified DROWSY.
	DrowsyThreshold float64
	// CountUnknownFrames controls whether frames with no usable detection
	// count toward the window total (treated as presumed-open). When false
	// they are excluded from the window entirely.
	CountUnknownFrames bool
}

func (c Config) Validate() error {
	if c.WindowFrames <= 0 {
		return fmt.Errorf("window frames must be positive, got %d", c.WindowFrames)
	}
	if c.DrowsyThreshold < 0 || c.DrowsyThreshold > 1 {
		return fmt.Errorf("drowsy threshold must be in [0,1], got %v", c.DrowsyThreshold)
	}
	return nil
}

// Scorer accumulates eye observations into a fixed-capacity window. It owns
// the window for exactly one session; Reset clears it for the next vehicle.
type Scorer struct {
	cfg    Config
	closed int
	total  int
}

func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Observe feeds one per-frame observation into the window. Observations
// arriving after the window has decided are ignored.
func (s *Scorer) Observe(obs toll.EyeObservation) WindowStatus {
	if s.total >= s.cfg.WindowFrames {
		return Decided
	}
	switch obs.State {
	case toll.EyeClosed:
		s.closed++
		s.total++
	case toll.EyeOpen:
		s.total++
	case toll.EyeUnknown:
		if s.cfg.CountUnknownFrames {
			s.total++
		}
	}
	if s.total >= s.cfg.WindowFrames {
		return Decided
	}
	return Filling
}

// Decided reports whether the window has filled.
func (s *Scorer) Decided() bool {
	return s.total >= s.cfg.WindowFrames
}

// Result computes the alertness verdict. Before the window fills it returns
// ErrNotDecided; callers that hit their step budget should use
// ForcedResult instead.
func (s *Scorer) Result() (toll.AlertnessResult, error) {
	if !s.Decided() {
		return toll.AlertnessResult{}, ErrNotDecided
	}
	return s.classify(), nil
}

// ForcedResult is the timeout path: the window never filled, so the session
// degrades to INDETERMINATE while still reporting the partial ratio.
func (s *Scorer) ForcedResult() toll.AlertnessResult {
	if s.Decided() {
		return s.classify()
	}
	res := toll.AlertnessResult{Classification: toll.Indeterminate}
	if s.total > 0 {
		res.Ratio = float64(s.closed) / float64(s.total)
	}
	return res
}

// Reset clears the window for a new session.
func (s *Scorer) Reset() {
	s.closed = 0
	s.total = 0
}

func (s *Scorer) classify() toll.AlertnessResult {
	ratio := float64(s.closed) / float64(s.total)
	cls := toll.Alert
	if ratio >= s.cfg.DrowsyThreshold {
		cls = toll.Drowsy
	}
	return toll.AlertnessResult{Ratio: ratio, Classification: cls}
}
