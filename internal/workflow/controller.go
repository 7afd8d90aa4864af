// Package workflow sequences one vehicle's passage through the gate:
// drowsiness check, plate consensus, then the fused decision. The controller
// owns all step budgets and is the only component aware of time.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tollgate-service/internal/authstore"
	"tollgate-service/internal/consensus"
	"tollgate-service/internal/decision"
	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/drowsiness"
	"tollgate-service/internal/framesource"
	"tollgate-service/internal/probe"
)

// ErrAborted reports that a session ended without a decision, either through
// cancellation or frame-source failure.
var ErrAborted = errors.New("session aborted")

type State string

const (
	StateInit     State = "INIT"
	StateFace     State = "STEP1_FACE"
	StatePlate    State = "STEP2_PLATE"
	StateDecision State = "STEP3_DECISION"
	StateComplete State = "COMPLETE"
	StateAborted  State = "ABORTED"
)

// Budgets are per-step frame allowances. Steps are bounded by frames rather
// than wall-clock sleeps so sessions are deterministic under test.
type Budgets struct {
	FaceFrames  int
	PlateFrames int
}

func (b Budgets) Validate() error {
	if b.FaceFrames <= 0 {
		return fmt.Errorf("face step frame budget must be positive, got %d", b.FaceFrames)
	}
	if b.PlateFrames <= 0 {
		return fmt.Errorf("plate step frame budget must be positive, got %d", b.PlateFrames)
	}
	return nil
}

type Config struct {
	Budgets    Budgets
	Drowsiness drowsiness.Config
	Consensus  consensus.Config
}

// Controller runs sessions for one lane. It holds no per-session state
// itself; each Run creates a fresh Session so a restart discards everything.
type Controller struct {
	cfg    Config
	frames framesource.Source
	eyes   probe.EyeStateProbe
	plates probe.PlateReader
	clock  func() time.Time
	log    zerolog.Logger
}

func NewController(cfg Config, frames framesource.Source, eyes probe.EyeStateProbe, plates probe.PlateReader, log zerolog.Logger) (*Controller, error) {
	if err := cfg.Budgets.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Drowsiness.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Consensus.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:    cfg,
		frames: frames,
		eyes:   eyes,
		plates: plates,
		clock:  time.Now,
		log:    log,
	}, nil
}

// WithClock replaces the controller's time source, for deterministic tests.
func (c *Controller) WithClock(clock func() time.Time) *Controller {
	c.clock = clock
	return c
}

// Session is the aggregate owning one vehicle's lifecycle.
type Session struct {
	ID         string
	state      State
	scorer     *drowsiness.Scorer
	tracker    *consensus.Tracker
	auth       *authstore.Snapshot
	framesUsed int
	startedAt  time.Time
}

func (s *Session) State() State {
	return s.state
}

// Run executes one complete session against the given authorization
// snapshot. Cancellation is checked at every frame boundary, so the session
// terminates within one frame interval of a cancel request. Frame-source
// failure aborts the session and returns ErrAborted.
func (c *Controller) Run(ctx context.Context, auth *authstore.Snapshot) (*toll.SessionResult, error) {
	scorer, err := drowsiness.NewScorer(c.cfg.Drowsiness)
	if err != nil {
		return nil, err
	}
	tracker, err := consensus.NewTracker(c.cfg.Consensus)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        uuid.New().String(),
		state:     StateInit,
		scorer:    scorer,
		tracker:   tracker,
		auth:      auth,
		startedAt: c.clock(),
	}
	log := c.log.With().Str("session_id", session.ID).Logger()
	log.Info().Int("authorized_plates", auth.Len()).Msg("session started")

	session.state = StateFace
	alertness, err := c.runFaceStep(ctx, session, log)
	if err != nil {
		session.state = StateAborted
		log.Warn().Err(err).Msg("session aborted during face step")
		return nil, fmt.Errorf("%w: %v", ErrAborted, err)
	}
	log.Info().
		Float64("ratio", alertness.Ratio).
		Str("classification", string(alertness.Classification)).
		Msg("face step decided")

	session.state = StatePlate
	plate, err := c.runPlateStep(ctx, session, log)
	if err != nil {
		session.state = StateAborted
		log.Warn().Err(err).Msg("session aborted during plate step")
		return nil, fmt.Errorf("%w: %v", ErrAborted, err)
	}

	session.state = StateDecision
	authorized := false
	if plate != nil {
		authorized = session.auth.Authorized(plate.Text)
	}
	outcome, violation := decision.Decide(alertness, plate, authorized, c.clock())
	session.state = StateComplete

	result := &toll.SessionResult{
		SessionID:  session.ID,
		Outcome:    outcome,
		Alertness:  alertness,
		Plate:      plate,
		Authorized: authorized,
		Violation:  violation,
		FramesUsed: session.framesUsed,
		StartedAt:  session.startedAt,
		FinishedAt: c.clock(),
	}

	evt := log.Info()
	if outcome.Denied() {
		evt = log.Warn()
	}
	evt.Str("outcome", string(outcome)).
		Bool("authorized", authorized).
		Int("frames_used", session.framesUsed).
		Msg("session complete")
	return result, nil
}

// runFaceStep consumes frames until the drowsiness window decides or the
// step budget expires, in which case the verdict degrades to INDETERMINATE
// and the workflow still advances.
func (c *Controller) runFaceStep(ctx context.Context, session *Session, log zerolog.Logger) (toll.AlertnessResult, error) {
	for i := 0; i < c.cfg.Budgets.FaceFrames; i++ {
		frame, err := c.nextFrame(ctx, session)
		if errors.Is(err, framesource.ErrExhausted) {
			// A finite source running dry is the batch-mode equivalent
			// of the budget expiring: degrade, don't abort.
			log.Info().Int("frames", session.framesUsed).Msg("frame source exhausted during face step")
			return session.scorer.ForcedResult(), nil
		}
		if err != nil {
			return toll.AlertnessResult{}, err
		}

		state, err := c.eyes.Probe(ctx, frame)
		if err != nil {
			// Probe failures never cross the decision boundary.
			log.Debug().Err(err).Int("frame", frame.Index).Msg("eye probe failed, treating frame as unknown")
			state = toll.EyeUnknown
		}

		status := session.scorer.Observe(toll.EyeObservation{
			FrameIndex: frame.Index,
			State:      state,
		})
		if status == drowsiness.Decided {
			return session.scorer.ForcedResult(), nil
		}
	}
	log.Info().Int("budget", c.cfg.Budgets.FaceFrames).Msg("face step budget expired")
	return session.scorer.ForcedResult(), nil
}

// runPlateStep consumes frames until a plate is confirmed or the consensus
// tracker exhausts. A nil return with nil error means no confirmed plate.
func (c *Controller) runPlateStep(ctx context.Context, session *Session, log zerolog.Logger) (*toll.ConfirmedPlate, error) {
	for i := 0; i < c.cfg.Budgets.PlateFrames; i++ {
		frame, err := c.nextFrame(ctx, session)
		if errors.Is(err, framesource.ErrExhausted) {
			log.Info().Int("frames", session.framesUsed).Msg("frame source exhausted during plate step")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		candidates, err := c.plates.Read(ctx, frame)
		if err != nil {
			log.Debug().Err(err).Int("frame", frame.Index).Msg("plate read failed, no candidates this frame")
			candidates = nil
		}

		switch session.tracker.Observe(candidates) {
		case consensus.Confirmed:
			plate, _ := session.tracker.Confirmed()
			log.Info().
				Str("plate", plate.Text).
				Int("confirmations", plate.Confirmations).
				Msg("plate confirmed")
			return &plate, nil
		case consensus.Exhausted:
			log.Info().Int("attempts", session.tracker.Attempts()).Msg("plate consensus exhausted")
			return nil, nil
		}
	}
	log.Info().Int("budget", c.cfg.Budgets.PlateFrames).Msg("plate step budget expired")
	return nil, nil
}

func (c *Controller) nextFrame(ctx context.Context, session *Session) (framesource.Frame, error) {
	if err := ctx.Err(); err != nil {
		return framesource.Frame{}, err
	}
	frame, err := c.frames.Next(ctx)
	if err != nil {
		return framesource.Frame{}, err
	}
	session.framesUsed++
	return frame, nil
}
