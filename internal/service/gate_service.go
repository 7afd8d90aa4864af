package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"tollgate-service/internal/authstore"
	"tollgate-service/internal/config"
	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/repository"
	"tollgate-service/internal/violationlog"
	"tollgate-service/internal/workflow"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Command is an interactive lane control: cancel aborts the current session
// and stops the lane, restart aborts it and starts a fresh session.
type Command int

const (
	CommandCancel Command = iota
	CommandRestart
)

// GateService drives the per-lane session loop: snapshot the authorization
// list, run one workflow session, fan the result out to the violation log
// and the database, repeat.
type GateService struct {
	cfg        *config.Config
	controller *workflow.Controller
	repo       *repository.GateRepository
	vlog       *violationlog.Logger
	laneID     string
	log        zerolog.Logger
}

// NewGateService wires the lane. repo may be nil when persistence is
// disabled; the violation log is always required.
func NewGateService(cfg *config.Config, controller *workflow.Controller, repo *repository.GateRepository, vlog *violationlog.Logger, laneID string, log zerolog.Logger) *GateService {
	return &GateService{
		cfg:        cfg,
		controller: controller,
		repo:       repo,
		vlog:       vlog,
		laneID:     laneID,
		log:        log,
	}
}

type sessionOutput struct {
	result *toll.SessionResult
	err    error
}

// RunLane processes vehicle sessions until the context ends, a cancel
// command arrives, or (when continuous is false) the first session
// completes. Each session takes a fresh authorization snapshot, so
// administrative list edits apply from the next session on.
func (s *GateService) RunLane(ctx context.Context, commands <-chan Command, continuous bool) error {
	for {
		snap := authstore.Load(s.cfg.Paths.AuthorizedPlates, s.log)

		sessionCtx, cancelSession := context.WithCancel(ctx)
		done := make(chan sessionOutput, 1)
		go func() {
			result, err := s.controller.Run(sessionCtx, snap)
			done <- sessionOutput{result: result, err: err}
		}()

		restart := false
		select {
		case out := <-done:
			cancelSession()
			if err := ctx.Err(); err != nil {
				return err
			}
			if out.err != nil {
				if errors.Is(out.err, workflow.ErrAborted) {
					s.log.Warn().Err(out.err).Msg("session aborted")
				}
				return out.err
			}
			s.recordResult(ctx, out.result)

		case cmd := <-commands:
			cancelSession()
			<-done
			if cmd == CommandRestart {
				s.log.Info().Msg("restart requested, discarding session state")
				restart = true
				break
			}
			s.log.Info().Msg("cancel requested, stopping lane")
			return nil

		case <-ctx.Done():
			cancelSession()
			<-done
			return ctx.Err()
		}

		if !continuous && !restart {
			return nil
		}
	}
}

func (s *GateService) recordResult(ctx context.Context, result *toll.SessionResult) {
	if result.Violation != nil {
		if err := s.vlog.Append(*result.Violation); err != nil {
			s.log.Error().Err(err).Msg("failed to append violation record")
		}
	}

	if s.repo == nil {
		return
	}
	if err := s.persist(ctx, result); err != nil {
		s.log.Error().Err(err).Str("session_id", result.SessionID).Msg("failed to persist gate event")
	}
}

func (s *GateService) persist(ctx context.Context, result *toll.SessionResult) error {
	event := &repository.GateEvent{
		SessionID:      result.SessionID,
		LaneID:         s.laneID,
		Outcome:        string(result.Outcome),
		Authorized:     result.Authorized,
		AlertnessRatio: result.Alertness.Ratio,
		Classification: string(result.Alertness.Classification),
		FramesUsed:     result.FramesUsed,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
	}
	if s.cfg.Camera.Model != "" {
		event.CameraModel = &s.cfg.Camera.Model
	}
	if result.Plate != nil {
		plateID, err := s.repo.GetOrCreatePlate(ctx, result.Plate.Text, result.Plate.Text)
		if err != nil {
			return fmt.Errorf("get or create plate: %w", err)
		}
		event.PlateID = &plateID
		event.NormalizedPlate = &result.Plate.Text
		event.Confirmations = &result.Plate.Confirmations
	}
	if detail, err := json.Marshal(result); err == nil {
		event.Detail = detail
	}

	if err := s.repo.CreateGateEvent(ctx, event); err != nil {
		return fmt.Errorf("create gate event: %w", err)
	}

	s.log.Info().
		Int64("event_id", event.ID).
		Str("session_id", result.SessionID).
		Str("outcome", string(result.Outcome)).
		Msg("saved gate event to database")

	if result.Violation != nil {
		violation := &repository.Violation{
			EventID:        &event.ID,
			Plate:          result.Violation.Plate,
			Reason:         string(result.Violation.Reason),
			AlertnessRatio: result.Violation.AlertnessRatio,
			OccurredAt:     result.Violation.Timestamp,
		}
		if err := s.repo.CreateViolation(ctx, violation); err != nil {
			return fmt.Errorf("create violation: %w", err)
		}
	}
	return nil
}
