package service

import (
	"context"
	"fmt"
	"time"

	"tollgate-service/internal/authstore"
	"tollgate-service/internal/utils"
)

type PlateInfo struct {
	ID            int64      `json:"id"`
	Number        string     `json:"number"`
	Normalized    string     `json:"normalized"`
	LastEventTime *time.Time `json:"last_event_time,omitempty"`
}

type EventInfo struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	LaneID          string    `json:"lane_id"`
	NormalizedPlate *string   `json:"normalized_plate,omitempty"`
	Outcome         string    `json:"outcome"`
	Authorized      bool      `json:"authorized"`
	AlertnessRatio  float64   `json:"alertness_ratio"`
	Classification  string    `json:"classification"`
	FramesUsed      int       `json:"frames_used"`
	FinishedAt      time.Time `json:"finished_at"`
}

type ViolationInfo struct {
	ID             int64     `json:"id"`
	Plate          string    `json:"plate"`
	Reason         string    `json:"reason"`
	AlertnessRatio float64   `json:"alertness_ratio"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (s *GateService) requireRepo() error {
	if s.repo == nil {
		return fmt.Errorf("%w: persistence is disabled", ErrNotFound)
	}
	return nil
}

func (s *GateService) FindPlates(ctx context.Context, plateQuery string) ([]PlateInfo, error) {
	if err := s.requireRepo(); err != nil {
		return nil, err
	}
	normalized := utils.NormalizePlate(plateQuery)
	if normalized == "" {
		return nil, fmt.Errorf("%w: plate query cannot be empty", ErrInvalidInput)
	}

	plates, err := s.repo.FindPlatesByNormalized(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to find plates: %w", err)
	}

	result := make([]PlateInfo, 0, len(plates))
	for _, p := range plates {
		lastEventTime, _ := s.repo.GetLastEventTimeForPlate(ctx, p.ID)
		result = append(result, PlateInfo{
			ID:            p.ID,
			Number:        p.Number,
			Normalized:    p.Normalized,
			LastEventTime: lastEventTime,
		})
	}
	return result, nil
}

func (s *GateService) FindEvents(ctx context.Context, plateQuery *string, from, to *string, limit, offset int) ([]EventInfo, error) {
	if err := s.requireRepo(); err != nil {
		return nil, err
	}

	var normalizedPlate *string
	if plateQuery != nil {
		normalized := utils.NormalizePlate(*plateQuery)
		if normalized != "" {
			normalizedPlate = &normalized
		}
	}

	var fromTime, toTime *time.Time
	if from != nil && *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from time format", ErrInvalidInput)
		}
		fromTime = &t
	}
	if to != nil && *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to time format", ErrInvalidInput)
		}
		toTime = &t
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	events, err := s.repo.FindEvents(ctx, normalizedPlate, fromTime, toTime, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}

	result := make([]EventInfo, 0, len(events))
	for _, e := range events {
		result = append(result, EventInfo{
			ID:              e.ID,
			SessionID:       e.SessionID,
			LaneID:          e.LaneID,
			NormalizedPlate: e.NormalizedPlate,
			Outcome:         e.Outcome,
			Authorized:      e.Authorized,
			AlertnessRatio:  e.AlertnessRatio,
			Classification:  e.Classification,
			FramesUsed:      e.FramesUsed,
			FinishedAt:      e.FinishedAt,
		})
	}
	return result, nil
}

func (s *GateService) FindViolations(ctx context.Context, reason *string, limit, offset int) ([]ViolationInfo, error) {
	if err := s.requireRepo(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	violations, err := s.repo.FindViolations(ctx, reason, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find violations: %w", err)
	}

	result := make([]ViolationInfo, 0, len(violations))
	for _, v := range violations {
		result = append(result, ViolationInfo{
			ID:             v.ID,
			Plate:          v.Plate,
			Reason:         v.Reason,
			AlertnessRatio: v.AlertnessRatio,
			OccurredAt:     v.OccurredAt,
		})
	}
	return result, nil
}

// AuthorizePlate appends a plate to the authorization list file. Running
// sessions keep their snapshot; the new plate applies from the next session.
func (s *GateService) AuthorizePlate(rawPlate string) (string, error) {
	normalized, err := authstore.Append(s.cfg.Paths.AuthorizedPlates, rawPlate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.log.Info().Str("plate", normalized).Msg("plate added to authorization list")
	return normalized, nil
}
