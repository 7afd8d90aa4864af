package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GateRepository struct {
	db *gorm.DB
}

func NewGateRepository(db *gorm.DB) *GateRepository {
	return &GateRepository{db: db}
}

type Plate struct {
	ID         int64  `gorm:"primaryKey"`
	Number     string `gorm:"not null"`
	Normalized string `gorm:"not null;uniqueIndex"`
	Country    *string
	Region     *string
	CreatedAt  time.Time
}

type GateEvent struct {
	ID              int64 `gorm:"primaryKey"`
	SessionID       string
	PlateID         *int64
	LaneID          string `gorm:"not null"`
	CameraModel     *string
	NormalizedPlate *string
	Confirmations   *int
	Outcome         string `gorm:"not null"`
	Authorized      bool
	AlertnessRatio  float64
	Classification  string
	FramesUsed      int
	Detail          datatypes.JSON `gorm:"type:jsonb"`
	StartedAt       time.Time
	FinishedAt      time.Time `gorm:"not null"`
	CreatedAt       time.Time
}

type Violation struct {
	ID             int64 `gorm:"primaryKey"`
	EventID        *int64
	Plate          string `gorm:"not null"`
	Reason         string `gorm:"not null"`
	AlertnessRatio float64
	OccurredAt     time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

func (r *GateRepository) GetOrCreatePlate(ctx context.Context, normalized, original string) (int64, error) {
	var plate Plate
	err := r.db.WithContext(ctx).Where("normalized = ?", normalized).First(&plate).Error
	if err == nil {
		return plate.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	plate = Plate{
		Number:     original,
		Normalized: normalized,
		CreatedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&plate).Error; err != nil {
		return 0, err
	}
	return plate.ID, nil
}

func (r *GateRepository) CreateGateEvent(ctx context.Context, event *GateEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GateRepository) CreateViolation(ctx context.Context, violation *Violation) error {
	if violation.CreatedAt.IsZero() {
		violation.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(violation).Error
}

func (r *GateRepository) FindEvents(ctx context.Context, normalizedPlate *string, from, to *time.Time, limit, offset int) ([]GateEvent, error) {
	query := r.db.WithContext(ctx).Model(&GateEvent{})

	if normalizedPlate != nil {
		query = query.Where("normalized_plate = ?", *normalizedPlate)
	}
	if from != nil {
		query = query.Where("finished_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("finished_at <= ?", *to)
	}

	query = query.Order("finished_at DESC")

	if limit > 0 {
		if limit > 100 {
			limit = 100
		}
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var events []GateEvent
	err := query.Find(&events).Error
	return events, err
}

func (r *GateRepository) FindViolations(ctx context.Context, reason *string, limit, offset int) ([]Violation, error) {
	query := r.db.WithContext(ctx).Model(&Violation{})

	if reason != nil {
		query = query.Where("reason = ?", *reason)
	}

	query = query.Order("occurred_at DESC")

	if limit > 0 {
		if limit > 100 {
			limit = 100
		}
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var violations []Violation
	err := query.Find(&violations).Error
	return violations, err
}

func (r *GateRepository) FindPlatesByNormalized(ctx context.Context, normalized string) ([]Plate, error) {
	var plates []Plate
	err := r.db.WithContext(ctx).
		Where("normalized = ?", normalized).
		Find(&plates).Error
	return plates, err
}

func (r *GateRepository) GetLastEventTimeForPlate(ctx context.Context, plateID int64) (*time.Time, error) {
	var event GateEvent
	err := r.db.WithContext(ctx).
		Where("plate_id = ?", plateID).
		Order("finished_at DESC").
		First(&event).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &event.FinishedAt, nil
}
