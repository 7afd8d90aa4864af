package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS plates (
		id              BIGSERIAL PRIMARY KEY,
		number          TEXT NOT NULL,
		normalized      TEXT NOT NULL,
		country         TEXT,
		region          TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_plates_normalized ON plates(normalized);`,
	`CREATE TABLE IF NOT EXISTS gate_events (
		id              BIGSERIAL PRIMARY KEY,
		session_id      TEXT NOT NULL,
		plate_id        BIGINT REFERENCES plates(id),
		lane_id         TEXT NOT NULL,
		camera_model    TEXT,
		normalized_plate TEXT,
		confirmations   INT,
		outcome         TEXT NOT NULL,
		authorized      BOOLEAN NOT NULL DEFAULT false,
		alertness_ratio NUMERIC(5,3),
		classification  TEXT,
		frames_used     INT,
		detail          JSONB,
		started_at      TIMESTAMPTZ,
		finished_at     TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_plate_id ON gate_events(plate_id);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_finished_at ON gate_events(finished_at);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_outcome ON gate_events(outcome);`,
	`CREATE TABLE IF NOT EXISTS violations (
		id              BIGSERIAL PRIMARY KEY,
		event_id        BIGINT REFERENCES gate_events(id),
		plate           TEXT NOT NULL,
		reason          TEXT NOT NULL,
		alertness_ratio NUMERIC(5,3),
		occurred_at     TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_violations_occurred_at ON violations(occurred_at);`,
	`CREATE INDEX IF NOT EXISTS idx_violations_reason ON violations(reason);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
