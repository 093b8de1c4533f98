package postgresql

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Schema is created on startup when missing. races carries the natural
// unique key (series_id, start_time); race_cars holds one row per offered
// car, keyed so re-upserts cannot duplicate entries.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS races (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		track_name TEXT NOT NULL,
		license_level TEXT NOT NULL,
		car_class_id INTEGER NOT NULL DEFAULT 0,
		car_class_name TEXT NOT NULL,
		category_id INTEGER NOT NULL DEFAULT 0,
		number_of_racers INTEGER NOT NULL DEFAULT 0,
		series_id INTEGER NOT NULL,
		source JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (series_id, start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS races_start_time_idx ON races (start_time)`,
	`CREATE TABLE IF NOT EXISTS race_cars (
		race_id UUID NOT NULL REFERENCES races (id) ON DELETE CASCADE,
		car_name TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (race_id, car_name)
	)`,
}

func (s *RaceStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to ensure schema")
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
