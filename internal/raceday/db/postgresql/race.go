package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/gridline/gridline/internal/common/apperrors"
	"github.com/gridline/gridline/internal/common/uuid"
	"github.com/gridline/gridline/internal/raceday/db/dberror"
	"github.com/gridline/gridline/internal/raceday/db/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// UpsertRaces writes each race keyed by (series_id, start_time). A failure
// on one race is logged and skipped so the rest of the batch still lands.
// Returns the number of races stored.
func (s *RaceStore) UpsertRaces(ctx context.Context, races []*models.Race) (int, apperrors.Error) {
	stored := 0
	for _, race := range races {
		if err := s.upsertRace(ctx, race); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Int("series_id", race.SeriesID).
				Time("start_time", race.StartTime).
				Msg("failed to upsert race")
			continue
		}
		stored++
	}
	return stored, nil
}

func (s *RaceStore) upsertRace(ctx context.Context, race *models.Race) (err apperrors.Error) {
	if race.Title == "" {
		return dberror.ErrInvalidInput.Msg("race title is required")
	}
	if race.StartTime.IsZero() {
		return dberror.ErrInvalidInput.Msg("race start time is required")
	}
	if race.ID == uuid.Nil {
		race.ID = uuid.New()
	}

	tx, errStd := s.db.BeginTx(ctx, nil)
	if errStd != nil {
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to begin transaction")
		return dberror.ErrDatabase.Err(errStd)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	query := `
		INSERT INTO races (id, title, start_time, end_time, track_name, license_level,
			car_class_id, car_class_name, category_id, number_of_racers, series_id, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (series_id, start_time) DO UPDATE SET
			title = EXCLUDED.title,
			end_time = EXCLUDED.end_time,
			track_name = EXCLUDED.track_name,
			license_level = EXCLUDED.license_level,
			car_class_id = EXCLUDED.car_class_id,
			car_class_name = EXCLUDED.car_class_name,
			category_id = EXCLUDED.category_id,
			number_of_racers = EXCLUDED.number_of_racers,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING id
	`

	errStd = tx.QueryRowContext(ctx, query,
		race.ID,
		race.Title,
		race.StartTime,
		race.EndTime,
		race.TrackName,
		race.LicenseLevel,
		race.CarClassID,
		race.CarClassName,
		race.CategoryID,
		race.NumberOfRacers,
		race.SeriesID,
		race.Source,
	).Scan(&race.ID)
	if errStd != nil {
		if pgErr, ok := errStd.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			// Concurrent writer landed the same natural key first.
			return dberror.ErrAlreadyExists.Msg("race already exists")
		}
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to insert race")
		return dberror.ErrDatabase.Err(errStd)
	}

	// Replace the child car rows so removed cars do not linger.
	if _, errStd = tx.ExecContext(ctx, `DELETE FROM race_cars WHERE race_id = $1`, race.ID); errStd != nil {
		return dberror.ErrDatabase.Err(errStd)
	}
	for i, car := range race.AvailableCars {
		_, errStd = tx.ExecContext(ctx,
			`INSERT INTO race_cars (race_id, car_name, position) VALUES ($1, $2, $3)
			 ON CONFLICT (race_id, car_name) DO NOTHING`,
			race.ID, car, i)
		if errStd != nil {
			return dberror.ErrDatabase.Err(errStd)
		}
	}

	if errStd := tx.Commit(); errStd != nil {
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errStd)
	}
	return nil
}

// ListRaces returns one page of races whose start time falls in (from, to],
// ordered by start time then series. Page numbering is 1-indexed; out of
// range values are clamped. The returned total counts all races in the
// window, independent of pagination.
func (s *RaceStore) ListRaces(ctx context.Context, page, limit int, from, to time.Time) ([]*models.Race, int, apperrors.Error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	var total int
	errStd := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM races WHERE start_time > $1 AND start_time <= $2`,
		from, to).Scan(&total)
	if errStd != nil {
		return nil, 0, dberror.ErrDatabase.Err(errStd)
	}

	query := `
		SELECT id, title, start_time, end_time, track_name, license_level,
			car_class_id, car_class_name, category_id, number_of_racers, series_id,
			created_at, updated_at
		FROM races
		WHERE start_time > $1 AND start_time <= $2
		ORDER BY start_time ASC, series_id ASC
		LIMIT $3 OFFSET $4
	`
	rows, errStd := s.db.QueryContext(ctx, query, from, to, limit, offset)
	if errStd != nil {
		return nil, 0, dberror.ErrDatabase.Err(errStd)
	}
	defer rows.Close()

	var races []*models.Race
	for rows.Next() {
		var race models.Race
		errStd := rows.Scan(&race.ID, &race.Title, &race.StartTime, &race.EndTime,
			&race.TrackName, &race.LicenseLevel, &race.CarClassID, &race.CarClassName,
			&race.CategoryID, &race.NumberOfRacers, &race.SeriesID,
			&race.CreatedAt, &race.UpdatedAt)
		if errStd != nil {
			log.Ctx(ctx).Error().Err(errStd).Msg("failed to scan race row")
			return nil, 0, dberror.ErrDatabase.Err(errStd)
		}
		race.AvailableCars = []string{}
		races = append(races, &race)
	}
	if errStd := rows.Err(); errStd != nil {
		return nil, 0, dberror.ErrDatabase.Err(errStd)
	}

	if err := s.loadRaceCars(ctx, races); err != nil {
		return nil, 0, err
	}
	return races, total, nil
}

// loadRaceCars attaches the child car rows to the given races in one query.
func (s *RaceStore) loadRaceCars(ctx context.Context, races []*models.Race) apperrors.Error {
	if len(races) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Race, len(races))
	ids := make([]string, 0, len(races))
	for _, race := range races {
		byID[race.ID] = race
		ids = append(ids, race.ID.String())
	}

	rows, errStd := s.db.QueryContext(ctx,
		`SELECT race_id, car_name FROM race_cars WHERE race_id = ANY($1::uuid[]) ORDER BY race_id, position`,
		pq.Array(ids))
	if errStd != nil {
		return dberror.ErrDatabase.Err(errStd)
	}
	defer rows.Close()

	for rows.Next() {
		var raceID uuid.UUID
		var carName string
		if errStd := rows.Scan(&raceID, &carName); errStd != nil {
			return dberror.ErrDatabase.Err(errStd)
		}
		if race, ok := byID[raceID]; ok {
			race.AvailableCars = append(race.AvailableCars, carName)
		}
	}
	if errStd := rows.Err(); errStd != nil {
		return dberror.ErrDatabase.Err(errStd)
	}
	return nil
}

// PruneRacesBefore deletes races that started before cutoff, cascading to
// their car rows. Returns the number of races removed.
func (s *RaceStore) PruneRacesBefore(ctx context.Context, cutoff time.Time) (int64, apperrors.Error) {
	result, errStd := s.db.ExecContext(ctx, `DELETE FROM races WHERE start_time < $1`, cutoff)
	if errStd != nil {
		return 0, dberror.ErrDatabase.Err(errStd)
	}
	removed, errStd := result.RowsAffected()
	if errStd != nil {
		return 0, dberror.ErrDatabase.Err(errStd)
	}
	return removed, nil
}
