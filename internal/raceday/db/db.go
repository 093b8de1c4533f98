// Package db exposes the race store interface and its PostgreSQL
// implementation.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgtype"
	jsoniter "github.com/json-iterator/go"

	"github.com/gridline/gridline/internal/common/apperrors"
	"github.com/gridline/gridline/internal/raceday/config"
	"github.com/gridline/gridline/internal/raceday/db/models"
	"github.com/gridline/gridline/internal/raceday/db/postgresql"
	"github.com/gridline/gridline/internal/raceday/schedule"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RaceStore is the persistence surface the service and server depend on.
type RaceStore interface {
	UpsertRaces(ctx context.Context, races []*models.Race) (int, apperrors.Error)
	ListRaces(ctx context.Context, page, limit int, from, to time.Time) ([]*models.Race, int, apperrors.Error)
	PruneRacesBefore(ctx context.Context, cutoff time.Time) (int64, apperrors.Error)
	Ping(ctx context.Context) error
	Close() error
}

// New opens the PostgreSQL race store using the loaded configuration.
func New(ctx context.Context) (RaceStore, error) {
	return postgresql.NewRaceStore(ctx, config.Config().DSN())
}

// FromNormalized converts a normalized race into its storable model. The
// full normalized record is kept in the source JSONB column for inspection.
func FromNormalized(race schedule.NormalizedRace) *models.Race {
	m := &models.Race{
		Title:          race.Title,
		StartTime:      race.StartTime,
		EndTime:        race.EndTime,
		TrackName:      race.TrackName,
		LicenseLevel:   race.LicenseLevel,
		CarClassID:     race.CarClassID,
		CarClassName:   race.CarClassName,
		CategoryID:     race.CategoryID,
		NumberOfRacers: race.NumberOfRacers,
		SeriesID:       race.SeriesID,
		AvailableCars:  race.AvailableCars,
	}
	if raw, err := json.Marshal(race); err == nil {
		m.Source = pgtype.JSONB{Bytes: raw, Status: pgtype.Present}
	} else {
		m.Source = pgtype.JSONB{Status: pgtype.Null}
	}
	return m
}

// ToNormalized rebuilds the served race view from a stored row, with the
// lifecycle state recomputed as of now.
func ToNormalized(m *models.Race, now time.Time) schedule.NormalizedRace {
	cars := m.AvailableCars
	if cars == nil {
		cars = []string{}
	}
	return schedule.NormalizedRace{
		Title:          m.Title,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
		TrackName:      m.TrackName,
		State:          schedule.Classify(m.StartTime, now),
		LicenseLevel:   m.LicenseLevel,
		CarClassID:     m.CarClassID,
		CarClassName:   m.CarClassName,
		CategoryID:     m.CategoryID,
		NumberOfRacers: m.NumberOfRacers,
		SeriesID:       m.SeriesID,
		AvailableCars:  cars,
	}
}
