// Package service runs the schedule refresh cycle: authenticate, fetch the
// race guide and reference catalogs, normalize, and persist.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gridline/gridline/internal/common/apperrors"
	"github.com/gridline/gridline/internal/raceday/db"
	"github.com/gridline/gridline/internal/raceday/db/models"
	"github.com/gridline/gridline/internal/raceday/schedule"
	"github.com/gridline/gridline/internal/raceday/upstream"
)

// retention is how long a race stays in the store after its start before
// the cycle prunes it.
const retention = 24 * time.Hour

type authenticator interface {
	EnsureAuthenticated(ctx context.Context, cred upstream.Credential) apperrors.Error
}

type scheduleFetcher interface {
	FetchSchedule(ctx context.Context) ([]upstream.RawSession, apperrors.Error)
}

type catalogFetcher interface {
	FetchSeries(ctx context.Context) ([]upstream.SeriesEntry, apperrors.Error)
	FetchTracks(ctx context.Context) ([]upstream.TrackEntry, apperrors.Error)
	FetchCars(ctx context.Context) ([]upstream.CarEntry, apperrors.Error)
}

// Service owns one refresh pipeline against a single upstream session.
type Service struct {
	auth    authenticator
	guide   scheduleFetcher
	catalog catalogFetcher
	store   db.RaceStore
	cred    upstream.Credential
	now     func() time.Time
}

// CycleStats summarizes one refresh cycle.
type CycleStats struct {
	Fetched  int
	Joinable int // races already open to drivers (practice or qualifying)
	Stored   int
	Pruned   int64
	Degraded bool // one or more catalogs failed; sentinels were used
}

func NewService(auth authenticator, guide scheduleFetcher, catalog catalogFetcher, store db.RaceStore, cred upstream.Credential) *Service {
	return &Service{
		auth:    auth,
		guide:   guide,
		catalog: catalog,
		store:   store,
		cred:    cred,
		now:     time.Now,
	}
}

// RunCycle executes one fetch/normalize/persist pass. A schedule fetch
// failure aborts the cycle; a catalog fetch failure degrades the join to
// sentinel values and the cycle continues.
func (s *Service) RunCycle(ctx context.Context) (CycleStats, apperrors.Error) {
	stats := CycleStats{}

	if err := s.auth.EnsureAuthenticated(ctx, s.cred); err != nil {
		return stats, err
	}

	var (
		wg        sync.WaitGroup
		sessions  []upstream.RawSession
		series    []upstream.SeriesEntry
		tracks    []upstream.TrackEntry
		cars      []upstream.CarEntry
		schedErr  apperrors.Error
		seriesErr apperrors.Error
		tracksErr apperrors.Error
		carsErr   apperrors.Error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		sessions, schedErr = s.guide.FetchSchedule(ctx)
	}()
	go func() {
		defer wg.Done()
		series, seriesErr = s.catalog.FetchSeries(ctx)
	}()
	go func() {
		defer wg.Done()
		tracks, tracksErr = s.catalog.FetchTracks(ctx)
	}()
	go func() {
		defer wg.Done()
		cars, carsErr = s.catalog.FetchCars(ctx)
	}()
	wg.Wait()

	if schedErr != nil {
		log.Ctx(ctx).Error().Err(schedErr).Msg("schedule fetch failed")
		return stats, schedErr
	}
	for _, err := range []apperrors.Error{seriesErr, tracksErr, carsErr} {
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("catalog fetch failed; joining with sentinels")
			stats.Degraded = true
		}
	}

	now := s.now()
	races := schedule.Normalize(sessions, schedule.BuildCatalogs(series, tracks, cars), now)
	stats.Fetched = len(races)
	stats.Joinable = len(schedule.Upcoming(races))

	batch := make([]*models.Race, 0, len(races))
	for _, race := range races {
		batch = append(batch, db.FromNormalized(race))
	}

	stored, err := s.store.UpsertRaces(ctx, batch)
	if err != nil {
		return stats, err
	}
	stats.Stored = stored

	pruned, err := s.store.PruneRacesBefore(ctx, now.Add(-retention))
	if err != nil {
		// Pruning is housekeeping; the cycle already landed its data.
		log.Ctx(ctx).Warn().Err(err).Msg("failed to prune expired races")
	} else {
		stats.Pruned = pruned
	}

	log.Ctx(ctx).Info().
		Int("fetched", stats.Fetched).
		Int("joinable", stats.Joinable).
		Int("stored", stats.Stored).
		Int64("pruned", stats.Pruned).
		Bool("degraded", stats.Degraded).
		Msg("refresh cycle complete")
	return stats, nil
}
