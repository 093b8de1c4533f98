package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridline/gridline/internal/common/apperrors"
	"github.com/gridline/gridline/internal/raceday/db/models"
	"github.com/gridline/gridline/internal/raceday/schedule"
	"github.com/gridline/gridline/internal/raceday/upstream"
)

var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

type stubAuth struct {
	mu    sync.Mutex
	calls int
	err   apperrors.Error
}

func (a *stubAuth) EnsureAuthenticated(ctx context.Context, cred upstream.Credential) apperrors.Error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.err
}

func (a *stubAuth) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type stubGuide struct {
	sessions []upstream.RawSession
	err      apperrors.Error
}

func (g *stubGuide) FetchSchedule(ctx context.Context) ([]upstream.RawSession, apperrors.Error) {
	return g.sessions, g.err
}

type stubCatalog struct {
	series    []upstream.SeriesEntry
	tracks    []upstream.TrackEntry
	cars      []upstream.CarEntry
	seriesErr apperrors.Error
}

func (c *stubCatalog) FetchSeries(ctx context.Context) ([]upstream.SeriesEntry, apperrors.Error) {
	return c.series, c.seriesErr
}

func (c *stubCatalog) FetchTracks(ctx context.Context) ([]upstream.TrackEntry, apperrors.Error) {
	return c.tracks, nil
}

func (c *stubCatalog) FetchCars(ctx context.Context) ([]upstream.CarEntry, apperrors.Error) {
	return c.cars, nil
}

type memStore struct {
	mu     sync.Mutex
	races  map[string]*models.Race
	pruned int64
}

func newMemStore() *memStore {
	return &memStore{races: make(map[string]*models.Race)}
}

func (m *memStore) key(r *models.Race) string {
	return fmt.Sprintf("%d/%s", r.SeriesID, r.StartTime.UTC().Format(time.RFC3339))
}

func (m *memStore) UpsertRaces(ctx context.Context, races []*models.Race) (int, apperrors.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range races {
		m.races[m.key(r)] = r
	}
	return len(races), nil
}

func (m *memStore) ListRaces(ctx context.Context, page, limit int, from, to time.Time) ([]*models.Race, int, apperrors.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Race
	for _, r := range m.races {
		if r.StartTime.After(from) && !r.StartTime.After(to) {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *memStore) PruneRacesBefore(ctx context.Context, cutoff time.Time) (int64, apperrors.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for k, r := range m.races {
		if r.StartTime.Before(cutoff) {
			delete(m.races, k)
			removed++
		}
	}
	m.pruned += removed
	return removed, nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }
func (m *memStore) Close() error                   { return nil }

func (m *memStore) all() []*models.Race {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Race, 0, len(m.races))
	for _, r := range m.races {
		out = append(out, r)
	}
	return out
}

func testSessions() []upstream.RawSession {
	return []upstream.RawSession{
		{
			SeriesID:     32,
			Track:        upstream.TrackRef{TrackID: 18, TrackName: "Okayama"},
			StartTime:    testNow.Add(10 * time.Minute),
			LicenseGroup: 2,
			EntryCount:   14,
		},
		{
			SeriesID:     32,
			Track:        upstream.TrackRef{TrackID: 18, TrackName: "Okayama"},
			StartTime:    testNow.Add(-48 * time.Hour),
			LicenseGroup: 2,
		},
	}
}

func testCatalog() *stubCatalog {
	return &stubCatalog{
		series: []upstream.SeriesEntry{{
			SeriesID:    32,
			SeriesName:  "Production Car Challenge",
			CarClassIDs: []int{15},
		}},
		tracks: []upstream.TrackEntry{{TrackID: 18, TrackName: "Okayama International Circuit"}},
		cars:   []upstream.CarEntry{{CarClassID: 15, CarName: "Mazda MX-5"}},
	}
}

func newTestService(auth *stubAuth, guide *stubGuide, catalog *stubCatalog, store *memStore) *Service {
	svc := NewService(auth, guide, catalog, store, upstream.Credential{Email: "driver@example.com", Secret: "hunter2"})
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestRunCycleFetchesNormalizesPersists(t *testing.T) {
	auth := &stubAuth{}
	store := newMemStore()
	svc := newTestService(auth, &stubGuide{sessions: testSessions()}, testCatalog(), store)

	stats, err := svc.RunCycle(context.Background())
	require.Nil(t, err)

	assert.Equal(t, 1, auth.callCount())
	assert.Equal(t, 2, stats.Fetched)
	// Only the session ten minutes out is open to drivers; the stale one
	// already started.
	assert.Equal(t, 1, stats.Joinable)
	assert.Equal(t, 2, stats.Stored)
	assert.False(t, stats.Degraded)
	// The 48h-old session was stored then pruned by retention.
	assert.Equal(t, int64(1), stats.Pruned)

	races := store.all()
	require.Len(t, races, 1)
	assert.Equal(t, "Production Car Challenge", races[0].Title)
	assert.Equal(t, "Okayama International Circuit", races[0].TrackName)
	assert.Equal(t, []string{"Mazda MX-5"}, races[0].AvailableCars)
}

func TestRunCycleScheduleFailureIsFatal(t *testing.T) {
	store := newMemStore()
	svc := newTestService(&stubAuth{}, &stubGuide{err: upstream.ErrUpstream.Msg("boom")}, testCatalog(), store)

	_, err := svc.RunCycle(context.Background())
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, upstream.ErrUpstream))
	assert.Empty(t, store.all())
}

func TestRunCycleCatalogFailureDegrades(t *testing.T) {
	catalog := testCatalog()
	catalog.series = nil
	catalog.seriesErr = upstream.ErrUpstream.Msg("series down")
	store := newMemStore()
	svc := newTestService(&stubAuth{}, &stubGuide{sessions: testSessions()}, catalog, store)

	stats, err := svc.RunCycle(context.Background())
	require.Nil(t, err)
	assert.True(t, stats.Degraded)

	races := store.all()
	require.Len(t, races, 1)
	assert.Equal(t, schedule.UnknownSeries, races[0].Title)
	// The track catalog still resolved.
	assert.Equal(t, "Okayama International Circuit", races[0].TrackName)
}

func TestRunCycleAuthFailureIsFatal(t *testing.T) {
	auth := &stubAuth{err: upstream.ErrLoginExhausted}
	store := newMemStore()
	svc := newTestService(auth, &stubGuide{sessions: testSessions()}, testCatalog(), store)

	_, err := svc.RunCycle(context.Background())
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, upstream.ErrLoginExhausted))
	assert.Empty(t, store.all())
}

func TestSchedulerRunsImmediateCycleAndStops(t *testing.T) {
	auth := &stubAuth{}
	store := newMemStore()
	svc := newTestService(auth, &stubGuide{sessions: testSessions()}, testCatalog(), store)

	sched := NewScheduler(svc, SchedulerConfig{
		RefreshInterval: time.Hour,
		ReauthInterval:  time.Hour,
	})
	sched.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(store.all()) > 0
	}, time.Second, 5*time.Millisecond)

	sched.Stop()
	assert.GreaterOrEqual(t, auth.callCount(), 1)
}

func TestSchedulerReauthTicks(t *testing.T) {
	auth := &stubAuth{}
	store := newMemStore()
	svc := newTestService(auth, &stubGuide{sessions: nil}, testCatalog(), store)

	sched := NewScheduler(svc, SchedulerConfig{
		RefreshInterval: time.Hour,
		ReauthInterval:  10 * time.Millisecond,
	})
	sched.Start(context.Background())

	// One call from the immediate cycle plus at least one reauth tick.
	require.Eventually(t, func() bool {
		return auth.callCount() >= 2
	}, time.Second, 5*time.Millisecond)
	sched.Stop()
}
