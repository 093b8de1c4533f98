package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridline/gridline/internal/raceday/config"
	"github.com/gridline/gridline/internal/raceday/db/models"
	"github.com/gridline/gridline/internal/raceday/schedule"
)

func testRace(seriesID int, start time.Time) schedule.NormalizedRace {
	return schedule.NormalizedRace{
		Title:          "Production Car Challenge",
		StartTime:      start,
		EndTime:        start.Add(40 * time.Minute),
		TrackName:      "Okayama International Circuit",
		State:          schedule.StateQualifying,
		LicenseLevel:   "Class D",
		CarClassID:     15,
		CarClassName:   "Mazda MX-5",
		CategoryID:     2,
		NumberOfRacers: 14,
		SeriesID:       seriesID,
		AvailableCars:  []string{"Mazda MX-5", "Toyota GR86"},
	}
}

func TestFromNormalizedCarriesSource(t *testing.T) {
	race := testRace(32, time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC))
	m := FromNormalized(race)

	assert.Equal(t, race.Title, m.Title)
	assert.Equal(t, race.SeriesID, m.SeriesID)
	assert.Equal(t, race.AvailableCars, m.AvailableCars)
	require.Equal(t, pgtype.Present, m.Source.Status)

	var decoded schedule.NormalizedRace
	require.NoError(t, json.Unmarshal(m.Source.Bytes, &decoded))
	assert.Equal(t, race.Title, decoded.Title)
	assert.Equal(t, race.AvailableCars, decoded.AvailableCars)
}

func TestToNormalizedRecomputesState(t *testing.T) {
	start := time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC)
	m := FromNormalized(testRace(32, start))

	// Stored as Qualifying, but the clock has moved on.
	got := ToNormalized(m, start.Add(time.Minute))
	assert.Equal(t, schedule.StateRacing, got.State)

	got = ToNormalized(m, start.Add(-30*time.Minute))
	assert.Equal(t, schedule.StatePractice, got.State)
}

func TestToNormalizedNeverReturnsNilCars(t *testing.T) {
	m := &models.Race{Title: "x", StartTime: time.Now()}
	got := ToNormalized(m, time.Now())
	assert.NotNil(t, got.AvailableCars)
	assert.Empty(t, got.AvailableCars)
}

// Store tests below need a reachable database; they skip otherwise.

func openTestStore(t *testing.T) RaceStore {
	t.Helper()
	config.TestInit()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := New(ctx)
	if err != nil {
		t.Skipf("database not available: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// testWindow places rows far in the future so test runs cannot collide with
// live data, and prunes them afterwards.
var testWindowStart = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)

func cleanupWindow(t *testing.T, store RaceStore) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = store.PruneRacesBefore(context.Background(), testWindowStart.Add(24*time.Hour))
	})
}

func TestUpsertRacesIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	cleanupWindow(t, store)
	ctx := context.Background()

	start := testWindowStart.Add(10 * time.Minute)
	first := FromNormalized(testRace(900001, start))

	stored, err := store.UpsertRaces(ctx, []*models.Race{first})
	require.Nil(t, err)
	assert.Equal(t, 1, stored)

	// Same natural key with refreshed facts updates in place.
	updated := testRace(900001, start)
	updated.NumberOfRacers = 20
	updated.AvailableCars = []string{"Mazda MX-5"}
	stored, err = store.UpsertRaces(ctx, []*models.Race{FromNormalized(updated)})
	require.Nil(t, err)
	assert.Equal(t, 1, stored)

	races, total, err := store.ListRaces(ctx, 1, 10, testWindowStart, testWindowStart.Add(time.Hour))
	require.Nil(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, races, 1)
	assert.Equal(t, 20, races[0].NumberOfRacers)
	assert.Equal(t, []string{"Mazda MX-5"}, races[0].AvailableCars)
}

func TestListRacesPaginatesAndClamps(t *testing.T) {
	store := openTestStore(t)
	cleanupWindow(t, store)
	ctx := context.Background()

	var batch []*models.Race
	for i := 0; i < 5; i++ {
		batch = append(batch, FromNormalized(testRace(900100+i, testWindowStart.Add(time.Duration(i+1)*time.Minute))))
	}
	stored, err := store.UpsertRaces(ctx, batch)
	require.Nil(t, err)
	require.Equal(t, 5, stored)

	from, to := testWindowStart, testWindowStart.Add(time.Hour)

	races, total, err := store.ListRaces(ctx, 1, 2, from, to)
	require.Nil(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, races, 2)
	assert.Equal(t, 900100, races[0].SeriesID)

	races, _, err = store.ListRaces(ctx, 3, 2, from, to)
	require.Nil(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, 900104, races[0].SeriesID)

	// Page past the end is empty, not an error.
	races, total, err = store.ListRaces(ctx, 9, 2, from, to)
	require.Nil(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, races)

	// Zero and negative values clamp to the first page and default size.
	races, _, err = store.ListRaces(ctx, 0, -1, from, to)
	require.Nil(t, err)
	assert.Len(t, races, 5)
}

func TestListRacesRespectsWindow(t *testing.T) {
	store := openTestStore(t)
	cleanupWindow(t, store)
	ctx := context.Background()

	inside := FromNormalized(testRace(900200, testWindowStart.Add(10*time.Minute)))
	outside := FromNormalized(testRace(900201, testWindowStart.Add(2*time.Hour)))
	_, err := store.UpsertRaces(ctx, []*models.Race{inside, outside})
	require.Nil(t, err)

	races, total, err := store.ListRaces(ctx, 1, 10, testWindowStart, testWindowStart.Add(time.Hour))
	require.Nil(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, races, 1)
	assert.Equal(t, 900200, races[0].SeriesID)
}

func TestPruneRacesBefore(t *testing.T) {
	store := openTestStore(t)
	cleanupWindow(t, store)
	ctx := context.Background()

	old := FromNormalized(testRace(900300, testWindowStart.Add(time.Minute)))
	recent := FromNormalized(testRace(900301, testWindowStart.Add(time.Hour)))
	_, err := store.UpsertRaces(ctx, []*models.Race{old, recent})
	require.Nil(t, err)

	removed, err := store.PruneRacesBefore(ctx, testWindowStart.Add(30*time.Minute))
	require.Nil(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	races, _, err := store.ListRaces(ctx, 1, 10, testWindowStart, testWindowStart.Add(2*time.Hour))
	require.Nil(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, 900301, races[0].SeriesID)
}
