package upstream

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveCatalog registers a link-envelope data endpoint backed by a static
// payload body.
func (f *fakeUpstream) serveCatalog(dataPath, payloadPath, body string) {
	f.mux.HandleFunc(dataPath, f.envelope(payloadPath, "link"))
	f.mux.HandleFunc(payloadPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func TestFetchSeriesCatalog(t *testing.T) {
	f := newFakeUpstream(t)
	f.serveCatalog("/data/series/get", "/payload/series", `[
		{"series_id":32,"series_name":"Production Car Challenge","category_id":2,
		 "car_class_ids":[15],
		 "allowed_licenses":[{"group_name":"Class D","license_group":2}]}
	]`)
	client, session := newTestClient(t, f)
	login(t, client, session)

	series, err := NewCatalogFetcher(client).FetchSeries(context.Background())
	require.Nil(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Production Car Challenge", series[0].SeriesName)
	assert.Equal(t, []int{15}, series[0].CarClassIDs)
	require.Len(t, series[0].AllowedLicenses, 1)
	assert.Equal(t, 2, series[0].AllowedLicenses[0].LicenseGroup)
}

func TestFetchTracksAndCars(t *testing.T) {
	f := newFakeUpstream(t)
	f.serveCatalog("/data/track/get", "/payload/tracks", `[{"track_id":18,"track_name":"Okayama"}]`)
	f.serveCatalog("/data/car/get", "/payload/cars", `[{"car_class_id":15,"car_name":"Mazda MX-5"}]`)
	client, session := newTestClient(t, f)
	login(t, client, session)

	fetcher := NewCatalogFetcher(client)

	tracks, err := fetcher.FetchTracks(context.Background())
	require.Nil(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Okayama", tracks[0].TrackName)

	cars, err := fetcher.FetchCars(context.Background())
	require.Nil(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, 15, cars[0].CarClassID)
}

func TestFetchSeriesDecodeFailure(t *testing.T) {
	f := newFakeUpstream(t)
	f.serveCatalog("/data/series/get", "/payload/series", `{"not":"a list"}`)
	client, session := newTestClient(t, f)
	login(t, client, session)

	_, err := NewCatalogFetcher(client).FetchSeries(context.Background())
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamDecode))
}

func TestFetchLeagueRosterAndSeasons(t *testing.T) {
	f := newFakeUpstream(t)
	f.serveCatalog("/data/league/roster", "/payload/roster",
		`{"roster":[{"display_name":"max power","cust_id":102}]}`)
	f.serveCatalog("/data/league/seasons", "/payload/seasons",
		`{"seasons":[{"season_id":9,"season_name":"2026 S3"}]}`)
	client, session := newTestClient(t, f)
	login(t, client, session)

	fetcher := NewCatalogFetcher(client)

	roster, err := fetcher.FetchLeagueRoster(context.Background(), 4711)
	require.Nil(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, int64(102), roster[0].CustID)

	seasons, err := fetcher.FetchLeagueSeasons(context.Background(), 4711)
	require.Nil(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, "2026 S3", seasons[0].SeasonName)
}

func TestFetchSessionResults(t *testing.T) {
	f := newFakeUpstream(t)
	f.serveCatalog("/data/results/get", "/payload/results", `{
		"subsession_id":555001,
		"series_name":"Production Car Challenge",
		"start_time":"2026-08-26T14:30:00Z",
		"results":[
			{"display_name":"max power","cust_id":102,"finish_position":1},
			{"display_name":"Alice Driver","cust_id":1,"finish_position":2}
		]
	}`)
	client, session := newTestClient(t, f)
	login(t, client, session)

	result, err := NewResultsFetcher(client).FetchSessionResults(context.Background(), 555001)
	require.Nil(t, err)
	assert.Equal(t, int64(555001), result.SubsessionID)
	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Results[0].FinishPosition)
}

func TestCatalogRequiresSession(t *testing.T) {
	f := newFakeUpstream(t)
	f.serveCatalog("/data/series/get", "/payload/series", `[]`)
	client, _ := newTestClient(t, f)

	_, err := NewCatalogFetcher(client).FetchSeries(context.Background())
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamStatus))
}
