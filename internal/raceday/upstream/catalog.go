package upstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gridline/gridline/internal/common/apperrors"
)

// CatalogFetcher retrieves the reference catalogs: series, tracks, cars, and
// league rosters. Each fetch is a single two-hop call and propagates upstream
// errors unchanged; callers decide whether a missing catalog degrades the
// join to sentinel values or aborts the cycle.
type CatalogFetcher struct {
	client *Client
}

// NewCatalogFetcher creates a catalog fetcher over the given client.
func NewCatalogFetcher(client *Client) *CatalogFetcher {
	return &CatalogFetcher{client: client}
}

// FetchSeries retrieves the series catalog.
func (f *CatalogFetcher) FetchSeries(ctx context.Context) ([]SeriesEntry, apperrors.Error) {
	body, err := f.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/series/get",
	})
	if err != nil {
		return nil, err
	}
	var series []SeriesEntry
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, ErrUpstreamDecode.MsgErr("series catalog", err)
	}
	return series, nil
}

// FetchTracks retrieves the track catalog.
func (f *CatalogFetcher) FetchTracks(ctx context.Context) ([]TrackEntry, apperrors.Error) {
	body, err := f.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/track/get",
	})
	if err != nil {
		return nil, err
	}
	var tracks []TrackEntry
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, ErrUpstreamDecode.MsgErr("track catalog", err)
	}
	return tracks, nil
}

// FetchCars retrieves the car catalog.
func (f *CatalogFetcher) FetchCars(ctx context.Context) ([]CarEntry, apperrors.Error) {
	body, err := f.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/car/get",
	})
	if err != nil {
		return nil, err
	}
	var cars []CarEntry
	if err := json.Unmarshal(body, &cars); err != nil {
		return nil, ErrUpstreamDecode.MsgErr("car catalog", err)
	}
	return cars, nil
}

// FetchLeagueRoster retrieves the member roster for a league.
func (f *CatalogFetcher) FetchLeagueRoster(ctx context.Context, leagueID int) ([]DriverRecord, apperrors.Error) {
	body, err := f.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/league/roster",
		Query:  map[string]string{"league_id": strconv.Itoa(leagueID)},
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Roster []DriverRecord `json:"roster"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrUpstreamDecode.MsgErr("league roster", err)
	}
	return payload.Roster, nil
}

// FetchLeagueSeasons retrieves the season listing for a league.
func (f *CatalogFetcher) FetchLeagueSeasons(ctx context.Context, leagueID int) ([]LeagueSeason, apperrors.Error) {
	body, err := f.client.Request(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/league/seasons",
		Query:  map[string]string{"league_id": strconv.Itoa(leagueID)},
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Seasons []LeagueSeason `json:"seasons"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrUpstreamDecode.MsgErr("league seasons", err)
	}
	return payload.Seasons, nil
}
