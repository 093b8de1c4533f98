package server

import (
	"net/http"
	"strconv"

	"github.com/gridline/gridline/internal/common/httpx"
	"github.com/gridline/gridline/internal/raceday/config"
)

// leagueID resolves the league scope for a request: an explicit league_id
// query parameter wins, otherwise the configured league applies.
func leagueID(r *http.Request) (int, error) {
	if raw := r.URL.Query().Get("league_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return 0, httpx.ErrInvalidRequest("league_id must be a positive integer")
		}
		return id, nil
	}
	if id := config.Config().Upstream.LeagueID; id > 0 {
		return id, nil
	}
	return 0, httpx.ErrInvalidRequest("no league configured; pass league_id")
}

// getLeagueRoster serves the member roster of a league.
func (s *RaceServer) getLeagueRoster(r *http.Request) (*httpx.Response, error) {
	id, err := leagueID(r)
	if err != nil {
		return nil, err
	}

	roster, appErr := s.league.FetchLeagueRoster(r.Context(), id)
	if appErr != nil {
		return nil, appErr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"league_id": id, "roster": roster},
	}, nil
}

// getLeagueSeasons serves the season listing of a league.
func (s *RaceServer) getLeagueSeasons(r *http.Request) (*httpx.Response, error) {
	id, err := leagueID(r)
	if err != nil {
		return nil, err
	}

	seasons, appErr := s.league.FetchLeagueSeasons(r.Context(), id)
	if appErr != nil {
		return nil, appErr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"league_id": id, "seasons": seasons},
	}, nil
}

// getRaceResults serves the final standings of a completed subsession, used
// to settle bets after a race ends.
func (s *RaceServer) getRaceResults(r *http.Request) (*httpx.Response, error) {
	raw := r.URL.Query().Get("subsession_id")
	if raw == "" {
		return nil, httpx.ErrInvalidRequest("subsession_id query parameter is required")
	}
	subsessionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || subsessionID <= 0 {
		return nil, httpx.ErrInvalidRequest("subsession_id must be a positive integer")
	}

	result, appErr := s.results.FetchSessionResults(r.Context(), subsessionID)
	if appErr != nil {
		return nil, appErr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   result,
	}, nil
}
