package server

import (
	"net/http"
	"strconv"

	"github.com/gridline/gridline/internal/common/httpx"
	"github.com/gridline/gridline/internal/raceday/db"
	"github.com/gridline/gridline/internal/raceday/schedule"
)

// OfficialRacesRsp is one page of the upcoming race feed.
type OfficialRacesRsp struct {
	Total int                      `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
	Races []schedule.NormalizedRace `json:"races"`
}

// listOfficialRaces serves one page of races currently in their Practice or
// Qualifying window. Lifecycle state is recomputed per request; the store
// never serves a stale state.
func (s *RaceServer) listOfficialRaces(r *http.Request) (*httpx.Response, error) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	now := s.now()
	from, to := schedule.VisibilityWindow(now)
	rows, total, err := s.store.ListRaces(r.Context(), page, limit, from, to)
	if err != nil {
		return nil, err
	}

	races := make([]schedule.NormalizedRace, 0, len(rows))
	for _, row := range rows {
		races = append(races, db.ToNormalized(row, now))
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response: &OfficialRacesRsp{
			Total: total,
			Page:  page,
			Limit: limit,
			Races: races,
		},
	}, nil
}

// DriverSearchRsp is the outcome of a driver directory lookup.
type DriverSearchRsp struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
	CustID int64  `json:"cust_id,omitempty"`
}

// searchDriverName proxies a display name lookup to the upstream driver
// directory. An empty result is a normal 200 with exists=false.
func (s *RaceServer) searchDriverName(r *http.Request) (*httpx.Response, error) {
	name := r.URL.Query().Get("name")
	if name == "" {
		return nil, httpx.ErrInvalidRequest("name query parameter is required")
	}

	match, err := s.drivers.Search(r.Context(), name)
	if err != nil {
		return nil, err
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response: &DriverSearchRsp{
			Exists: match.Exists,
			Name:   match.Name,
			CustID: match.CustID,
		},
	}, nil
}

// queryInt parses an integer query parameter, returning def when absent or
// unparsable.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
