// Package server provides the REST front door for the race feed: health and
// readiness probes, the paginated official race listing, and the driver
// directory lookup. Feed routes are gated on a live upstream session.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/gridline/gridline/internal/common/apperrors"
	"github.com/gridline/gridline/internal/common/httpx"
	"github.com/gridline/gridline/internal/common/logtrace"
	commonmiddleware "github.com/gridline/gridline/internal/common/middleware"
	"github.com/gridline/gridline/internal/raceday/config"
	"github.com/gridline/gridline/internal/raceday/db"
	"github.com/gridline/gridline/internal/raceday/upstream"
)

// Version is the server version reported on /api/version.
const Version = "0.1.0"

// ApiVersion is the API contract version reported on /api/version.
const ApiVersion = "v1"

// SessionVerifier reports whether the upstream session is usable. Feed
// routes return 401 when it is not.
type SessionVerifier interface {
	IsAuthenticated() bool
	Verify(ctx context.Context) bool
}

// DriverSearcher looks up a driver display name upstream.
type DriverSearcher interface {
	Search(ctx context.Context, displayName string) (upstream.DriverMatch, apperrors.Error)
}

// LeagueFetcher retrieves league rosters and seasons upstream.
type LeagueFetcher interface {
	FetchLeagueRoster(ctx context.Context, leagueID int) ([]upstream.DriverRecord, apperrors.Error)
	FetchLeagueSeasons(ctx context.Context, leagueID int) ([]upstream.LeagueSeason, apperrors.Error)
}

// ResultsFetcher retrieves completed session results upstream.
type ResultsFetcher interface {
	FetchSessionResults(ctx context.Context, subsessionID int64) (*upstream.SessionResult, apperrors.Error)
}

// RaceServer serves the gridline REST API.
type RaceServer struct {
	Router  *chi.Mux
	store   db.RaceStore
	auth    SessionVerifier
	drivers DriverSearcher
	league  LeagueFetcher
	results ResultsFetcher
	now     func() time.Time
}

// CreateNewServer creates a RaceServer over the given store, session
// verifier, and upstream fetchers.
func CreateNewServer(store db.RaceStore, auth SessionVerifier, drivers DriverSearcher, league LeagueFetcher, results ResultsFetcher) (*RaceServer, error) {
	s := &RaceServer{
		Router:  chi.NewRouter(),
		store:   store,
		auth:    auth,
		drivers: drivers,
		league:  league,
		results: results,
		now:     time.Now,
	}
	return s, nil
}

// MountHandlers sets up all HTTP routes and middleware for the server.
func (s *RaceServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(commonmiddleware.SetTimeout(config.Config().GetRequestTimeoutOrDefault()))
	if config.Config().HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.mountResourceHandlers(s.Router)
	if logtrace.IsTraceEnabled() {
		fmt.Println("Routes in gridline router")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("Error walking router")
		}
	}
}

func (s *RaceServer) mountResourceHandlers(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.getHealth)
		r.Get("/version", s.getVersion)
		r.Get("/ready", s.getReadiness)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUpstreamSession)
			r.Get("/official-races", httpx.WrapHttpRsp(s.listOfficialRaces))
			r.Get("/search-iracing-name", httpx.WrapHttpRsp(s.searchDriverName))
			r.Get("/race-results", httpx.WrapHttpRsp(s.getRaceResults))
			r.Route("/league", func(r chi.Router) {
				r.Get("/roster", httpx.WrapHttpRsp(s.getLeagueRoster))
				r.Get("/seasons", httpx.WrapHttpRsp(s.getLeagueSeasons))
			})
		})
	})
}

// requireUpstreamSession rejects feed requests when the upstream session
// cannot be verified. The cheap flag check avoids probing upstream on every
// request; a probe only happens after the flag has been dropped.
func (s *RaceServer) requireUpstreamSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.IsAuthenticated() && !s.auth.Verify(r.Context()) {
			log.Ctx(r.Context()).Warn().Msg("request rejected: upstream session not verified")
			httpx.ErrUnAuthorized("upstream session not verified").Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *RaceServer) getHealth(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "OK",
	})
}

// GetVersionRsp represents the response for version information.
type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *RaceServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: "Gridline Race Server: " + Version,
		ApiVersion:    ApiVersion,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *RaceServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("Readiness check")

	if err := s.store.Ping(r.Context()); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("database ping failed during readiness check")
		httpx.SendJsonRsp(r.Context(), w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "database connection failed",
		})
		return
	}

	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// HandleCORS provides CORS middleware scoped to the configured frontend
// origin.
func (s *RaceServer) HandleCORS(next http.Handler) http.Handler {
	origin := config.Config().FrontendOrigin
	allowed := []string{"*"}
	if origin != "" {
		allowed = []string{origin}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{commonmiddleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
