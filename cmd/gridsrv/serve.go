package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gridline/gridline/internal/raceday/config"
	"github.com/gridline/gridline/internal/raceday/db"
	"github.com/gridline/gridline/internal/raceday/server"
	"github.com/gridline/gridline/internal/raceday/service"
	"github.com/gridline/gridline/internal/raceday/upstream"
)

func serverVersion() string {
	return server.Version
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gridline race server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			return runServe(ctx)
		},
	}
}

// pipeline bundles the wired upstream client, refresh service, and store.
type pipeline struct {
	store db.RaceStore
	auth  *upstream.AuthManager
	svc   *service.Service
	sched *service.Scheduler
	srv   *server.RaceServer
}

func buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg := config.Config()

	cred := upstream.Credential{
		Email:  cfg.Upstream.Email,
		Secret: cfg.Upstream.Password,
	}
	if cred.Email == "" || cred.Secret == "" {
		return nil, fmt.Errorf("upstream credentials not set (%s, %s)",
			config.EnvUpstreamEmail, config.EnvUpstreamPassword)
	}

	store, err := db.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening race store: %w", err)
	}

	session := upstream.NewSessionStore()
	client, err := upstream.NewClient(upstream.ClientConfig{
		BaseURL:            cfg.Upstream.BaseURL,
		RequestTimeout:     cfg.Upstream.GetRequestTimeoutOrDefault(),
		InsecureSkipVerify: cfg.Upstream.InsecureSkipVerify,
	}, session)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating upstream client: %w", err)
	}

	auth := upstream.NewAuthManager(client, session,
		cfg.Upstream.LoginAttempts, cfg.Upstream.GetLoginRetryDelayOrDefault())

	catalog := upstream.NewCatalogFetcher(client)
	svc := service.NewService(auth,
		upstream.NewRaceGuideFetcher(client),
		catalog, store, cred)

	sched := service.NewScheduler(svc, service.SchedulerConfig{
		RefreshInterval: cfg.Refresh.GetIntervalOrDefault(),
		ReauthInterval:  cfg.Upstream.GetReauthIntervalOrDefault(),
	})

	srv, err := server.CreateNewServer(store, auth,
		upstream.NewDriverLookup(client), catalog, upstream.NewResultsFetcher(client))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.MountHandlers()

	return &pipeline{store: store, auth: auth, svc: svc, sched: sched, srv: srv}, nil
}

func runServe(ctx context.Context) error {
	slog := log.With().Str("state", "init").Logger()

	slog.Info().Str("config_file", configFile).Msg("loading config file")
	if err := config.LoadConfig(configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if config.Config().ServerPort == "" {
		return fmt.Errorf("server port not defined")
	}

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.store.Close()

	p.sched.Start(ctx)
	defer p.sched.Stop()

	httpSrv := &http.Server{
		Addr:              ":" + config.Config().ServerPort,
		Handler:           p.srv.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info().Str("port", config.Config().ServerPort).Msg("server started")
		serverErrors <- httpSrv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		// Give outstanding requests 5 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop server gracefully")
			if err := httpSrv.Close(); err != nil {
				slog.Error().Err(err).Msg("could not stop server")
			}
		}
	}

	slog.Info().Msg("server stopped")
	return nil
}
