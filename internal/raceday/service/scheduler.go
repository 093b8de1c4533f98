package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SchedulerConfig holds the timer intervals for the background loops.
type SchedulerConfig struct {
	RefreshInterval time.Duration // fetch/normalize/persist cadence
	ReauthInterval  time.Duration // session verification cadence
}

// Scheduler drives the service on two timers: the refresh loop keeps the
// race store current, the reauth loop keeps the upstream session alive in
// between refreshes.
type Scheduler struct {
	svc    *Service
	cfg    SchedulerConfig
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(svc *Service, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{svc: svc, cfg: cfg}
}

// Start runs one immediate cycle, then ticks in the background until Stop
// or context cancellation. A failed cycle is logged and retried on the next
// tick; it never stops the loop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		if _, err := s.svc.RunCycle(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("initial refresh cycle failed")
		}

		refresh := time.NewTicker(s.cfg.RefreshInterval)
		defer refresh.Stop()
		reauth := time.NewTicker(s.cfg.ReauthInterval)
		defer reauth.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-refresh.C:
				if _, err := s.svc.RunCycle(ctx); err != nil {
					log.Ctx(ctx).Error().Err(err).Msg("refresh cycle failed")
				}
			case <-reauth.C:
				if err := s.svc.auth.EnsureAuthenticated(ctx, s.svc.cred); err != nil {
					log.Ctx(ctx).Error().Err(err).Msg("session re-verification failed")
				}
			}
		}
	}()
}

// Stop cancels the background loops and waits for them to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
