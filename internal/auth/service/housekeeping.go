package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/starkpulse/auth/internal/auth/store"
)

// HousekeepingService periodically deletes expired sessions and clears
// expired verification/reset token fingerprints so the tables don't grow
// without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// sweepTimeout bounds a single sweep so a hung store call cannot stall
// Stop, which waits for the in-progress sweep.
const sweepTimeout = 30 * time.Second

// NewHousekeepingService creates the background sweeper. An interval of 0 or
// less defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut it
// down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	// Stop cancels this context, so an in-flight sweep unblocks instead of
	// holding up shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stopCh
		cancel()
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// One sweep right away so a long interval doesn't delay the first pass.
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs each cleanup independently; one failing must not stop the rest.
func (s *HousekeepingService) sweep(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, sweepTimeout)
	defer cancel()

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	}

	if err := s.Store.Users().ClearExpiredActionTokens(ctx); err != nil {
		s.Logger.Error("failed to clear expired action tokens", "error", err)
	}
}
