package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/legionkimitri/authd/internal/auth/store"
	"github.com/legionkimitri/authd/pkg/slogx"
)

// HousekeepingService periodically deletes expired refresh-token rows so
// the table does not grow without bound. Revoked-but-unexpired rows are
// left alone; they back replay detection until they expire.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
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

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress cleanup
// has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx := slogx.WithContext(context.Background(), s.Logger)

	// Run cleanup immediately on startup
	s.cleanup(ctx)

	for {
		select {
		case <-ticker.C:
			s.cleanup(ctx)
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup(ctx context.Context) {
	log := slogx.FromContext(ctx)

	if err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx); err != nil {
		log.Error("failed to delete expired refresh tokens", "error", err)
		return
	}
	log.Debug("deleted expired refresh tokens")
}
