package background

import (
	"context"
	"log/slog"
	"time"
)

// CardExpirer marks overdue cards as expired.
type CardExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ExpiryManager periodically expires carteirinhas past their validity date
type ExpiryManager struct {
	cards    CardExpirer
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewExpiryManager creates a new expiry manager
func NewExpiryManager(cards CardExpirer, logger *slog.Logger, interval time.Duration) *ExpiryManager {
	return &ExpiryManager{
		cards:    cards,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic expiry sweep
func (em *ExpiryManager) Start(ctx context.Context) {
	ticker := time.NewTicker(em.interval)
	defer ticker.Stop()

	// Run immediately on startup
	em.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			em.runSweep(ctx)
		case <-em.stopCh:
			em.logger.Info("card expiry manager stopped")
			return
		case <-ctx.Done():
			em.logger.Info("card expiry manager context cancelled")
			return
		}
	}
}

// runSweep marks cards past their validity date as expired
func (em *ExpiryManager) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	expired, err := em.cards.ExpireOverdue(sweepCtx)
	if err != nil {
		em.logger.Error("failed to expire overdue cards", slog.Any("error", err))
		return
	}

	if expired > 0 {
		em.logger.Info("card expiry sweep completed", slog.Int64("cards_expired", expired))
	}
}

// Stop signals the expiry manager to stop
func (em *ExpiryManager) Stop() {
	close(em.stopCh)
}
