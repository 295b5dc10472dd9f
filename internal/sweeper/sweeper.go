// Package sweeper periodically removes expired products.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store deletes every product whose expiry is at or before now.
type Store interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Locker elects one sweeper per tick across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(context.Context) error, acquired bool, err error)
}

const lockKey = "retail-catalog:sweep"

type Sweeper struct {
	store    Store
	locker   Locker
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

// New builds a sweeper. locker may be nil for a single replica.
func New(store Store, locker Locker, logger *zap.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		locker:   locker,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start sweeps immediately and then every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if s.locker != nil {
		unlock, acquired, err := s.locker.TryLock(ctx, lockKey)
		switch {
		case err != nil:
			s.logger.Warn("sweep lock unavailable, sweeping anyway", zap.Error(err))
		case !acquired:
			s.logger.Debug("sweep lock held elsewhere, skipping tick")
			return
		default:
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					s.logger.Warn("sweep unlock failed", zap.Error(err))
				}
			}()
		}
	}

	// Errors are already logged; the next tick retries.
	_, _ = s.SweepOnce(ctx)
}

// SweepOnce deletes the products expired at this instant and returns how many
// were removed. A store failure is logged and returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := s.now()
	removed, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Warn("expiry sweep failed", zap.Error(err))
		return 0, err
	}

	if removed > 0 {
		s.logger.Info("expired products removed", zap.Int64("removed", removed), zap.Time("at", now))
	} else {
		s.logger.Debug("expiry sweep found nothing")
	}
	return removed, nil
}
