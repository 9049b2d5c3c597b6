package refreshtokens

import (
	"context"
	"time"

	"codeberg.org/gatekeep/server/internal/logger"
)

// handles periodic removal of expired refresh records
type CleanupService struct {
	store     Store
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// creates a new cleanup service. Records are pruned once they have been
// expired for longer than retention.
func NewCleanupService(store Store, interval, retention time.Duration) *CleanupService {
	return &CleanupService{
		store:     store,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// begins the cleanup background loop, returning when ctx is done
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting refresh token cleanup service",
		"interval", s.interval,
		"retention", s.retention,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("refresh token cleanup service stopped")
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx); err != nil {
				logger.ErrorErr(err, "failed to prune refresh tokens")
			}
		}
	}
}

// deletes records whose expiry lies before now minus retention
func (s *CleanupService) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)

	n, err := s.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if n == 0 {
		logger.Debug("no expired refresh tokens to prune", "cutoff", cutoff)
		return 0, nil
	}

	logger.Info("pruned expired refresh tokens", "count", n, "cutoff", cutoff)

	return n, nil
}
