package services

import (
	"context"
	"time"

	"transit-delay-api/logging"
)

// Pruner deletes records older than a number of days.
type Pruner interface {
	PruneOlderThan(ctx context.Context, days int) (int64, error)
}

// RunRetention prunes once immediately and then on every tick until ctx is
// cancelled.
func RunRetention(ctx context.Context, store Pruner, days int, interval time.Duration) {
	logging.Info().Int("days", days).Dur("interval", interval).Msg("retention worker running")

	pruneOnce(ctx, store, days)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pruneOnce(ctx, store, days)
		case <-ctx.Done():
			logging.Info().Msg("retention worker shutting down")
			return
		}
	}
}

func pruneOnce(ctx context.Context, store Pruner, days int) {
	deleted, err := store.PruneOlderThan(ctx, days)
	if err != nil {
		logging.Error().Err(err).Msg("retention prune failed")
		return
	}
	if deleted > 0 {
		logging.Info().Int64("deleted", deleted).Int("days", days).Msg("pruned old predictions")
	}
}
