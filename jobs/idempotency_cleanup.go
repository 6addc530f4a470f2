package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// IdempotencyCleaner prunes idempotency keys past their retention window.
type IdempotencyCleaner struct {
	store     *shared.IdempotencyStore
	retention time.Duration
	logger    *slog.Logger
	metrics   *Metrics
}

// NewIdempotencyCleaner constructs the cleaner. metrics may be nil.
func NewIdempotencyCleaner(store *shared.IdempotencyStore, retention time.Duration, logger *slog.Logger, metrics *Metrics) *IdempotencyCleaner {
	return &IdempotencyCleaner{store: store, retention: retention, logger: logger, metrics: metrics}
}

// HandleTask processes TaskIdempotencyCleanup tasks.
func (c *IdempotencyCleaner) HandleTask(ctx context.Context, _ *asynq.Task) error {
	tracker := c.metrics.Track(TaskIdempotencyCleanup)
	if err := tracker.End(c.store.Cleanup(ctx, c.retention)); err != nil {
		return err
	}
	c.logger.Info("idempotency keys pruned", slog.Duration("retention", c.retention))
	return nil
}
