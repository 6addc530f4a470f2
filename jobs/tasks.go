// Package jobs runs background maintenance tasks over Asynq.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderIntegrity re-checks order aggregate counters against lines.
	TaskOrderIntegrity = "orders:integrity"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// OrderIntegrityPayload scopes the integrity sweep.
type OrderIntegrityPayload struct {
	WarehouseID int64 `json:"warehouse_id,omitempty"`
}

// NewOrderIntegrityTask constructs an Asynq task.
func NewOrderIntegrityTask(payload OrderIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderIntegrity, data), nil
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
