package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIdempotencyCleanup purges idempotency keys past retention.
	TaskIdempotencyCleanup = "idempotency:cleanup"
	// TaskDebtDueDigest reports pending debts past their due date.
	TaskDebtDueDigest = "debt:due_digest"
)

// IdempotencyCleanupPayload configures a cleanup run. A zero retention falls
// back to the job default.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// DebtDueDigestPayload pins the reference instant; zero means now.
type DebtDueDigestPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewDebtDueDigestTask constructs the digest task.
func NewDebtDueDigestTask(asOf time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(DebtDueDigestPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDebtDueDigest, body, asynq.Queue(QueueDefault)), nil
}
