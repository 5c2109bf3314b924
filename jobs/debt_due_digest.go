package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/debt"
	jobmetrics "github.com/jms-erp/jms/internal/jobs"
)

// OverdueLister returns pending debts due before t.
type OverdueLister interface {
	ListDueBefore(ctx context.Context, t time.Time) ([]debt.Debt, error)
}

// OverdueGauge publishes the overdue count.
type OverdueGauge interface {
	SetDebtsOverdue(n int)
}

// DebtDigest summarises one digest run.
type DebtDigest struct {
	AsOf      time.Time
	Count     int
	Remaining decimal.Decimal
}

// DebtDueDigestJob logs pending debts whose due date has passed.
type DebtDueDigestJob struct {
	Debts   OverdueLister
	Gauge   OverdueGauge
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDebtDueDigestJob wires dependencies for the digest handler.
func NewDebtDueDigestJob(debts OverdueLister, gauge OverdueGauge, logger *slog.Logger, metrics *jobmetrics.Metrics) *DebtDueDigestJob {
	return &DebtDueDigestJob{
		Debts:   debts,
		Gauge:   gauge,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes digest tasks.
func (j *DebtDueDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Debts == nil {
		return errors.New("debt digest: handler not configured")
	}
	var payload DebtDueDigestPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskDebtDueDigest)
	_, err := j.Run(ctx, payload.AsOf)
	return tracker.End(err)
}

// Run computes the digest as of asOf, or now when asOf is zero.
func (j *DebtDueDigestJob) Run(ctx context.Context, asOf time.Time) (DebtDigest, error) {
	if asOf.IsZero() {
		asOf = j.now()
	}
	overdue, err := j.Debts.ListDueBefore(ctx, asOf)
	if err != nil {
		j.logger().Error("list overdue debts", slog.Any("error", err))
		return DebtDigest{}, err
	}

	digest := DebtDigest{AsOf: asOf, Count: len(overdue), Remaining: decimal.Zero}
	for _, d := range overdue {
		digest.Remaining = digest.Remaining.Add(d.AmountRemaining)
		j.logger().Info("debt overdue",
			slog.String("debt_id", d.ID.String()),
			slog.String("customer", d.CustomerName),
			slog.String("remaining", d.AmountRemaining.StringFixed(2)),
		)
	}
	if j.Gauge != nil {
		j.Gauge.SetDebtsOverdue(digest.Count)
	}
	j.Metrics.AddItems(TaskDebtDueDigest, int64(digest.Count))
	j.logger().Info("debt due digest",
		slog.Int("overdue", digest.Count),
		slog.String("remaining", digest.Remaining.StringFixed(2)),
		slog.Time("as_of", asOf),
	)
	return digest, nil
}

func (j *DebtDueDigestJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *DebtDueDigestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
