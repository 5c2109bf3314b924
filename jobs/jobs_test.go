package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jms-erp/jms/internal/debt"
	"github.com/jms-erp/jms/internal/platform/cache"
	jobmetrics "github.com/jms-erp/jms/internal/jobs"
)

type fakePurger struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (f *fakePurger) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.retention = olderThan
	return f.deleted, f.err
}

type fakeOverdue struct {
	asOf  time.Time
	debts []debt.Debt
	err   error
}

func (f *fakeOverdue) ListDueBefore(_ context.Context, t time.Time) ([]debt.Debt, error) {
	f.asOf = t
	return f.debts, f.err
}

type gaugeSpy struct{ value int }

func (g *gaugeSpy) SetDebtsOverdue(n int) { g.value = n }

func TestIdempotencyCleanupUsesPayloadRetention(t *testing.T) {
	store := &fakePurger{deleted: 7}
	job := NewIdempotencyCleanupJob(store, 72*time.Hour, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewIdempotencyCleanupTask(24 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 24*time.Hour, store.retention)
}

func TestIdempotencyCleanupFallsBackToConfiguredRetention(t *testing.T) {
	store := &fakePurger{}
	job := NewIdempotencyCleanupJob(store, 48*time.Hour, nil, nil)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, 48*time.Hour, store.retention)

	job.Retention = 0
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, DefaultIdempotencyRetention, store.retention)
}

func TestIdempotencyCleanupPropagatesStoreError(t *testing.T) {
	boom := errors.New("pool closed")
	job := NewIdempotencyCleanupJob(&fakePurger{err: boom}, time.Hour, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil))
	require.ErrorIs(t, err, boom)
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	job := NewIdempotencyCleanupJob(&fakePurger{}, time.Hour, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDebtDigestSumsRemaining(t *testing.T) {
	lister := &fakeOverdue{debts: []debt.Debt{
		{ID: uuid.New(), CustomerName: "Ramesh", AmountRemaining: decimal.RequireFromString("1200.50")},
		{ID: uuid.New(), CustomerName: "Sita", AmountRemaining: decimal.NewFromInt(300)},
	}}
	gauge := &gaugeSpy{}
	job := NewDebtDueDigestJob(lister, gauge, nil, nil)
	asOf := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	digest, err := job.Run(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, digest.Count)
	assert.Equal(t, "1500.50", digest.Remaining.StringFixed(2))
	assert.Equal(t, asOf, lister.asOf)
	assert.Equal(t, 2, gauge.value)
}

func TestDebtDigestDefaultsToClock(t *testing.T) {
	lister := &fakeOverdue{}
	job := NewDebtDueDigestJob(lister, nil, nil, nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	job.clock = func() time.Time { return fixed }

	task, err := NewDebtDueDigestTask(time.Time{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, fixed, lister.asOf)
}

func TestDebtDigestError(t *testing.T) {
	boom := errors.New("timeout")
	gauge := &gaugeSpy{value: 9}
	job := NewDebtDueDigestJob(&fakeOverdue{err: boom}, gauge, nil, nil)
	_, err := job.Run(context.Background(), time.Now())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 9, gauge.value, "gauge keeps last good value")
}

func TestNewWorkerRejectsBadCron(t *testing.T) {
	task, err := NewDebtDueDigestTask(time.Time{})
	require.NoError(t, err)
	noop := func(context.Context, *asynq.Task) error { return nil }

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Handlers:  []TaskHandler{{Type: TaskDebtDueDigest, Handler: noop}},
		Cron:      []CronRegistration{{Spec: "not a cron", Task: task}},
	})
	require.Error(t, err)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Cron:      []CronRegistration{{Spec: "30 8 * * *", Task: task}},
	})
	require.Error(t, err, "cron task without handler")

	w, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Handlers:  []TaskHandler{{Type: TaskDebtDueDigest, Handler: noop}},
		Cron:      []CronRegistration{{Spec: "30 8 * * *", Task: task}},
	})
	require.NoError(t, err)
	require.NotNil(t, w)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func healthOf(t *testing.T, inspector QueueInspector) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(inspector, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	rr := healthOf(t, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"retry":0,"failed":0}`, rr.Body.String())
}

func TestJobsHealthReportsQueue(t *testing.T) {
	rr := healthOf(t, fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":4,"retry":1,"failed":0}`, rr.Body.String())

	rr = healthOf(t, fakeInspector{err: errors.New("redis down")})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(cache.Options{Addr: "redis:6379", Password: "pw", DB: 2})
	assert.Equal(t, asynq.RedisClientOpt{Addr: "redis:6379", Password: "pw", DB: 2}, opt)
}
