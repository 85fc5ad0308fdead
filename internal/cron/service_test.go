package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/metrics"
)

type fakeLock struct {
	acquired  bool
	available bool
	released  int
}

func (l *fakeLock) Acquire(ctx context.Context) (bool, error) {
	if !l.available {
		return false, nil
	}
	l.acquired = true
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

type recordingJob struct {
	name string
	runs int
	err  error
}

func (j *recordingJob) Name() string { return j.name }

func (j *recordingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func testCronLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunCycleRunsAllJobs(t *testing.T) {
	first := &recordingJob{name: "first"}
	second := &recordingJob{name: "second", err: errors.New("boom")}
	third := &recordingJob{name: "third"}
	lock := &fakeLock{available: true}

	svc, err := NewService(ServiceParams{
		Logger:   testCronLogger(),
		Registry: NewRegistry(first, second, third),
		Lock:     lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))

	// A failing job must not stop the ones after it.
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, second.runs)
	assert.Equal(t, 1, third.runs)
	assert.Equal(t, 1, lock.released)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &recordingJob{name: "solo"}
	lock := &fakeLock{available: false}

	svc, err := NewService(ServiceParams{
		Logger:   testCronLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.released)
}

func TestRunCycleRecordsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewCronJobMetrics(registry)

	ok := &recordingJob{name: "ok"}
	bad := &recordingJob{name: "bad", err: errors.New("boom")}

	svc, err := NewService(ServiceParams{
		Logger:   testCronLogger(),
		Registry: NewRegistry(ok, bad),
		Lock:     &fakeLock{available: true},
		Metrics:  jobMetrics,
	})
	require.NoError(t, err)
	require.NoError(t, svc.runCycle(context.Background()))

	families, err := registry.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				for _, label := range metric.GetLabel() {
					if label.GetName() == "job" {
						counts[family.GetName()+"/"+label.GetValue()] += metric.GetCounter().GetValue()
					}
				}
			}
		}
	}
	assert.Equal(t, 1.0, counts["job_success/ok"])
	assert.Equal(t, 1.0, counts["job_failure/bad"])
}

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Logger: testCronLogger(),
		Lock:   &fakeLock{},
	})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, svc.interval)

	_, err = NewService(ServiceParams{Logger: testCronLogger()})
	require.Error(t, err)
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &recordingJob{name: "only"})
	registry.Register(nil)
	require.Len(t, registry.Jobs(), 1)
	assert.Equal(t, "only", registry.Jobs()[0].Name())
}

func TestNotificationCleanupJob(t *testing.T) {
	repo := &fakeCleanupRepo{deleted: 7}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testCronLogger(),
		Repository: repo,
		Retention:  10,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.NotNil(t, repo.cutoff)
	assert.WithinDuration(t, time.Now().UTC().Add(-10*24*time.Hour), *repo.cutoff, time.Minute)
}

type fakeCleanupRepo struct {
	deleted int64
	cutoff  *time.Time
}

func (f *fakeCleanupRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = &cutoff
	return f.deleted, nil
}

func TestOutboxRetentionJob(t *testing.T) {
	repo := &fakeRetentionRepo{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testCronLogger(),
		Repository: repo,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.NotNil(t, repo.cutoff)
	assert.WithinDuration(t, time.Now().UTC().Add(-outboxRetentionDays*24*time.Hour), *repo.cutoff, time.Minute)
	assert.Equal(t, defaultPublishMaxAttempts, repo.maxAttempts)

	repo.err = errors.New("db down")
	require.Error(t, job.Run(context.Background()))
}

func TestOutboxRetentionJobContinuesPastPublishedFailure(t *testing.T) {
	repo := &fakeRetentionRepo{publishedErr: errors.New("timeout")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      testCronLogger(),
		Repository:  repo,
		MaxAttempts: 5,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 5, repo.maxAttempts)
}

type fakeRetentionRepo struct {
	cutoff       *time.Time
	maxAttempts  int
	err          error
	publishedErr error
}

func (f *fakeRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.publishedErr != nil {
		return 0, f.publishedErr
	}
	f.cutoff = &cutoff
	return 3, nil
}

func (f *fakeRetentionRepo) DeleteExhaustedBefore(cutoff time.Time, maxAttempts int) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.maxAttempts = maxAttempts
	return 1, nil
}
