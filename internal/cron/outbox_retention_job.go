package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/syncdeck/syncdeck-backend/pkg/logger"
)

const (
	outboxRetentionDays       = 30
	defaultPublishMaxAttempts = 10
)

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	Repository  outboxRetentionRepo
	Retention   int
	MaxAttempts int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(cutoff time.Time) (int64, error)
	DeleteExhaustedBefore(cutoff time.Time, maxAttempts int) (int64, error)
}

// NewOutboxRetentionJob deletes outbox rows past their retention, both
// published rows and rows retired after exhausting publish attempts.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = outboxRetentionDays
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultPublishMaxAttempts
	}
	return &outboxRetentionJob{
		logg:        params.Logger,
		repo:        params.Repository,
		retention:   retention,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	repo        outboxRetentionRepo
	retention   int
	maxAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)

	var errs []error
	published, err := j.repo.DeletePublishedBefore(cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete published rows: %w", err))
	}
	exhausted, err := j.repo.DeleteExhaustedBefore(cutoff, j.maxAttempts)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete exhausted rows: %w", err))
	}
	if combined := multierr.Combine(errs...); combined != nil {
		return fmt.Errorf("outbox retention: %w", combined)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":            cutoff,
		"retention_days":    j.retention,
		"published_deleted": published,
		"exhausted_deleted": exhausted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
