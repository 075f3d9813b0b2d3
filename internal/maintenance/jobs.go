package maintenance

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	defaultOutboxRetentionDays       = 30
	defaultNotificationRetentionDays = 90
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeleteSettledBefore(tx *gorm.DB, cutoff time.Time, terminalAttempts int) (int64, error)
}

type notificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configure NewOutboxRetentionJob.
type OutboxRetentionJobParams struct {
	DB               txRunner
	Repository       outboxPurger
	RetentionDays    int
	TerminalAttempts int
}

// NewOutboxRetentionJob purges outbox rows the relay has finished with:
// published rows and rows pinned terminal at the attempt cap.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultOutboxRetentionDays
	}
	return &outboxRetentionJob{
		db:               params.DB,
		repo:             params.Repository,
		retention:        retention,
		terminalAttempts: params.TerminalAttempts,
		now:              time.Now,
	}, nil
}

type outboxRetentionJob struct {
	db               txRunner
	repo             outboxPurger
	retention        int
	terminalAttempts int
	now              func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := retentionCutoff(j.now(), j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteSettledBefore(tx, cutoff, j.terminalAttempts)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("outbox retention: %w", err)
	}
	return deleted, nil
}

// NewNotificationCleanupJob removes notifications read longer ago than the
// retention window. Unread notifications are kept indefinitely.
func NewNotificationCleanupJob(repo notificationPurger, retentionDays int) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if retentionDays <= 0 {
		retentionDays = defaultNotificationRetentionDays
	}
	return &notificationCleanupJob{repo: repo, retention: retentionDays, now: time.Now}, nil
}

type notificationCleanupJob struct {
	repo      notificationPurger
	retention int
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) (int64, error) {
	deleted, err := j.repo.DeleteReadBefore(ctx, retentionCutoff(j.now(), j.retention))
	if err != nil {
		return 0, fmt.Errorf("notification cleanup: %w", err)
	}
	return deleted, nil
}

func retentionCutoff(now time.Time, days int) time.Time {
	return now.UTC().Add(-time.Duration(days) * 24 * time.Hour)
}
