package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landhub-backend/internal/notifications"
	"github.com/angelmondragon/landhub-backend/pkg/config"
	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/metrics"
	"github.com/angelmondragon/landhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/landhub-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
	eventSavepoint     = "relay_event"
)

// outcome is the metrics label for what happened to one outbox row.
type outcome string

const (
	outcomeDelivered outcome = "delivered"
	outcomeDuplicate outcome = "duplicate"
	outcomeFailed    outcome = "failed"
	outcomeTerminal  outcome = "terminal"
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	ClaimPending(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID) error
	RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error
	MarkTerminal(tx *gorm.DB, id uuid.UUID, cause error, terminalAttempts int) error
}

type deadLetterer interface {
	Bury(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// notificationWriter stores a rendered notification inside the batch
// transaction and reports whether a new row was written.
type notificationWriter interface {
	CreateOnceTx(ctx context.Context, tx *gorm.DB, notification *models.Notification) (bool, error)
}

type repositoryWriter struct {
	repo *notifications.Repository
}

func (w repositoryWriter) CreateOnceTx(ctx context.Context, tx *gorm.DB, notification *models.Notification) (bool, error) {
	return w.repo.WithTx(tx).CreateOnce(ctx, notification)
}

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	Repository    outboxRepository
	Registry      registryResolver
	DeadLetters   deadLetterer
	Notifications notificationWriter
	Metrics       *metrics.RelayMetrics
	// Lock is optional; when set only the holder drains the outbox.
	Lock locks.Lock
}

// Service drains outbox_events into in-app notifications.
type Service struct {
	logg          *logger.Logger
	db            dbClient
	repo          outboxRepository
	registry      registryResolver
	deadLetters   deadLetterer
	notifications notificationWriter
	metrics       *metrics.RelayMetrics
	lock          locks.Lock
	batchSize     int
	maxAttempts   int
	pollInterval  time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	required := []struct {
		missing bool
		name    string
	}{
		{params.Config == nil, "config"},
		{params.Logger == nil, "logger"},
		{params.DB == nil, "database client"},
		{params.Repository == nil, "outbox repository"},
		{params.Registry == nil, "event registry"},
		{params.DeadLetters == nil, "dead letter store"},
		{params.Notifications == nil, "notification writer"},
	}
	for _, r := range required {
		if r.missing {
			return nil, fmt.Errorf("%s is required", r.name)
		}
	}

	relay := params.Config.Relay
	return &Service{
		logg:          params.Logger,
		db:            params.DB,
		repo:          params.Repository,
		registry:      params.Registry,
		deadLetters:   params.DeadLetters,
		notifications: params.Notifications,
		metrics:       params.Metrics,
		lock:          params.Lock,
		batchSize:     positiveOr(relay.BatchSize, defaultBatchSize),
		maxAttempts:   positiveOr(relay.MaxAttempts, defaultMaxAttempts),
		pollInterval:  time.Duration(positiveOr(relay.PollIntervalMS, defaultPollMs)) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// the next one; an empty batch waits one poll interval; a failed batch backs
// off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	wait := backoff{base: s.pollInterval, max: maxBackoff}
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "notification relay context canceled")
			return err
		}

		processed, err := s.runOnce(ctx)
		var pause time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "notification relay batch error", err)
			pause = wait.fail()
		case processed:
			wait.reset()
			continue
		default:
			wait.reset()
			pause = s.pollInterval
		}
		if err := sleep(ctx, withJitter(pause)); err != nil {
			return err
		}
	}
}

// runOnce drains one batch, holding the cross-instance lock when configured.
func (s *Service) runOnce(ctx context.Context) (bool, error) {
	if s.lock == nil {
		return s.processBatch(ctx)
	}
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire relay lock: %w", err)
	}
	if !held {
		return false, nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "release relay lock failed")
		}
	}()
	return s.processBatch(ctx)
}

// processBatch claims one batch and settles every row in a single
// transaction. Only bookkeeping failures abort the batch; delivery failures
// are recorded on the row.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	started := time.Now()
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.ClaimPending(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		processed = len(events) > 0
		for _, event := range events {
			result, err := s.settle(ctx, tx, event)
			if err != nil {
				return err
			}
			s.metrics.IncOutcome(string(result))
		}
		return nil
	})
	s.metrics.ObserveBatch(time.Since(started), err)
	return processed, err
}

// settle delivers one row and records the result on it.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	fields := eventFields(event)
	resolved, err := s.registry.Resolve(event)
	if err == nil {
		fields["event_id"] = resolved.Envelope.EventID
		fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
		var inserted bool
		inserted, err = s.deliver(ctx, tx, event, resolved)
		if err == nil {
			if markErr := s.repo.MarkPublished(tx, event.ID); markErr != nil {
				return "", fmt.Errorf("mark published %s: %w", event.ID, markErr)
			}
			if !inserted {
				s.logg.Info(s.logg.WithFields(ctx, fields), "notification already delivered")
				return outcomeDuplicate, nil
			}
			s.logg.Info(s.logg.WithFields(ctx, fields), "notification delivered")
			return outcomeDelivered, nil
		}
	}

	if registry.IsPermanent(err) {
		return s.bury(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, fields)
	}

	attempt := event.NextAttempt()
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		return s.bury(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max delivery attempts reached: %w", err), fields)
	}

	fields["error"] = err.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "notification delivery failed")
	if markErr := s.repo.RecordFailure(tx, event.ID, err); markErr != nil {
		return "", fmt.Errorf("record failure %s: %w", event.ID, markErr)
	}
	return outcomeFailed, nil
}

// deliver renders the event and inserts the in-app notification. Insert
// failures roll back to a savepoint so the rest of the batch can still be
// marked.
func (s *Service) deliver(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent) (bool, error) {
	payload, ok := resolved.Payload.(*payloads.NotificationEvent)
	switch {
	case !ok || payload == nil:
		return false, registry.Permanent(fmt.Errorf("unexpected payload %T for %s", resolved.Payload, event.EventType))
	case payload.TargetUserID == uuid.Nil:
		return false, registry.Permanent(fmt.Errorf("missing target user for %s", event.ID))
	}

	notification, err := buildNotification(event, resolved, *payload)
	if err != nil {
		return false, registry.Permanent(err)
	}

	if tx != nil {
		if err := tx.SavePoint(eventSavepoint).Error; err != nil {
			return false, err
		}
	}
	inserted, err := s.notifications.CreateOnceTx(ctx, tx, notification)
	if err != nil && tx != nil {
		if rbErr := tx.RollbackTo(eventSavepoint).Error; rbErr != nil {
			return false, errors.Join(err, rbErr)
		}
	}
	return inserted, err
}

// buildNotification renders the row shown to the target user. The envelope
// event id becomes the dedupe key so replays never produce a second row.
func buildNotification(event models.OutboxEvent, resolved *registry.ResolvedEvent, payload payloads.NotificationEvent) (*models.Notification, error) {
	kind := event.EventType.NotificationType()
	title, message, err := notifications.Render(kind, payload)
	if err != nil {
		return nil, err
	}
	dedupe := event.ID
	if parsed, err := uuid.Parse(resolved.Envelope.EventID); err == nil {
		dedupe = parsed
	}
	n := &models.Notification{
		UserID:  payload.TargetUserID,
		Type:    kind,
		Title:   title,
		Message: message,
		EventID: &dedupe,
	}
	if payload.ListingID != uuid.Nil {
		listingID := payload.ListingID
		n.ListingID = &listingID
	}
	return n, nil
}

// bury copies the row to the dead letter table and pins it terminal.
func (s *Service) bury(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) (outcome, error) {
	fields["error_reason"] = reason
	fields["error"] = cause.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event will not be retried")

	if err := s.deadLetters.Bury(tx, event, reason, cause); err != nil {
		return "", fmt.Errorf("dead letter %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminal(tx, event.ID, cause, s.maxAttempts); err != nil {
		return "", fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return outcomeTerminal, nil
}

func eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

// backoff doubles the pause after each consecutive failure.
type backoff struct {
	base, max, current time.Duration
}

func (b *backoff) fail() time.Duration {
	if b.current <= 0 {
		b.current = b.base
	}
	b.current = min(b.current*2, b.max)
	return b.current
}

func (b *backoff) reset() { b.current = 0 }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
