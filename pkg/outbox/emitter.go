package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
)

type inserter interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
}

// Emitter writes events into the outbox table.
type Emitter struct {
	repo inserter
	logg *logger.Logger
}

func NewEmitter(repo inserter, logg *logger.Logger) *Emitter {
	return &Emitter{repo: repo, logg: logg}
}

// Emit stores event inside tx so the row commits or rolls back with the
// caller's own writes.
func (e *Emitter) Emit(ctx context.Context, tx *gorm.DB, event Event) error {
	switch {
	case tx == nil:
		return errors.New("transaction required")
	case !event.EventType.IsValid():
		return fmt.Errorf("invalid outbox event type %q", event.EventType)
	case !event.AggregateType.IsValid():
		return fmt.Errorf("invalid outbox aggregate type %q", event.AggregateType)
	}

	env, err := newEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := e.repo.Insert(tx, models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}); err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}

	if e.logg != nil && ctx != nil {
		e.logg.Debug(e.logg.WithFields(ctx, map[string]any{
			"event_id":       env.EventID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}
