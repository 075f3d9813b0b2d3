package outbox

import (
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

const maxDeadLetterMessage = 1024

// DeadLetters copies rows the relay gave up on into outbox_dlq.
type DeadLetters struct {
	now func() time.Time
}

func NewDeadLetters() *DeadLetters {
	return &DeadLetters{now: time.Now}
}

// Bury records event with the reason and cause of its final failure.
func (d *DeadLetters) Bury(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !reason.IsValid() {
		return errors.New("invalid dead letter reason")
	}
	var msg *string
	if cause != nil {
		clipped := clip(cause.Error(), maxDeadLetterMessage)
		msg = &clipped
	}
	row := event.DeadLetter(reason, msg, d.now().UTC())
	return tx.Create(&row).Error
}

// clip shortens s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
