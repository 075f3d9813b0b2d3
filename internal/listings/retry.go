package listings

import (
	"context"
	"errors"

	"github.com/angelmondragon/landhub-backend/pkg/db"
)

// RetryOnConflict runs fn and replays it after ErrVersionConflict or a
// transient database error, at most maxRetries extra times. onRetry is called
// before each replay. Exhausted retries surface as ConcurrentUpdate.
func RetryOnConflict(ctx context.Context, maxRetries int, onRetry func(), fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) && !db.IsRetryable(err) {
			return err
		}
		if attempt >= maxRetries {
			return ConcurrentUpdate()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if onRetry != nil {
			onRetry()
		}
	}
}
