package listings

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRetryOnConflictReplaysUntilSuccess(t *testing.T) {
	calls, retries := 0, 0
	err := RetryOnConflict(context.Background(), 3, func() { retries++ }, func() error {
		calls++
		if calls < 3 {
			return ErrVersionConflict
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, 2, retries)
}

func TestRetryOnConflictGivesUp(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), 2, nil, func() error {
		calls++
		return ErrVersionConflict
	})
	require.Equal(t, 3, calls)
	require.Equal(t, ReasonConcurrentUpdate, pkgerrors.ReasonOf(err))
}

func TestRetryOnConflictPassesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := RetryOnConflict(context.Background(), 5, nil, func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestRetryOnConflictStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryOnConflict(ctx, 5, nil, func() error { return ErrVersionConflict })
	require.ErrorIs(t, err, context.Canceled)
}
