package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

type stubStore struct {
	rows    []models.Notification
	listErr error
	lastQ   ListQuery
	found   bool
	marked  int64
	markErr error
	stamped time.Time
}

func (s *stubStore) List(_ context.Context, q ListQuery) ([]models.Notification, error) {
	s.lastQ = q
	return s.rows, s.listErr
}

func (s *stubStore) MarkRead(_ context.Context, _, _ uuid.UUID, now time.Time) (bool, error) {
	s.stamped = now
	return s.found, s.markErr
}

func (s *stubStore) MarkAllRead(_ context.Context, _ uuid.UUID, now time.Time) (int64, error) {
	s.stamped = now
	return s.marked, s.markErr
}

func newTestService(t *testing.T, s store) *service {
	t.Helper()
	svc, err := NewService(s)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CST", -6*3600)) }
	return impl
}

func TestListSplitsPageAndEncodesCursor(t *testing.T) {
	user := uuid.New()
	newest := models.Notification{ID: uuid.New(), CreatedAt: time.Now(), Type: enums.NotificationTypeBidOutbid}
	older := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	st := &stubStore{rows: []models.Notification{newest, older}}

	result, err := newTestService(t, st).List(context.Background(), ListParams{UserID: user, Limit: 1, UnreadOnly: true})
	require.NoError(t, err)

	assert.Equal(t, pagination.LimitWithBuffer(1), st.lastQ.Limit)
	assert.Equal(t, user, st.lastQ.UserID)
	assert.True(t, st.lastQ.UnreadOnly)
	assert.Nil(t, st.lastQ.Cursor)
	require.Len(t, result.Items, 1)
	assert.False(t, result.Items[0].Read)

	cursor, err := pagination.ParseCursor(result.Cursor)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, cursor.ID)
}

func TestListRejectsBadInput(t *testing.T) {
	svc := newTestService(t, &stubStore{})

	_, err := svc.List(context.Background(), ListParams{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "bad"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestListWrapsStoreFailure(t *testing.T) {
	svc := newTestService(t, &stubStore{listErr: errors.New("conn reset")})
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New()})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestMarkReadStampsUTC(t *testing.T) {
	st := &stubStore{found: true}
	require.NoError(t, newTestService(t, st).MarkRead(context.Background(), uuid.New(), uuid.New()))
	assert.Equal(t, time.UTC, st.stamped.Location())
}

func TestMarkReadErrors(t *testing.T) {
	cases := map[string]struct {
		store *stubStore
		user  uuid.UUID
		id    uuid.UUID
		code  pkgerrors.Code
	}{
		"missing user": {store: &stubStore{}, id: uuid.New(), code: pkgerrors.CodeUnauthorized},
		"missing id":   {store: &stubStore{}, user: uuid.New(), code: pkgerrors.CodeValidation},
		"not found":    {store: &stubStore{found: false}, user: uuid.New(), id: uuid.New(), code: pkgerrors.CodeNotFound},
		"store down":   {store: &stubStore{markErr: errors.New("timeout")}, user: uuid.New(), id: uuid.New(), code: pkgerrors.CodeDependency},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := newTestService(t, tc.store).MarkRead(context.Background(), tc.user, tc.id)
			assert.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestMarkAllRead(t *testing.T) {
	count, err := newTestService(t, &stubStore{marked: 3}).MarkAllRead(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = newTestService(t, &stubStore{markErr: errors.New("boom")}).MarkAllRead(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}
