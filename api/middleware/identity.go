package middleware

import (
	"context"

	"github.com/google/uuid"
)

type identityKey struct{}

// identity is what Auth learns from a verified access token.
type identity struct {
	userID string
	role   string
	name   string
}

func identityFrom(ctx context.Context) identity {
	if ctx == nil {
		return identity{}
	}
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

// WithIdentity seeds the caller identity Auth would place on the context.
func WithIdentity(ctx context.Context, userID, role, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, role: role, name: name})
}

// WithUserID replaces only the user id, keeping any role and name.
func WithUserID(ctx context.Context, userID string) context.Context {
	id := identityFrom(ctx)
	return WithIdentity(ctx, userID, id.role, id.name)
}

func UserIDFromContext(ctx context.Context) string { return identityFrom(ctx).userID }

func RoleFromContext(ctx context.Context) string { return identityFrom(ctx).role }

func UserNameFromContext(ctx context.Context) string { return identityFrom(ctx).name }

// UserUUIDFromContext parses the authenticated user id; ok is false when the
// request carries no valid identity.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
