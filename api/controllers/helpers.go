package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/api/middleware"
	"github.com/angelmondragon/landhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
)

// currentUser resolves the authenticated caller or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return userID, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
