package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/landhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
)

// panicError carries a recovered value. Panics raised with an error keep it
// as the cause so errors.Is still sees through the recovery.
type panicError struct {
	value any
}

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func (p panicError) Unwrap() error {
	err, _ := p.value.(error)
	return err
}

// Recoverer converts a handler panic into a 500 envelope. The panic value is
// logged but never rendered. http.ErrAbortHandler is re-raised so net/http
// drops the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err := panicError{value: rec}
				if errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				ctx := logg.WithFields(r.Context(), map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				logg.Error(ctx, "panic.recovered", err)
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
