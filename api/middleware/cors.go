package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the browser allow list. An empty list falls back to the local
// web client.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, rateLimitHeader, rateRemainingHeader, "Retry-After", replayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
