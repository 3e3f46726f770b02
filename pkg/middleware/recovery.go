// Package middleware provides HTTP middleware shared by all routes.
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/handlers"
)

// Recover returns middleware that converts panics into a 500 response with a
// generic JSON error body. The panic value is logged, never sent to the client.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic in request handler",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"))
					_ = handlers.ErrorResponse(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
