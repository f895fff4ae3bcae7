package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds request handling. The deadline also rides the request
// context so store and provider calls get cancelled with the response.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)

			timeoutHandler := http.TimeoutHandler(
				next,
				timeout,
				`{"success":false,"error":{"code":"TIMEOUT","message":"Request timeout"}}`,
			)

			timeoutHandler.ServeHTTP(w, r)
		})
	}
}
