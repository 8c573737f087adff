package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/dealboard/dealboard-backend/api/responses"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
)

// RateLimit applies a per-IP request budget per minute across the whole API. It is
// process-local; the Redis-backed AuthRateLimit guards the code endpoints.
func RateLimit(requestsPerMinute int, logg *logger.Logger) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests"))
		}),
	)
}
