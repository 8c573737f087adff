package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// AccessTokenHeader carries a freshly minted access token back to browser clients.
const AccessTokenHeader = "X-DLB-Token"

var defaultCORSOrigins = []string{"http://localhost:3000"}

// CORS returns middleware that applies the configured allowed origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", AccessTokenHeader, "Idempotency-Key", "X-Requested-With", "X-Request-Id"},
		ExposedHeaders:   []string{AccessTokenHeader, "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
