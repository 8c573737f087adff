package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	pkgredis "github.com/dealboard/dealboard-backend/pkg/redis"
)

// IdempotencyKeyHeader lets clients retry a write without repeating its effect.
const IdempotencyKeyHeader = "Idempotency-Key"

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can block its key.
	pendingTTL           = time.Minute
	maxIdempotencyKeyLen = 128
	replayHeader         = "Idempotent-Replay"
)

type idempotentRoute struct {
	ttl time.Duration
	// maxBody caps the buffered request body; zero means the upload cap.
	maxBody int64
}

// idempotentRoutes maps "METHOD pattern" to how long a finished response is kept.
// Votes are absent: the (deal, device) constraint already deduplicates them.
var idempotentRoutes = map[string]idempotentRoute{
	http.MethodPost + " /api/submit-deal":  {ttl: defaultIdempotencyTTL, maxBody: validators.MaxJSONBodyBytes},
	http.MethodPost + " /api/report-deal":  {ttl: defaultIdempotencyTTL, maxBody: validators.MaxJSONBodyBytes},
	http.MethodPost + " /api/upload-image": {ttl: defaultIdempotencyTTL},
}

// uploadBodyLimit covers both upload encodings: base64 JSON inflates by 4/3 and
// multipart adds boundaries and part headers.
func uploadBodyLimit(maxUploadBytes int64) int64 {
	return maxUploadBytes/3*4 + 64<<10
}

// storedResponse is either a pending marker written before the handler runs or
// the finished response. Body is base64 in JSON.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func lookupRoute(method, pattern string) (idempotentRoute, bool) {
	route, ok := idempotentRoutes[method+" "+pattern]
	return route, ok
}

// Idempotency replays the stored response when a client repeats an
// Idempotency-Key with the same body. A key is claimed before the handler runs,
// so a concurrent duplicate gets a conflict rather than a second write. 5xx
// responses release the key so the client can retry. Bodies are buffered up to
// the route's cap, with maxUploadBytes sizing the image upload route.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger, maxUploadBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			route, covered := lookupRoute(r.Method, routePattern(r))
			if store == nil || !covered || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Invalid Idempotency-Key header"))
				return
			}

			limit := route.maxBody
			if limit == 0 {
				limit = uploadBodyLimit(maxUploadBytes)
			}
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					err = pkgerrors.Newf(pkgerrors.CodeValidation, "Request body exceeds %d bytes", tooLarge.Limit)
				} else {
					err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request body")
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			hash := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(idempotencyScope(r), clientKey)

			claimed, err := claim(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
				return
			}
			if !claimed {
				replay(ctx, store, key, hash, w, logg)
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				if err := store.Del(context.WithoutCancel(ctx), key); err != nil && logg != nil {
					logg.Error(ctx, "idempotency.release_failed", err)
				}
				return
			}
			finished, _ := json.Marshal(storedResponse{
				RequestHash: hash,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
			})
			if err := store.Set(context.WithoutCancel(ctx), key, string(finished), route.ttl); err != nil && logg != nil {
				logg.Error(ctx, "idempotency.persist_failed", err)
			}
		})
	}
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	marker, _ := json.Marshal(storedResponse{Pending: true, RequestHash: hash})
	return store.SetNX(ctx, key, string(marker), pendingTTL)
}

func replay(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string, w http.ResponseWriter, logg *logger.Logger) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// released between our claim and this read
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "Request with this Idempotency-Key is being retried, try again"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
		return
	}

	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "corrupt idempotency record"))
		return
	}
	switch {
	case prior.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "Idempotency-Key reused with a different request body"))
	case prior.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "Request with this Idempotency-Key is still in progress"))
	default:
		if prior.ContentType != "" {
			w.Header().Set("Content-Type", prior.ContentType)
		}
		w.Header().Set(replayHeader, "true")
		w.WriteHeader(prior.Status)
		_, _ = w.Write(prior.Body)
	}
}

// idempotencyScope keeps two callers from colliding on the same client key.
func idempotencyScope(r *http.Request) string {
	caller := UserIDFromContext(r.Context())
	if caller == "" {
		caller = "anon:" + clientIP(r)
	}
	return caller + "|" + r.Method + "|" + r.URL.Path
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
