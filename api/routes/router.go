package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealboard/dealboard-backend/api/controllers"
	"github.com/dealboard/dealboard-backend/api/middleware"
	"github.com/dealboard/dealboard-backend/internal/auth"
	"github.com/dealboard/dealboard-backend/internal/deals"
	"github.com/dealboard/dealboard-backend/internal/identity"
	"github.com/dealboard/dealboard-backend/internal/media"
	"github.com/dealboard/dealboard-backend/internal/reports"
	"github.com/dealboard/dealboard-backend/internal/users"
	"github.com/dealboard/dealboard-backend/internal/votes"
	"github.com/dealboard/dealboard-backend/pkg/config"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/metrics"
	pkgredis "github.com/dealboard/dealboard-backend/pkg/redis"
)

type identityResolver interface {
	VerifyAuthentication(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	VerifyToken(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	VerifyModerator(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	VerifyAdmin(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	Optional(ctx context.Context, creds identity.Credentials) *identity.AuthenticatedUser
}

type sessionManager interface {
	Rotate(ctx context.Context, oldAccessID, provided string, userID uuid.UUID) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// redisStore backs both the auth throttles and the idempotency cache.
type redisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Params bundles everything the HTTP surface depends on.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    redisStore
	Identity identityResolver
	Sessions sessionManager
	Users    userFinder
	Registry *prometheus.Registry

	AuthService     auth.Service
	DealService     deals.Service
	VoteService     votes.Service
	ReportService   reports.Service
	MediaService    media.Service
	UsernameService users.Service

	ReadinessChecks []controllers.ReadinessCheck
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(metrics.NewHTTPMetrics(p.Registry)),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, logg),
	)

	sendCodePolicy := middleware.NewAuthRateLimitPolicy(
		"send_code",
		cfg.AuthRateLimit.SendCodeWindow,
		cfg.AuthRateLimit.SendCodeIPLimit,
		cfg.AuthRateLimit.SendCodeEmailLimit,
	)
	verifyPolicy := middleware.NewAuthRateLimitPolicy(
		"verify_code",
		cfg.AuthRateLimit.VerifyWindow,
		cfg.AuthRateLimit.VerifyIPLimit,
		cfg.AuthRateLimit.VerifyEmailLimit,
	)

	optional := middleware.Identity(p.Identity, middleware.IdentityOptional, logg)
	authenticated := middleware.Identity(p.Identity, middleware.IdentityAuthenticated, logg)
	token := middleware.Identity(p.Identity, middleware.IdentityToken, logg)
	moderator := middleware.Identity(p.Identity, middleware.IdentityModerator, logg)
	admin := middleware.Identity(p.Identity, middleware.IdentityAdmin, logg)
	idempotent := middleware.Idempotency(p.Redis, logg, cfg.Storage.MaxUploadBytes)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadinessChecks...))
	})
	if p.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{Registry: p.Registry}))
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(sendCodePolicy, p.Redis, logg)).
			Post("/send-verification-code", controllers.SendVerificationCode(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(verifyPolicy, p.Redis, logg)).
			Post("/verify-code-and-get-user", controllers.VerifyCodeAndGetUser(p.AuthService, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/refresh", controllers.AuthRefresh(p.Sessions, p.Users, cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(p.Sessions, cfg.JWT, logg))
		})

		r.With(optional).Get("/get-deals", controllers.GetDeals(p.DealService, logg))
		r.With(optional).Get("/get-deal", controllers.GetDeal(p.DealService, logg))
		r.With(authenticated, idempotent).Post("/submit-deal", controllers.SubmitDeal(p.DealService, logg))
		r.With(token).Get("/get-my-deals", controllers.GetMyDeals(p.DealService, logg))

		r.Post("/cast-vote", controllers.CastVote(p.VoteService, logg))
		r.With(authenticated, idempotent).Post("/report-deal", controllers.ReportDeal(p.ReportService, logg))

		r.With(token, idempotent).Post("/upload-image", controllers.UploadImage(p.MediaService, logg))

		r.With(token).Post("/manage_username", controllers.SetUsername(p.UsernameService, logg))
		r.With(token).Get("/manage_username", controllers.CheckUsername(p.UsernameService, logg))

		r.Group(func(r chi.Router) {
			r.Use(moderator)
			r.Post("/approve-deal", controllers.ApproveDeal(p.DealService, logg))
			r.Post("/reject-deal", controllers.RejectDeal(p.DealService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/archive-deal", controllers.ArchiveDeal(p.DealService, logg))
			r.Post("/restore-deal", controllers.RestoreDeal(p.DealService, logg))
			r.Post("/delete-deal", controllers.DeleteDeal(p.DealService, logg))
		})
	})

	return r
}
