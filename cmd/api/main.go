package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dealboard/dealboard-backend/api/controllers"
	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/routes"
	"github.com/dealboard/dealboard-backend/internal/auth"
	"github.com/dealboard/dealboard-backend/internal/deals"
	"github.com/dealboard/dealboard-backend/internal/identity"
	"github.com/dealboard/dealboard-backend/internal/media"
	"github.com/dealboard/dealboard-backend/internal/reports"
	"github.com/dealboard/dealboard-backend/internal/users"
	"github.com/dealboard/dealboard-backend/internal/votes"
	"github.com/dealboard/dealboard-backend/pkg/auth/session"
	"github.com/dealboard/dealboard-backend/pkg/config"
	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/env"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/mailer"
	"github.com/dealboard/dealboard-backend/pkg/metrics"
	"github.com/dealboard/dealboard-backend/pkg/migrate"
	"github.com/dealboard/dealboard-backend/pkg/redis"
	"github.com/dealboard/dealboard-backend/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	responses.SetExposeInternalErrors(cfg.App.IsDev())

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storageClient, err := storage.NewClient(ctx, cfg.Storage, logg)
	if err != nil {
		return err
	}
	if cfg.Storage.EnsureBucket {
		if err := storageClient.EnsureBucket(ctx); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics := metrics.NewDomainMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	userRepo := users.NewRepository(dbClient.DB())
	dealRepo := deals.NewRepository(dbClient.DB())

	var codeStore auth.CodeStore
	if cfg.Auth.Store() == config.CodeStoreMemory {
		codeStore = auth.NewMemoryCodeStore()
	} else {
		codeStore, err = auth.NewRedisCodeStore(redisClient, nil)
		if err != nil {
			return err
		}
	}
	verifier, err := auth.NewVerifier(cfg.Auth.Verifier(), codeStore, nil)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		CodeStore:      codeStore,
		Verifier:       verifier,
		Mailer:         mailer.New(cfg.Sendgrid, logg),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		AuthConfig:     cfg.Auth,
		Metrics:        domainMetrics,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	resolver, err := identity.NewResolver(
		identity.NewTokenStrategy(cfg.JWT, sessionManager, userRepo),
		identity.NewLegacyStrategy(userRepo),
	)
	if err != nil {
		return err
	}

	dealService, err := deals.NewService(deals.ServiceParams{
		DealRepo: dealRepo,
		UserRepo: userRepo,
		Images:   storageClient,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	voteService, err := votes.NewService(votes.ServiceParams{
		VoteRepo: votes.NewRepository(dbClient.DB()),
		DealRepo: dealRepo,
		Metrics:  domainMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	reportService, err := reports.NewService(reports.ServiceParams{
		ReportRepo: reports.NewRepository(dbClient.DB()),
		DealRepo:   dealRepo,
		Metrics:    domainMetrics,
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	mediaService, err := media.NewService(storageClient, cfg.Storage.MaxUploadBytes, logg, nil)
	if err != nil {
		return err
	}

	usernameService, err := users.NewService(userRepo, nil)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Params{
		Config:          cfg,
		Logger:          logg,
		Redis:           redisClient,
		Identity:        resolver,
		Sessions:        sessionManager,
		Users:           userRepo,
		Registry:        registry,
		AuthService:     authService,
		DealService:     dealService,
		VoteService:     voteService,
		ReportService:   reportService,
		MediaService:    mediaService,
		UsernameService: usernameService,
		ReadinessChecks: []controllers.ReadinessCheck{
			{Name: "postgres", Ping: dbClient.Ping},
			{Name: "redis", Ping: redisClient.Ping},
		},
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
