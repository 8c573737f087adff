package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/pkg/config"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

const (
	envHeader          = "X-Dealboard-Env"
	readinessTimeout   = 2 * time.Second
	readinessStatusOK  = "ok"
	readinessStatusErr = "unavailable"
)

// ReadinessCheck pings one dependency.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type healthResponse struct {
	types.Envelope
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, healthResponse{Envelope: responses.OK(""), Status: "live"})
	}
}

// HealthReady answers 503 when any dependency fails its ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		results := make(map[string]string, len(checks))
		healthy := true
		for _, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := check.Ping(ctx)
			cancel()
			if err != nil {
				healthy = false
				results[check.Name] = readinessStatusErr
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", check.Name), "health.dependency_unavailable", err)
				}
				continue
			}
			results[check.Name] = readinessStatusOK
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "Service not ready").
				WithDetails(map[string]any{"checks": results}))
			return
		}
		responses.WriteSuccess(w, healthResponse{Envelope: responses.OK(""), Status: "ready", Checks: results})
	}
}
