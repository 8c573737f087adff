package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealboard/dealboard-backend/pkg/config"
)

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec := serve(HealthLive(cfg), jsonRequest(http.MethodGet, "/health/live", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get(envHeader))
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := serve(HealthReady(cfg, nil, ReadinessCheck{Name: "postgres", Ping: ok}, ReadinessCheck{Name: "redis", Ping: ok}),
		jsonRequest(http.MethodGet, "/health/ready", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody[healthResponse](t, rec).Status)

	rec = serve(HealthReady(cfg, nil, ReadinessCheck{Name: "postgres", Ping: ok}, ReadinessCheck{Name: "redis", Ping: down}),
		jsonRequest(http.MethodGet, "/health/ready", ""))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "unavailable"}, body.Details["checks"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
