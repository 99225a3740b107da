// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/velora/velora/internal/platform/constants"
	"github.com/velora/velora/internal/platform/postgres"
	"github.com/velora/velora/internal/platform/redis"
	"github.com/velora/velora/internal/platform/respond"
)

// healthStatus is the body of the health and readiness endpoints.
type healthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// healthHandler reports liveness. It never touches the backing stores; a
// wedged database must not make the orchestrator restart the process.
func healthHandler(_ *pgxpool.Pool, _ *goredis.Client) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		respond.JSON(writer, http.StatusOK, healthStatus{
			Status:  "ok",
			Version: constants.AppVersion,
		})
	}
}

// readinessHandler reports whether the process can serve traffic: both
// PostgreSQL and Redis must answer a ping.
func readinessHandler(pool *pgxpool.Pool, client *goredis.Client) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		checks := map[string]string{
			"postgres": "ok",
			"redis":    "ok",
		}
		healthy := true

		if err := postgres.Ping(request.Context(), pool); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
		if err := redis.Ping(request.Context(), client); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}

		status := healthStatus{Status: "ok", Version: constants.AppVersion, Checks: checks}
		if !healthy {
			status.Status = "degraded"
			respond.JSON(writer, http.StatusServiceUnavailable, status)
			return
		}

		respond.JSON(writer, http.StatusOK, status)
	}
}
