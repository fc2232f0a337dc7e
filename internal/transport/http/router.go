// Package httptransport assembles the public HTTP surface. It should stay a
// thin composition layer; business logic lives in the internal services.
package httptransport

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformredis "veritag/internal/platform/redis"
	verificationhandler "veritag/internal/verification/handler"
	"veritag/pkg/platform/httputil"
	"veritag/pkg/platform/middleware/metadata"
)

// Deps collects everything the router needs, wired once in main.
type Deps struct {
	Verification *verificationhandler.Handler

	// DB and Redis are optional; nil skips the corresponding health check
	// (dev/test runs on in-memory stores).
	DB    *sql.DB
	Redis *platformredis.Client
}

// NewRouter wires all public endpoints plus the operational surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)

	d.Verification.Register(r)

	r.Get("/healthz", handleHealth(d))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{}
		healthy := true

		if d.DB != nil {
			if err := d.DB.PingContext(ctx); err != nil {
				checks["postgres"] = "unhealthy"
				healthy = false
			} else {
				checks["postgres"] = "ok"
			}
		}
		if d.Redis != nil {
			if err := d.Redis.Health(ctx); err != nil {
				checks["redis"] = "unhealthy"
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		overall := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": overall,
			"checks": checks,
		})
	}
}
