// Package health contiene los controllers de health check.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/cache"
	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	"github.com/aadidesign/SilentAlliance/internal/http/helpers"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
)

// Controller expone liveness y readiness.
type Controller struct {
	store repository.Store
	cache cache.Client
}

// NewController crea el controller de health.
func NewController(store repository.Store, cacheClient cache.Client) *Controller {
	return &Controller{store: store, cache: cacheClient}
}

// Healthz maneja GET /healthz. Liveness: siempre 200 si el proceso responde.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz. Readiness: store y cache deben responder.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("Readyz"))

	checks := map[string]string{"store": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := c.store.Ping(ctx); err != nil {
		log.Warn("store not ready", logger.Err(err))
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := c.cache.Ping(ctx); err != nil {
		log.Warn("cache not ready", logger.Err(err))
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	helpers.WriteJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
