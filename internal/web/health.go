package web

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/sensordash/internal/store"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status string           `json:"status"`
	Pool   *store.PoolStats `json:"pool,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	if ps, ok := h.state.Store().(store.PoolStatter); ok {
		stats := ps.PoolStats()
		resp.Pool = &stats
	}

	if err := h.state.Store().Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
		resp.Status = "unavailable"
		writeJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}
