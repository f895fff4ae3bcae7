package handlers

import (
	"net/http"

	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
)

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
