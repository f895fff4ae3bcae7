package handlers

import (
	"net/http"

	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
)

type AttemptStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GetAttemptStatus is the portal's polling endpoint. It answers 200 even for
// checkout IDs the store has never seen: from the portal's side the attempt
// is simply still processing.
func (h *Handlers) GetAttemptStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.entitlementService.GetAttemptStatus(r.Context(), r.PathValue("checkoutRequestID"))
	if err != nil {
		h.em.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, AttemptStatusResponse{
		Status:  string(result.Status),
		Message: result.Message,
	})
}
