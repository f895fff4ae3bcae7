package handlers

import (
	"net/http"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
)

type EntitlementResponse struct {
	Paid           bool       `json:"paid"`
	Reason         string     `json:"reason,omitempty"`
	Plan           string     `json:"plan,omitempty"`
	BandwidthClass string     `json:"bandwidthClass,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Receipt        string     `json:"receipt,omitempty"`
}

// CheckEntitlement answers the access gateway's question: does this phone
// number currently hold an unexpired paid session.
func (h *Handlers) CheckEntitlement(w http.ResponseWriter, r *http.Request) {
	entitlement, err := h.entitlementService.CheckEntitlement(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		h.em.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, EntitlementResponse{
		Paid:           entitlement.Paid,
		Reason:         entitlement.Reason,
		Plan:           entitlement.PlanDescription,
		BandwidthClass: entitlement.BandwidthClass,
		ExpiresAt:      entitlement.ExpiresAt,
		Receipt:        entitlement.ReceiptNumber,
	})
}
