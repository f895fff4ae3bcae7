package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/application/services"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
)

type InitiateRequest struct {
	Amount          json.Number `json:"amount"`
	Phone           string      `json:"phone"`
	PlanDescription string      `json:"planDescription"`
}

type InitiateResponse struct {
	Success         bool   `json:"success"`
	CheckoutID      string `json:"checkoutId"`
	CustomerMessage string `json:"customerMessage"`
}

// InitiatePayment pushes a payment prompt to the subscriber's phone. A 201
// means the provider accepted the push; the portal polls the checkout ID for
// the verdict.
func (h *Handlers) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.em.WriteError(w, application.NewInvalidRequestError("request body must be valid JSON", err))
		return
	}

	result, err := h.initiateService.Initiate(r.Context(), services.InitiateCommand{
		Amount:          req.Amount,
		PhoneNumber:     req.Phone,
		PlanDescription: req.PlanDescription,
	})
	if err != nil {
		h.em.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, InitiateResponse{
		Success:         true,
		CheckoutID:      result.CheckoutRequestID,
		CustomerMessage: result.CustomerMessage,
	})
}
