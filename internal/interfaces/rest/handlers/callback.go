package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
)

// callbackAck is the only body the provider ever gets back for a structurally
// valid confirmation. Any other shape makes the provider retry, which is
// pointless once the payload has been captured.
var callbackAck = map[string]any{
	"ResultCode": 0,
	"ResultDesc": "Accepted",
}

// PaymentCallback receives the provider's asynchronous confirmation. The
// handler only validates structure and acknowledges; settling the attempt
// happens detached from this request, so a slow store can never stall the
// provider into a retry storm.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		h.em.WriteError(w, application.NewInvalidRequestError("could not read request body", err))
		return
	}

	var envelope daraja.CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.em.WriteError(w, application.NewInvalidRequestError("callback body must be valid JSON", err))
		return
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" && cb.MerchantRequestID == "" {
		h.em.WriteError(w, application.NewInvalidRequestError("callback carries no correlation IDs", nil))
		return
	}

	rest.WriteJSON(w, http.StatusOK, callbackAck)

	h.callbackService.Dispatch(cb, raw)
}
