package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtandao-labs/hotspotpay/internal/application/services"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	initiateService    *services.InitiateService
	callbackService    *services.CallbackService
	entitlementService *services.EntitlementService
	queryService       *services.QueryService
	db                 Pinger
	em                 *rest.ErrorMapper
	logger             *slog.Logger
	openapiJSON        []byte
}

func NewHandlers(
	initiateService *services.InitiateService,
	callbackService *services.CallbackService,
	entitlementService *services.EntitlementService,
	queryService *services.QueryService,
	db Pinger,
	em *rest.ErrorMapper,
	logger *slog.Logger,
	openapiJSON []byte,
) *Handlers {
	return &Handlers{
		initiateService:    initiateService,
		callbackService:    callbackService,
		entitlementService: entitlementService,
		queryService:       queryService,
		db:                 db,
		em:                 em,
		logger:             logger,
		openapiJSON:        openapiJSON,
	}
}

// Routes wires every inbound operation onto a ServeMux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/payments", h.InitiatePayment)
	mux.HandleFunc("POST /api/v1/payments/callback", h.PaymentCallback)
	mux.HandleFunc("GET /api/v1/payments/{checkoutRequestID}", h.GetAttemptStatus)
	mux.HandleFunc("GET /api/v1/payments", h.ListAttempts)
	mux.HandleFunc("GET /api/v1/entitlements", h.CheckEntitlement)

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /openapi.json", h.OpenAPIDocument)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (h *Handlers) OpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.openapiJSON)
}
