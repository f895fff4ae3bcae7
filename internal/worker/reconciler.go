package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/application/services"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
)

// defaults applied when the worker is enabled without explicit tuning
const (
	defaultInterval  = time.Minute
	defaultMinAge    = 2 * time.Minute
	defaultBatchSize = 25
)

// stillProcessingErrorCode is the provider's error-envelope code while the
// prompt is still open on the handset.
const stillProcessingErrorCode = "500.001.1001"

// pendingQueryCodes are result codes the query endpoint returns for prompts
// that have not been answered yet. They never settle an attempt.
var pendingQueryCodes = map[int]bool{
	1031: true,
}

// Reconciler sweeps attempts stuck without a confirmation and asks the
// provider for their verdict. Only provider-delivered failure codes settle an
// attempt from here; a success verdict is left for the callback, whose
// metadata carries the receipt the entitlement needs. Local clocks never
// transition anything.
type Reconciler struct {
	store     application.AttemptStore
	stk       application.StkClient
	callbacks *services.CallbackService
	interval  time.Duration
	minAge    time.Duration
	batchSize int
	logger    *slog.Logger

	now func() time.Time
}

func NewReconciler(
	store application.AttemptStore,
	stk application.StkClient,
	callbacks *services.CallbackService,
	interval time.Duration,
	minAge time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Reconciler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if minAge <= 0 {
		minAge = defaultMinAge
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Reconciler{
		store:     store,
		stk:       stk,
		callbacks: callbacks,
		interval:  interval,
		minAge:    minAge,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting reconcile worker",
		"interval", r.interval, "min_age", r.minAge, "batch_size", r.batchSize)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping reconcile worker")
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

// RunOnce executes a single sweep cycle.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.run(ctx)
}

func (r *Reconciler) run(ctx context.Context) {
	stuck, err := r.store.FindStuckProcessing(ctx, r.now().Add(-r.minAge), r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch stuck attempts", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("reconciling stuck attempts", "count", len(stuck))

	for _, attempt := range stuck {
		r.reconcile(ctx, attempt)
	}
}

func (r *Reconciler) reconcile(ctx context.Context, attempt *domain.PaymentAttempt) {
	logger := r.logger.With(
		"attempt_id", attempt.ID,
		"checkout_request_id", attempt.CheckoutRequestID,
	)

	result, err := r.stk.StkQuery(ctx, attempt.CheckoutRequestID)
	if err != nil {
		if apiErr, ok := daraja.IsAPIError(err); ok && apiErr.Code == stillProcessingErrorCode {
			logger.Debug("provider still processing")
			return
		}
		logger.Error("status query failed", "error", err)
		return
	}

	// an empty result code also means the prompt is still open
	if result.ResultCode == "" {
		return
	}

	code, err := strconv.Atoi(result.ResultCode)
	if err != nil {
		logger.Error("unparseable result code from query", "result_code", result.ResultCode)
		return
	}

	if code == 0 {
		// The confirmation alone carries the receipt; settling success here
		// would grant an entitlement with no receipt behind it.
		logger.Warn("provider reports success but no confirmation has landed, leaving for the callback")
		return
	}
	if pendingQueryCodes[code] {
		return
	}

	// Failure verdicts ride the confirmation path so duplicate and race
	// handling stay in one place.
	cb := daraja.StkCallback{
		MerchantRequestID: attempt.MerchantRequestID,
		CheckoutRequestID: attempt.CheckoutRequestID,
		ResultCode:        code,
		ResultDesc:        result.ResultDescription,
	}
	raw, err := json.Marshal(daraja.CallbackEnvelope{Body: daraja.CallbackBody{StkCallback: cb}})
	if err != nil {
		logger.Error("encoding query verdict failed", "error", err)
		return
	}

	r.callbacks.Process(ctx, cb, raw)
}
