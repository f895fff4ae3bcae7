package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/application/services"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
)

func newReconciler(store *services.MockAttemptStore, stk *services.MockStkClient) *Reconciler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	callbacks := services.NewCallbackService(store, logger)
	return NewReconciler(store, stk, callbacks, time.Second, 2*time.Minute, 10, logger)
}

// seedStuckAttempt records a PROCESSING attempt old enough for the sweep.
func seedStuckAttempt(t *testing.T, store *services.MockAttemptStore, checkoutRequestID string) *domain.PaymentAttempt {
	t.Helper()
	attempt := domain.Reconstitute(
		uuid.New().String(), "mr-"+checkoutRequestID, checkoutRequestID,
		"254712345678", 20, "3-Hour Unlimited",
		domain.StatusProcessing,
		nil, nil, nil, nil, nil, nil,
		time.Now().Add(-10*time.Minute), time.Now().Add(-10*time.Minute))
	if err := store.Create(context.Background(), attempt); err != nil {
		t.Fatalf("seeding attempt: %v", err)
	}
	return attempt
}

func TestReconciler_SettlesCancelledAttempt(t *testing.T) {
	// Setup
	store := services.NewMockAttemptStore()
	stk := services.NewMockStkClient()
	stk.StkQueryFn = func(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
		return &application.StkQueryResult{
			CheckoutRequestID: checkoutRequestID,
			ResponseCode:      "0",
			ResultCode:        "1032",
			ResultDescription: "Request cancelled by user",
		}, nil
	}
	attempt := seedStuckAttempt(t, store, "ws_CO_stuck_cancel")
	reconciler := newReconciler(store, stk)

	// Action
	reconciler.RunOnce(context.Background())

	// Assert
	settled := store.Get(attempt.CheckoutRequestID)
	if settled.Status != domain.StatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", settled.Status)
	}
	if settled.ResultCode == nil || *settled.ResultCode != 1032 {
		t.Errorf("expected the provider's result code to be recorded")
	}
	if settled.ReceiptNumber != nil || settled.ExpiresAt != nil {
		t.Errorf("expected no receipt or expiry on a failure verdict")
	}
	if len(settled.RawCallback) == 0 {
		t.Errorf("expected the query verdict to be retained for audit")
	}
}

func TestReconciler_SettlesTimedOutAttempt(t *testing.T) {
	// Setup
	store := services.NewMockAttemptStore()
	stk := services.NewMockStkClient()
	stk.StkQueryFn = func(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
		return &application.StkQueryResult{
			CheckoutRequestID: checkoutRequestID,
			ResultCode:        "1037",
			ResultDescription: "DS timeout user cannot be reached",
		}, nil
	}
	attempt := seedStuckAttempt(t, store, "ws_CO_stuck_timeout")
	reconciler := newReconciler(store, stk)

	// Action
	reconciler.RunOnce(context.Background())

	// Assert
	if settled := store.Get(attempt.CheckoutRequestID); settled.Status != domain.StatusTimeout {
		t.Errorf("expected status TIMEOUT, got %s", settled.Status)
	}
}

func TestReconciler_LeavesSuccessForCallback(t *testing.T) {
	// Setup
	store := services.NewMockAttemptStore()
	stk := services.NewMockStkClient()
	stk.StkQueryFn = func(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
		return &application.StkQueryResult{
			CheckoutRequestID: checkoutRequestID,
			ResultCode:        "0",
			ResultDescription: "The service request is processed successfully.",
		}, nil
	}
	attempt := seedStuckAttempt(t, store, "ws_CO_stuck_paid")
	reconciler := newReconciler(store, stk)

	// Action
	reconciler.RunOnce(context.Background())

	// Assert: only the confirmation carries the receipt, so the sweep must
	// not settle a success.
	if got := store.Get(attempt.CheckoutRequestID); got.Status != domain.StatusProcessing {
		t.Errorf("expected attempt left PROCESSING, got %s", got.Status)
	}
	if store.GetCalls("Finalize") != 0 {
		t.Errorf("expected no finalize for a success verdict")
	}
}

func TestReconciler_LeavesInFlightAlone(t *testing.T) {
	// Setup
	store := services.NewMockAttemptStore()
	stk := services.NewMockStkClient()
	stk.StkQueryFn = func(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
		return nil, &daraja.APIError{
			Code:       "500.001.1001",
			Message:    "The transaction is being processed",
			StatusCode: 500,
		}
	}
	attempt := seedStuckAttempt(t, store, "ws_CO_in_flight")
	reconciler := newReconciler(store, stk)

	// Action
	reconciler.RunOnce(context.Background())

	// Assert
	if got := store.Get(attempt.CheckoutRequestID); got.Status != domain.StatusProcessing {
		t.Errorf("expected attempt left PROCESSING, got %s", got.Status)
	}
	if stk.GetCalls("StkQuery") != 1 {
		t.Errorf("expected exactly one query, got %d", stk.GetCalls("StkQuery"))
	}
}

func TestReconciler_QueryFailureKeepsAttempt(t *testing.T) {
	// Setup
	store := services.NewMockAttemptStore()
	stk := services.NewMockStkClient()
	stk.StkQueryFn = func(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	attempt := seedStuckAttempt(t, store, "ws_CO_query_down")
	reconciler := newReconciler(store, stk)

	// Action
	reconciler.RunOnce(context.Background())

	// Assert
	if got := store.Get(attempt.CheckoutRequestID); got.Status != domain.StatusProcessing {
		t.Errorf("expected attempt left PROCESSING, got %s", got.Status)
	}
}

func TestReconciler_FreshAttemptsNotSwept(t *testing.T) {
	// Setup
	store := services.NewMockAttemptStore()
	stk := services.NewMockStkClient()
	attempt, err := domain.NewPaymentAttempt(
		uuid.New().String(), "254712345678", 20, "3-Hour Unlimited",
		"mr-fresh", "ws_CO_fresh")
	if err != nil {
		t.Fatalf("building attempt: %v", err)
	}
	if err := store.Create(context.Background(), attempt); err != nil {
		t.Fatalf("seeding attempt: %v", err)
	}
	reconciler := newReconciler(store, stk)

	// Action
	reconciler.RunOnce(context.Background())

	// Assert: the attempt is younger than min_age, the provider must not be
	// bothered about it yet.
	if stk.GetCalls("StkQuery") != 0 {
		t.Errorf("expected no query for a fresh attempt, got %d", stk.GetCalls("StkQuery"))
	}
}

func TestReconciler_SweepIsBounded(t *testing.T) {
	// Setup
	store := services.NewMockAttemptStore()
	stk := services.NewMockStkClient()
	stk.StkQueryFn = func(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
		return &application.StkQueryResult{
			CheckoutRequestID: checkoutRequestID,
			ResultCode:        "1037",
			ResultDescription: "DS timeout user cannot be reached",
		}, nil
	}
	for i := 0; i < 5; i++ {
		seedStuckAttempt(t, store, "ws_CO_batch_"+uuid.New().String())
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	callbacks := services.NewCallbackService(store, logger)
	reconciler := NewReconciler(store, stk, callbacks, time.Second, 2*time.Minute, 3, logger)

	// Action
	reconciler.RunOnce(context.Background())

	// Assert
	if got := stk.GetCalls("StkQuery"); got != 3 {
		t.Errorf("expected the sweep capped at batch size 3, got %d queries", got)
	}
}
