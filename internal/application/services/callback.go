package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
	"github.com/mtandao-labs/hotspotpay/internal/metrics"
)

const (
	transactionDateLayout = "20060102150405"

	// budget for one detached confirmation, store round-trips included
	processTimeout = 30 * time.Second
)

// CallbackService settles payment attempts from provider confirmations.
// The webhook handler acknowledges the provider first (Phase A) and hands
// the payload here; processing (Phase B) runs detached from the request.
type CallbackService struct {
	store  application.AttemptStore
	logger *slog.Logger

	wg  sync.WaitGroup
	now func() time.Time
}

func NewCallbackService(store application.AttemptStore, logger *slog.Logger) *CallbackService {
	return &CallbackService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Dispatch schedules processing of an acknowledged confirmation and returns
// immediately. The request context dies with the response, so the task gets
// its own deadline.
func (s *CallbackService) Dispatch(cb daraja.StkCallback, raw []byte) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		s.Process(ctx, cb, raw)
	}()
}

// Drain blocks until every dispatched confirmation has finished processing.
// Called on shutdown after the listener stops accepting requests.
func (s *CallbackService) Drain() {
	s.wg.Wait()
}

// Process applies one confirmation to the store. Every failure here is logged
// and swallowed: the provider was already acknowledged and there is no caller
// left to report to.
func (s *CallbackService) Process(ctx context.Context, cb daraja.StkCallback, raw []byte) {
	logger := s.logger.With(
		"checkout_request_id", cb.CheckoutRequestID,
		"merchant_request_id", cb.MerchantRequestID,
		"result_code", cb.ResultCode,
	)

	attempt, err := s.store.FindByCorrelation(ctx, cb.MerchantRequestID, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, application.ErrAttemptNotFound) {
			// never create an entitlement from an unsolicited confirmation
			logger.Warn("confirmation has no matching attempt, discarded")
			metrics.RecordCallbackProcessed(metrics.CallbackUnmatched)
			return
		}
		logger.Error("correlation lookup failed", "error", err)
		metrics.RecordCallbackProcessed(metrics.CallbackError)
		return
	}

	if attempt.IsTerminal() {
		logger.Info("confirmation for settled attempt discarded", "status", string(attempt.Status))
		metrics.RecordCallbackProcessed(metrics.CallbackDuplicate)
		return
	}

	update, err := s.buildUpdate(logger, attempt, cb, raw)
	if err != nil {
		logger.Error("confirmation metadata unusable", "error", err)
		metrics.RecordCallbackProcessed(metrics.CallbackError)
		return
	}

	// the lookup above is advisory only; Finalize re-asserts the non-terminal
	// precondition atomically against concurrent deliveries
	applied, err := s.store.Finalize(ctx, *update)
	if err != nil {
		logger.Error("finalize failed", "error", err)
		metrics.RecordCallbackProcessed(metrics.CallbackError)
		return
	}
	if !applied {
		logger.Info("attempt settled by a concurrent confirmation, discarded")
		metrics.RecordCallbackProcessed(metrics.CallbackDuplicate)
		return
	}

	logger.Info("attempt settled", "status", string(update.Status))
	metrics.RecordCallbackProcessed(strings.ToLower(string(update.Status)))
}

// buildUpdate maps a confirmation onto the terminal write. A success carries
// the receipt, the provider-reported transaction time, and the entitlement
// expiry computed from the plan purchased at initiation.
func (s *CallbackService) buildUpdate(logger *slog.Logger, attempt *domain.PaymentAttempt, cb daraja.StkCallback, raw []byte) (*application.TerminalUpdate, error) {
	update := &application.TerminalUpdate{
		CheckoutRequestID: attempt.CheckoutRequestID,
		Status:            domain.TerminalStatusForResultCode(cb.ResultCode),
		ResultCode:        cb.ResultCode,
		ResultDescription: cb.ResultDesc,
		RawCallback:       raw,
	}
	if update.Status != domain.StatusCompleted {
		return update, nil
	}

	receipt, ok := cb.MetadataString("MpesaReceiptNumber")
	if !ok {
		return nil, errors.New("success confirmation carries no MpesaReceiptNumber")
	}

	if amount, ok := cb.MetadataInt64("Amount"); ok && amount != attempt.Amount {
		logger.Warn("confirmed amount differs from initiated amount",
			"initiated", attempt.Amount, "confirmed", amount)
	}

	now := s.now()
	transactionTime := now.UTC()
	if ts, ok := cb.MetadataString("TransactionDate"); ok {
		parsed, err := time.Parse(transactionDateLayout, ts)
		if err != nil {
			logger.Warn("unparseable TransactionDate, falling back to arrival time", "value", ts)
		} else {
			transactionTime = parsed
		}
	}

	expiresAt := now.Add(domain.PlanDuration(attempt.PlanDescription))

	update.ReceiptNumber = &receipt
	update.TransactionTime = &transactionTime
	update.ExpiresAt = &expiresAt
	return update, nil
}
