package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
	"github.com/mtandao-labs/hotspotpay/internal/metrics"
)

type InitiateService struct {
	store            application.AttemptStore
	stk              application.StkClient
	accountReference string
	logger           *slog.Logger
	validate         *validator.Validate
}

func NewInitiateService(
	store application.AttemptStore,
	stk application.StkClient,
	accountReference string,
	logger *slog.Logger,
) *InitiateService {
	return &InitiateService{
		store:            store,
		stk:              stk,
		accountReference: accountReference,
		logger:           logger,
		validate:         validator.New(),
	}
}

// Initiate validates the request, submits an STK push to the provider, and
// records the accepted attempt keyed by the provider's correlation IDs. The
// caller only ever sees success when the provider itself accepted the push;
// a persistence failure after acceptance is logged and absorbed, since the
// confirmation arrives on the webhook path regardless.
func (s *InitiateService) Initiate(ctx context.Context, cmd InitiateCommand) (*InitiateResult, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, application.NewInvalidRequestError("amount, phone and planDescription are required", err)
	}

	amount, err := parseAmount(cmd.Amount)
	if err != nil {
		return nil, application.NewInvalidRequestError(err.Error(), err)
	}

	phone, err := domain.NormalizeMSISDN(cmd.PhoneNumber)
	if err != nil {
		return nil, application.NewInvalidRequestError(err.Error(), err)
	}

	plan := strings.TrimSpace(cmd.PlanDescription)
	if plan == "" {
		return nil, application.NewInvalidRequestError("planDescription is required", nil)
	}

	if _, err := s.stk.Authenticate(ctx); err != nil {
		s.logger.Error("provider authentication failed", "error", err)
		metrics.RecordStkPush(metrics.PushAuthFailure)
		return nil, application.NewUpstreamAuthFailureError(err)
	}

	push, err := s.stk.StkPush(ctx, application.StkPushRequest{
		Amount:           amount,
		PhoneNumber:      phone,
		AccountReference: s.accountReference,
		Description:      plan,
	})
	if err != nil {
		if apiErr, ok := daraja.IsAPIError(err); ok {
			s.logger.Warn("provider rejected push",
				"provider_code", apiErr.Code,
				"provider_message", apiErr.Message,
				"phone_number", phone)
			metrics.RecordStkPush(metrics.PushRejected)
			return nil, application.NewPaymentRejectedError(apiErr.Message, err)
		}
		metrics.RecordStkPush(metrics.PushError)
		return nil, application.NewInternalError(err)
	}
	metrics.RecordStkPush(metrics.PushAccepted)

	attempt, err := domain.NewPaymentAttempt(
		uuid.New().String(), phone, amount, plan,
		push.MerchantRequestID, push.CheckoutRequestID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if err := s.store.Create(ctx, attempt); err != nil {
		s.logger.Error("accepted attempt could not be persisted; its confirmation will find no record",
			"error", err,
			"checkout_request_id", push.CheckoutRequestID,
			"merchant_request_id", push.MerchantRequestID)
	} else {
		s.logger.Info("push accepted",
			"attempt_id", attempt.ID,
			"checkout_request_id", push.CheckoutRequestID,
			"phone_number", phone,
			"amount", amount)
	}

	return &InitiateResult{
		AttemptID:         attempt.ID,
		MerchantRequestID: push.MerchantRequestID,
		CheckoutRequestID: push.CheckoutRequestID,
		CustomerMessage:   push.CustomerMessage,
	}, nil
}

// parseAmount coerces the request amount into whole shillings. The provider
// takes integral units only, so anything fractional is rejected outright.
func parseAmount(raw json.Number) (int64, error) {
	s := raw.String()
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := raw.Int64()
	if err != nil {
		return 0, fmt.Errorf("amount must be a whole number of shillings, got %q", s)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %d", amount)
	}
	return amount, nil
}
