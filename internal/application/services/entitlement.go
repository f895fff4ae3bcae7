package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// EntitlementService answers the two read paths: the portal polling an
// attempt by its checkout ID, and the access gateway asking whether a phone
// number has paid.
type EntitlementService struct {
	store  application.AttemptStore
	logger *slog.Logger
	now    func() time.Time
}

func NewEntitlementService(store application.AttemptStore, logger *slog.Logger) *EntitlementService {
	return &EntitlementService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetAttemptStatus reports where an attempt stands. An unknown checkout ID is
// not an error: the initiation write or the confirmation may simply not have
// landed yet, so the caller is told to keep polling.
func (s *EntitlementService) GetAttemptStatus(ctx context.Context, checkoutRequestID string) (*AttemptStatusResult, error) {
	if strings.TrimSpace(checkoutRequestID) == "" {
		return nil, application.NewInvalidRequestError("checkout request ID is required", nil)
	}

	attempt, err := s.store.FindByCheckoutID(ctx, checkoutRequestID)
	if err != nil {
		if errors.Is(err, application.ErrAttemptNotFound) {
			return &AttemptStatusResult{
				Status:  domain.StatusProcessing,
				Message: statusMessage(domain.StatusProcessing),
			}, nil
		}
		return nil, application.NewInternalError(err)
	}

	return &AttemptStatusResult{
		Status:  attempt.Status,
		Message: statusMessage(attempt.Status),
	}, nil
}

// CheckEntitlement decides whether a phone number currently holds network
// access. Only the most recent completed attempt counts: a fresh purchase
// supersedes older ones, entitlements are never summed.
func (s *EntitlementService) CheckEntitlement(ctx context.Context, rawPhone string) (*Entitlement, error) {
	phone, err := domain.NormalizeMSISDN(rawPhone)
	if err != nil {
		return nil, application.NewInvalidRequestError(err.Error(), err)
	}

	attempt, err := s.store.LatestCompletedByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, application.ErrAttemptNotFound) {
			return &Entitlement{Paid: false, PhoneNumber: phone}, nil
		}
		return nil, application.NewInternalError(err)
	}

	if attempt.ExpiresAt == nil || !s.now().Before(*attempt.ExpiresAt) {
		return &Entitlement{Paid: false, Reason: "expired", PhoneNumber: phone}, nil
	}

	var receipt string
	if attempt.ReceiptNumber != nil {
		receipt = *attempt.ReceiptNumber
	}

	return &Entitlement{
		Paid:            true,
		PhoneNumber:     phone,
		PlanDescription: attempt.PlanDescription,
		BandwidthClass:  domain.BandwidthClass(attempt.PlanDescription),
		ExpiresAt:       attempt.ExpiresAt,
		ReceiptNumber:   receipt,
	}, nil
}

func statusMessage(status domain.AttemptStatus) string {
	switch status {
	case domain.StatusCompleted:
		return "payment successful, awaiting fulfillment"
	case domain.StatusFailed:
		return "payment failed"
	case domain.StatusCancelled:
		return "payment cancelled by user"
	case domain.StatusTimeout:
		return "payment request timed out"
	default:
		return "payment is being processed, awaiting confirmation"
	}
}
