package services

import (
	"context"
	"fmt"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// QueryService serves the administrator listing.
type QueryService struct {
	store application.AttemptStore
}

func NewQueryService(store application.AttemptStore) *QueryService {
	return &QueryService{
		store: store,
	}
}

func (s *QueryService) ListAttempts(ctx context.Context, filter application.ListFilter) ([]*domain.PaymentAttempt, error) {
	if filter.Status != "" && !validStatus(domain.AttemptStatus(filter.Status)) {
		return nil, application.NewInvalidRequestError(fmt.Sprintf("unknown status %q", filter.Status), nil)
	}

	if filter.Phone != "" {
		phone, err := domain.NormalizeMSISDN(filter.Phone)
		if err != nil {
			return nil, application.NewInvalidRequestError(err.Error(), err)
		}
		filter.Phone = phone
	}

	attempts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return attempts, nil
}

func validStatus(status domain.AttemptStatus) bool {
	switch status {
	case domain.StatusPending, domain.StatusProcessing, domain.StatusCompleted,
		domain.StatusFailed, domain.StatusCancelled, domain.StatusTimeout:
		return true
	default:
		return false
	}
}
