package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/application/services"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// DefaultInitiateCommand returns a valid payment request for testing
func DefaultInitiateCommand() services.InitiateCommand {
	return services.InitiateCommand{
		Amount:          "20",
		PhoneNumber:     "254712345678",
		PlanDescription: "3-Hour Unlimited",
	}
}

// CreateProcessingAttempt stores a fresh open attempt with unique
// correlation IDs, as if a push had just been accepted.
func CreateProcessingAttempt(
	t *testing.T,
	ctx context.Context,
	store application.AttemptStore,
	phone string,
) *domain.PaymentAttempt {
	attempt, err := domain.NewPaymentAttempt(
		uuid.New().String(),
		phone,
		20,
		"3-Hour Unlimited",
		"mr-"+uuid.New().String(),
		"ws_CO_"+uuid.New().String(),
	)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, attempt))

	return attempt
}

// CreateCompletedAttempt stores an attempt already settled as COMPLETED,
// created at the given time with the given entitlement expiry.
func CreateCompletedAttempt(
	t *testing.T,
	ctx context.Context,
	store application.AttemptStore,
	phone, plan string,
	createdAt, expiresAt time.Time,
) *domain.PaymentAttempt {
	code := 0
	desc := "The service request is processed successfully."
	receipt := "NLJ" + uuid.New().String()[:8]
	txTime := createdAt

	attempt := domain.Reconstitute(
		uuid.New().String(),
		"mr-"+uuid.New().String(),
		"ws_CO_"+uuid.New().String(),
		phone,
		20,
		plan,
		domain.StatusCompleted,
		&code, &desc, &receipt,
		&txTime, &expiresAt,
		[]byte(`{"Body":{"stkCallback":{"ResultCode":0}}}`),
		createdAt, createdAt,
	)
	require.NoError(t, store.Create(ctx, attempt))

	return attempt
}
