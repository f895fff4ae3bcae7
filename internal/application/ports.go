package application

import (
	"context"
	"errors"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// ErrAttemptNotFound is returned by AttemptStore lookups when no row matches.
var ErrAttemptNotFound = errors.New("payment attempt not found")

// StkPushRequest is what a push needs from the caller; shortcode, password
// and callback URL are the client's own concern.
type StkPushRequest struct {
	Amount           int64
	PhoneNumber      string
	AccountReference string
	Description      string
}

// StkPushResult is the provider's synchronous answer to a push request.
type StkPushResult struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseCode        string
	ResponseDescription string
	CustomerMessage     string
}

// StkQueryResult is the provider's answer to a push status query. ResultCode
// arrives as a string here, unlike the numeric code in callbacks.
type StkQueryResult struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseCode        string
	ResponseDescription string
	ResultCode          string
	ResultDescription   string
}

// StkClient is the port for the payment provider.
type StkClient interface {
	// Authenticate obtains (or reuses) a bearer token. Initiation calls it
	// explicitly so credential failures surface before a push is attempted.
	Authenticate(ctx context.Context) (string, error)
	StkPush(ctx context.Context, req StkPushRequest) (*StkPushResult, error)
	StkQuery(ctx context.Context, checkoutRequestID string) (*StkQueryResult, error)
}

// TerminalUpdate describes the single write that settles an attempt. Receipt,
// transaction time and expiry are present only when Status is COMPLETED.
type TerminalUpdate struct {
	CheckoutRequestID string
	Status            domain.AttemptStatus
	ResultCode        int
	ResultDescription string
	ReceiptNumber     *string
	TransactionTime   *time.Time
	ExpiresAt         *time.Time
	RawCallback       []byte
}

// ListFilter narrows the admin listing. Zero values mean "no filter";
// Limit is capped by the store.
type ListFilter struct {
	Status string
	Phone  string
	Limit  int
	Offset int
}

// AttemptStore is the port for attempt persistence.
type AttemptStore interface {
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error

	FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.PaymentAttempt, error)

	// FindByCorrelation looks up by checkout request ID first and falls back
	// to the merchant request ID.
	FindByCorrelation(ctx context.Context, merchantRequestID, checkoutRequestID string) (*domain.PaymentAttempt, error)

	// Finalize applies a terminal update as one atomic conditional write,
	// guarded on the attempt still being non-terminal. It reports false when
	// the guard did not match (already terminal, or no such attempt); that
	// outcome is not an error.
	Finalize(ctx context.Context, update TerminalUpdate) (bool, error)

	LatestCompletedByPhone(ctx context.Context, phoneNumber string) (*domain.PaymentAttempt, error)

	// FindStuckProcessing returns non-terminal attempts created before the
	// cutoff, oldest first.
	FindStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.PaymentAttempt, error)

	List(ctx context.Context, filter ListFilter) ([]*domain.PaymentAttempt, error)
}
