package postgres

import (
	"time"
)

// AttemptModel mirrors the payment_attempts table. Nullable columns are
// pointers; they stay NULL until a confirmation settles the attempt.
type AttemptModel struct {
	ID                string
	MerchantRequestID string
	CheckoutRequestID string
	PhoneNumber       string
	Amount            int64
	PlanDescription   string
	Status            string
	ResultCode        *int
	ResultDescription *string
	ReceiptNumber     *string
	TransactionTime   *time.Time
	ExpiresAt         *time.Time
	RawCallback       []byte
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
