package services

import (
	"encoding/json"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// InitiateCommand carries the portal's payment request. Amount stays a
// json.Number until validated: the provider accepts whole shillings only,
// so fractional input is rejected rather than rounded.
type InitiateCommand struct {
	Amount          json.Number `validate:"required"`
	PhoneNumber     string      `validate:"required"`
	PlanDescription string      `validate:"required"`
}

// InitiateResult is returned to the portal so it can poll for completion.
type InitiateResult struct {
	AttemptID         string
	MerchantRequestID string
	CheckoutRequestID string
	CustomerMessage   string
}

type AttemptStatusResult struct {
	Status  domain.AttemptStatus
	Message string
}

// Entitlement is the answer handed to the access gateway: whether the phone
// number currently holds an unexpired completed payment, and the session
// parameters if so.
type Entitlement struct {
	Paid            bool
	Reason          string
	PhoneNumber     string
	PlanDescription string
	BandwidthClass  string
	ExpiresAt       *time.Time
	ReceiptNumber   string
}
