package rest

import (
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// Attempt is the wire shape of a payment attempt in API responses.
type Attempt struct {
	ID                string     `json:"id"`
	MerchantRequestID string     `json:"merchantRequestId"`
	CheckoutRequestID string     `json:"checkoutRequestId"`
	PhoneNumber       string     `json:"phoneNumber"`
	Amount            int64      `json:"amount"`
	PlanDescription   string     `json:"planDescription"`
	Status            string     `json:"status"`
	ResultCode        *int       `json:"resultCode,omitempty"`
	ResultDescription *string    `json:"resultDescription,omitempty"`
	ReceiptNumber     *string    `json:"receiptNumber,omitempty"`
	TransactionTime   *time.Time `json:"transactionTime,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func ToAPIAttempt(a *domain.PaymentAttempt) Attempt {
	return Attempt{
		ID:                a.ID,
		MerchantRequestID: a.MerchantRequestID,
		CheckoutRequestID: a.CheckoutRequestID,
		PhoneNumber:       a.PhoneNumber,
		Amount:            a.Amount,
		PlanDescription:   a.PlanDescription,
		Status:            string(a.Status),
		ResultCode:        a.ResultCode,
		ResultDescription: a.ResultDescription,
		ReceiptNumber:     a.ReceiptNumber,
		TransactionTime:   a.TransactionTime,
		ExpiresAt:         a.ExpiresAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}
