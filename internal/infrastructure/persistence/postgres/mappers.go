package postgres

import (
	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// toDomainModel: maps db model to domain entity
func toDomainModel(m AttemptModel) *domain.PaymentAttempt {
	return domain.Reconstitute(
		m.ID,
		m.MerchantRequestID,
		m.CheckoutRequestID,
		m.PhoneNumber,
		m.Amount,
		m.PlanDescription,
		domain.AttemptStatus(m.Status),
		m.ResultCode,
		m.ResultDescription,
		m.ReceiptNumber,
		m.TransactionTime,
		m.ExpiresAt,
		m.RawCallback,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// toDBModel: maps domain entity to db model
func toDBModel(a *domain.PaymentAttempt) *AttemptModel {
	return &AttemptModel{
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
		RawCallback:       a.RawCallback,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}
