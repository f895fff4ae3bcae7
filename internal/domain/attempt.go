// Package domain encodes the payment attempt entity and the rules around it.
package domain

import (
	"slices"
	"time"
)

// AttemptStatus represents the current state of a payment attempt in its lifecycle
type AttemptStatus string

const (
	StatusPending    AttemptStatus = "PENDING"
	StatusProcessing AttemptStatus = "PROCESSING"
	StatusCompleted  AttemptStatus = "COMPLETED"
	StatusFailed     AttemptStatus = "FAILED"
	StatusCancelled  AttemptStatus = "CANCELLED"
	StatusTimeout    AttemptStatus = "TIMEOUT"
)

// Provider result codes with a dedicated terminal status.
const (
	ResultCodeSuccess         = 0
	ResultCodeCancelledByUser = 1032
	ResultCodeTimeout         = 1037
)

// TerminalStatusForResultCode maps a provider result code to the terminal
// status it settles the attempt into. Any unrecognized non-zero code is a
// plain failure.
func TerminalStatusForResultCode(code int) AttemptStatus {
	switch code {
	case ResultCodeSuccess:
		return StatusCompleted
	case ResultCodeCancelledByUser:
		return StatusCancelled
	case ResultCodeTimeout:
		return StatusTimeout
	default:
		return StatusFailed
	}
}

// PaymentAttempt is one STK push sent to a subscriber's handset, tracked from
// provider acceptance until the asynchronous confirmation settles it.
type PaymentAttempt struct {
	ID                string
	MerchantRequestID string
	CheckoutRequestID string

	PhoneNumber     string
	Amount          int64
	PlanDescription string

	Status            AttemptStatus
	ResultCode        *int
	ResultDescription *string

	ReceiptNumber   *string
	TransactionTime *time.Time
	ExpiresAt       *time.Time

	RawCallback []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPaymentAttempt(
	id string,
	phoneNumber string,
	amount int64,
	planDescription string,
	merchantRequestID string,
	checkoutRequestID string,
) (*PaymentAttempt, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("attempt ID")
	}
	if phoneNumber == "" {
		return nil, NewMissingRequiredFieldError("phone number")
	}
	if amount <= 0 {
		return nil, NewInvalidAmountError(amount)
	}
	if planDescription == "" {
		return nil, NewMissingRequiredFieldError("plan description")
	}
	if merchantRequestID == "" {
		return nil, NewMissingRequiredFieldError("merchant request ID")
	}
	if checkoutRequestID == "" {
		return nil, NewMissingRequiredFieldError("checkout request ID")
	}

	return &PaymentAttempt{
		ID:                id,
		MerchantRequestID: merchantRequestID,
		CheckoutRequestID: checkoutRequestID,
		PhoneNumber:       phoneNumber,
		Amount:            amount,
		PlanDescription:   planDescription,
		Status:            StatusProcessing,
		CreatedAt:         time.Now(),
	}, nil
}

// Complete settles the attempt as paid and records the provider's receipt,
// the provider-reported transaction instant, and the computed entitlement
// expiry. Receipt and expiry are only ever set on this path.
func (a *PaymentAttempt) Complete(receipt string, transactionTime, expiresAt time.Time, resultCode int, resultDesc string) error {
	if err := a.transition(StatusCompleted); err != nil {
		return err
	}
	a.ReceiptNumber = &receipt
	a.TransactionTime = &transactionTime
	a.ExpiresAt = &expiresAt
	a.setResult(resultCode, resultDesc)
	return nil
}

// Cancel settles the attempt as declined on the handset.
func (a *PaymentAttempt) Cancel(resultCode int, resultDesc string) error {
	if err := a.transition(StatusCancelled); err != nil {
		return err
	}
	a.setResult(resultCode, resultDesc)
	return nil
}

// MarkTimeout settles the attempt after the provider reported the prompt
// expired unanswered.
func (a *PaymentAttempt) MarkTimeout(resultCode int, resultDesc string) error {
	if err := a.transition(StatusTimeout); err != nil {
		return err
	}
	a.setResult(resultCode, resultDesc)
	return nil
}

// Fail settles the attempt for any other provider-reported failure.
func (a *PaymentAttempt) Fail(resultCode int, resultDesc string) error {
	if err := a.transition(StatusFailed); err != nil {
		return err
	}
	a.setResult(resultCode, resultDesc)
	return nil
}

func (a *PaymentAttempt) setResult(code int, desc string) {
	a.ResultCode = &code
	a.ResultDescription = &desc
}

func (a *PaymentAttempt) transition(target AttemptStatus) error {
	if err := a.canTransitionTo(target); err != nil {
		return err
	}
	a.Status = target
	return nil
}

// defines which statuses each status may move to
func (a *PaymentAttempt) canTransitionTo(target AttemptStatus) error {
	switch a.Status {
	case StatusPending:
		return a.allow(target, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout)
	case StatusProcessing:
		return a.allow(target, StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout)
	}
	return NewInvalidTransitionError(a.Status, target)
}

func (a *PaymentAttempt) allow(target AttemptStatus, allowed ...AttemptStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(a.Status, target)
}

// IsTerminal reports whether no further transition is permitted.
func (a *PaymentAttempt) IsTerminal() bool {
	switch a.Status {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	default:
		return false
	}
}

// Reconstitute - special constructor for loading from the store
func Reconstitute(
	id, merchantRequestID, checkoutRequestID string,
	phoneNumber string, amount int64, planDescription string,
	status AttemptStatus,
	resultCode *int, resultDescription *string,
	receiptNumber *string,
	transactionTime, expiresAt *time.Time,
	rawCallback []byte,
	createdAt, updatedAt time.Time,
) *PaymentAttempt {
	return &PaymentAttempt{
		ID:                id,
		MerchantRequestID: merchantRequestID,
		CheckoutRequestID: checkoutRequestID,
		PhoneNumber:       phoneNumber,
		Amount:            amount,
		PlanDescription:   planDescription,
		Status:            status,
		ResultCode:        resultCode,
		ResultDescription: resultDescription,
		ReceiptNumber:     receiptNumber,
		TransactionTime:   transactionTime,
		ExpiresAt:         expiresAt,
		RawCallback:       rawCallback,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}
