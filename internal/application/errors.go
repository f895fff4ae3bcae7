package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeUpstreamAuthFailure = "UPSTREAM_AUTH_FAILURE"
	ErrCodePaymentRejected     = "PAYMENT_REJECTED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewUpstreamAuthFailureError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUpstreamAuthFailure,
		Message:    "Could not authenticate with the payment provider. Please try again shortly.",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewPaymentRejectedError forwards the provider's reason; the provider's
// messages are subscriber-safe ("Invalid PhoneNumber", "Insufficient funds").
func NewPaymentRejectedError(providerMessage string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodePaymentRejected,
		Message:    providerMessage,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
