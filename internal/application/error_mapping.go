package application

import (
	"errors"
	"net/http"

	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// ToHTTPStatus maps an error to the status code the REST boundary answers
// with. ServiceError carries its own status; domain errors map by code;
// anything unrecognized is a 500.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		switch domErr.Code {
		case domain.ErrCodeInvalidPhoneNumber,
			domain.ErrCodeInvalidAmount,
			domain.ErrCodeMissingRequiredField:
			return http.StatusBadRequest
		case domain.ErrCodeInvalidTransition:
			return http.StatusConflict
		case domain.ErrCodeAttemptNotFound:
			return http.StatusNotFound
		}
	}

	if errors.Is(err, ErrAttemptNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

// ToErrorCode maps an error to the machine-readable code in the error
// envelope.
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		return domErr.Code
	}

	if errors.Is(err, ErrAttemptNotFound) {
		return domain.ErrCodeAttemptNotFound
	}

	return ErrCodeInternal
}
