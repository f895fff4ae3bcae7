package daraja

import (
	"errors"
	"fmt"
)

// APIError is a provider-reported rejection: a non-2xx error envelope, or a
// 200 whose ResponseCode is not "0".
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

// errorResponse is the provider's error envelope on non-2xx answers.
type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daraja error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
