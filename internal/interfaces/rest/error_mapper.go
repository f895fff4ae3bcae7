package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mtandao-labs/hotspotpay/internal/application"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorMapper writes application errors as the error envelope. Internal
// causes go into details only outside production.
type ErrorMapper struct {
	logger         *slog.Logger
	includeDetails bool
}

func NewErrorMapper(env string, logger *slog.Logger) *ErrorMapper {
	return &ErrorMapper{
		logger:         logger,
		includeDetails: env != "production",
	}
}

// WriteError maps application errors to HTTP responses
func (em *ErrorMapper) WriteError(w http.ResponseWriter, err error) {
	statusCode := application.ToHTTPStatus(err)
	errorCode := application.ToErrorCode(err)

	message := err.Error()
	var details string
	if svcErr, ok := application.IsServiceError(err); ok {
		message = svcErr.Message
		if em.includeDetails && svcErr.Err != nil {
			details = svcErr.Err.Error()
		}
	}

	if statusCode >= http.StatusInternalServerError {
		em.logger.Error("request failed", "code", errorCode, "error", err)
	}

	WriteJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    errorCode,
			Message: message,
			Details: details,
		},
	})
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
