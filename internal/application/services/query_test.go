package services

import (
	"context"
	"testing"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/application"
)

func TestQueryService_ListAttempts_FiltersByStatusAndPhone(t *testing.T) {
	// Setup
	mockStore := NewMockAttemptStore()
	seedCompletedAttempt(t, mockStore, "254712345678", "3-Hour Unlimited",
		fixedNow.Add(-time.Hour), fixedNow.Add(2*time.Hour))
	seedCompletedAttempt(t, mockStore, "254798765432", "1-Hour 2Mbps",
		fixedNow.Add(-time.Hour), fixedNow)
	service := NewQueryService(mockStore)

	// Action: phone arrives in local format and must be normalized first
	attempts, err := service.ListAttempts(context.Background(), application.ListFilter{
		Status: "COMPLETED",
		Phone:  "0712345678",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].PhoneNumber != "254712345678" {
		t.Errorf("expected the matching phone, got %s", attempts[0].PhoneNumber)
	}
}

func TestQueryService_ListAttempts_UnknownStatus(t *testing.T) {
	// Setup
	mockStore := NewMockAttemptStore()
	service := NewQueryService(mockStore)

	// Action
	_, err := service.ListAttempts(context.Background(), application.ListFilter{Status: "SETTLED"})

	// Assert
	svcErr, ok := application.IsServiceError(err)
	if !ok {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Code != application.ErrCodeInvalidRequest {
		t.Errorf("expected code %s, got %s", application.ErrCodeInvalidRequest, svcErr.Code)
	}
}
