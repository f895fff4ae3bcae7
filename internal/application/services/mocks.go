package services

import (
	"context"
	"sync"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
)

// MockAttemptStore is a map-backed store. Behavior can be overridden per
// method through the Fn fields.
type MockAttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*domain.PaymentAttempt
	calls    map[string]int

	CreateFn                 func(ctx context.Context, attempt *domain.PaymentAttempt) error
	FindByCheckoutIDFn       func(ctx context.Context, checkoutRequestID string) (*domain.PaymentAttempt, error)
	FindByCorrelationFn      func(ctx context.Context, merchantRequestID, checkoutRequestID string) (*domain.PaymentAttempt, error)
	FinalizeFn               func(ctx context.Context, update application.TerminalUpdate) (bool, error)
	LatestCompletedByPhoneFn func(ctx context.Context, phoneNumber string) (*domain.PaymentAttempt, error)
	FindStuckProcessingFn    func(ctx context.Context, olderThan time.Time, limit int) ([]*domain.PaymentAttempt, error)
	ListFn                   func(ctx context.Context, filter application.ListFilter) ([]*domain.PaymentAttempt, error)
}

func NewMockAttemptStore() *MockAttemptStore {
	return &MockAttemptStore{
		attempts: make(map[string]*domain.PaymentAttempt),
		calls:    make(map[string]int),
	}
}

func (m *MockAttemptStore) inc(method string) {
	m.calls[method]++
}

// snapshot copies an attempt so callers never hold a pointer the next
// Finalize mutates, same as a row scan would behave.
func snapshot(a *domain.PaymentAttempt) *domain.PaymentAttempt {
	cp := *a
	return &cp
}

func (m *MockAttemptStore) GetCalls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// Get returns the stored attempt by checkout request ID, for assertions.
func (m *MockAttemptStore) Get(checkoutRequestID string) *domain.PaymentAttempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[checkoutRequestID]
	if !ok {
		return nil
	}
	return snapshot(a)
}

func (m *MockAttemptStore) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inc("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, attempt)
	}
	m.attempts[attempt.CheckoutRequestID] = attempt
	return nil
}

func (m *MockAttemptStore) FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByCheckoutIDFn != nil {
		return m.FindByCheckoutIDFn(ctx, checkoutRequestID)
	}
	if a, ok := m.attempts[checkoutRequestID]; ok {
		return snapshot(a), nil
	}
	return nil, application.ErrAttemptNotFound
}

func (m *MockAttemptStore) FindByCorrelation(ctx context.Context, merchantRequestID, checkoutRequestID string) (*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindByCorrelationFn != nil {
		return m.FindByCorrelationFn(ctx, merchantRequestID, checkoutRequestID)
	}
	if a, ok := m.attempts[checkoutRequestID]; ok {
		return snapshot(a), nil
	}
	for _, a := range m.attempts {
		if a.MerchantRequestID == merchantRequestID {
			return snapshot(a), nil
		}
	}
	return nil, application.ErrAttemptNotFound
}

func (m *MockAttemptStore) Finalize(ctx context.Context, update application.TerminalUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inc("Finalize")
	if m.FinalizeFn != nil {
		return m.FinalizeFn(ctx, update)
	}
	a, ok := m.attempts[update.CheckoutRequestID]
	if !ok || a.IsTerminal() {
		return false, nil
	}
	a.Status = update.Status
	a.ResultCode = &update.ResultCode
	a.ResultDescription = &update.ResultDescription
	a.ReceiptNumber = update.ReceiptNumber
	a.TransactionTime = update.TransactionTime
	a.ExpiresAt = update.ExpiresAt
	a.RawCallback = update.RawCallback
	a.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockAttemptStore) LatestCompletedByPhone(ctx context.Context, phoneNumber string) (*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LatestCompletedByPhoneFn != nil {
		return m.LatestCompletedByPhoneFn(ctx, phoneNumber)
	}
	var latest *domain.PaymentAttempt
	for _, a := range m.attempts {
		if a.PhoneNumber != phoneNumber || a.Status != domain.StatusCompleted {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, application.ErrAttemptNotFound
	}
	return snapshot(latest), nil
}

func (m *MockAttemptStore) FindStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindStuckProcessingFn != nil {
		return m.FindStuckProcessingFn(ctx, olderThan, limit)
	}
	var stuck []*domain.PaymentAttempt
	for _, a := range m.attempts {
		if a.IsTerminal() || !a.CreatedAt.Before(olderThan) {
			continue
		}
		stuck = append(stuck, snapshot(a))
		if len(stuck) == limit {
			break
		}
	}
	return stuck, nil
}

func (m *MockAttemptStore) List(ctx context.Context, filter application.ListFilter) ([]*domain.PaymentAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	var out []*domain.PaymentAttempt
	for _, a := range m.attempts {
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		if filter.Phone != "" && a.PhoneNumber != filter.Phone {
			continue
		}
		out = append(out, snapshot(a))
	}
	return out, nil
}

// MockStkClient answers provider calls with canned acceptances. Override the
// Fn fields to simulate rejections and outages.
type MockStkClient struct {
	mu    sync.Mutex
	calls map[string]int

	AuthenticateFn func(ctx context.Context) (string, error)
	StkPushFn      func(ctx context.Context, req application.StkPushRequest) (*application.StkPushResult, error)
	StkQueryFn     func(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error)
}

func NewMockStkClient() *MockStkClient {
	return &MockStkClient{
		calls: make(map[string]int),
	}
}

func (m *MockStkClient) inc(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

func (m *MockStkClient) GetCalls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockStkClient) Authenticate(ctx context.Context) (string, error) {
	m.inc("Authenticate")
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx)
	}
	return "test-token", nil
}

func (m *MockStkClient) StkPush(ctx context.Context, req application.StkPushRequest) (*application.StkPushResult, error) {
	m.inc("StkPush")
	if m.StkPushFn != nil {
		return m.StkPushFn(ctx, req)
	}
	return &application.StkPushResult{
		MerchantRequestID:   "29115-34620561-1",
		CheckoutRequestID:   "ws_CO_191220191020363925",
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     "Success. Request accepted for processing",
	}, nil
}

func (m *MockStkClient) StkQuery(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
	m.inc("StkQuery")
	if m.StkQueryFn != nil {
		return m.StkQueryFn(ctx, checkoutRequestID)
	}
	return &application.StkQueryResult{
		CheckoutRequestID: checkoutRequestID,
		ResponseCode:      "0",
		ResultCode:        "0",
		ResultDescription: "The service request is processed successfully.",
	}, nil
}
