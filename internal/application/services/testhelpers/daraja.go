package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/config"
)

// FakeDaraja is an in-process stand-in for the provider's API: credential
// issuance, STK push, and push status query. Scripted through its fields;
// it never delivers callbacks, tests POST those themselves.
type FakeDaraja struct {
	Server *httptest.Server

	mu         sync.Mutex
	pushCount  int
	rejectPush bool

	// answers for the status query endpoint
	queryResultCode string
	queryResultDesc string
}

func NewFakeDaraja() *FakeDaraja {
	f := &FakeDaraja{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/v1/generate", f.handleAuth)
	mux.HandleFunc("POST /mpesa/stkpush/v1/processrequest", f.handlePush)
	mux.HandleFunc("POST /mpesa/stkpushquery/v1/query", f.handleQuery)

	f.Server = httptest.NewServer(mux)
	return f
}

func (f *FakeDaraja) Close() {
	f.Server.Close()
}

// Config returns provider credentials pointed at the fake.
func (f *FakeDaraja) Config() config.DarajaConfig {
	return config.DarajaConfig{
		BaseURL:          f.Server.URL,
		ConsumerKey:      "test-consumer-key",
		ConsumerSecret:   "test-consumer-secret",
		ShortCode:        "174379",
		Passkey:          "test-passkey",
		CallbackURL:      "https://pay.example.test/api/v1/payments/callback",
		AccountReference: "HOTSPOT",
		ConnTimeout:      10 * time.Second,
	}
}

// RejectNextPushes makes the push endpoint answer with a ResponseCode "1"
// rejection until reset.
func (f *FakeDaraja) RejectNextPushes(reject bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectPush = reject
}

// ScriptQueryResult sets the verdict the status query endpoint reports.
func (f *FakeDaraja) ScriptQueryResult(resultCode, resultDesc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryResultCode = resultCode
	f.queryResultDesc = resultDesc
}

// PushCount reports how many pushes the fake accepted.
func (f *FakeDaraja) PushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushCount
}

func (f *FakeDaraja) handleAuth(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := r.BasicAuth(); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": "fake-token",
		"expires_in":   "3599",
	})
}

func (f *FakeDaraja) handlePush(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rejectPush {
		writeJSON(w, http.StatusOK, map[string]string{
			"ResponseCode":        "1",
			"ResponseDescription": "Insufficient funds in the utility account",
		})
		return
	}

	f.pushCount++
	writeJSON(w, http.StatusOK, map[string]string{
		"MerchantRequestID":   fmt.Sprintf("29115-34620561-%d", f.pushCount),
		"CheckoutRequestID":   fmt.Sprintf("ws_CO_19122019102036%04d", f.pushCount),
		"ResponseCode":        "0",
		"ResponseDescription": "Success. Request accepted for processing",
		"CustomerMessage":     "Success. Request accepted for processing",
	})
}

func (f *FakeDaraja) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queryResultCode == "" {
		// the provider reports in-flight prompts through the error envelope
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"requestId":    "fake-req-1",
			"errorCode":    "500.001.1001",
			"errorMessage": "The transaction is being processed",
		})
		return
	}

	checkoutRequestID, _ := req["CheckoutRequestID"].(string)
	writeJSON(w, http.StatusOK, map[string]string{
		"ResponseCode":        "0",
		"ResponseDescription": "The service request has been accepted successfully",
		"MerchantRequestID":   "29115-34620561-1",
		"CheckoutRequestID":   checkoutRequestID,
		"ResultCode":          f.queryResultCode,
		"ResultDesc":          f.queryResultDesc,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
