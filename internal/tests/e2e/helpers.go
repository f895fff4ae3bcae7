package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest/handlers"
)

// TestClient wraps HTTP calls to the service
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Initiate calls the payment initiation endpoint the way the portal does
func (c *TestClient) Initiate(t *testing.T, req handlers.InitiateRequest) (*handlers.InitiateResponse, error) {
	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest("POST", c.baseURL+"/api/v1/payments", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		var errResp rest.ErrorResponse
		json.Unmarshal(bodyBytes, &errResp)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error.Message)
	}

	var initResp handlers.InitiateResponse
	require.NoError(t, json.Unmarshal(bodyBytes, &initResp))
	return &initResp, nil
}

// DeliverCallback posts a confirmation envelope the way the provider does
// and returns the acknowledgement status code.
func (c *TestClient) DeliverCallback(t *testing.T, envelope daraja.CallbackEnvelope) int {
	body, _ := json.Marshal(envelope)
	return c.DeliverRawCallback(t, body)
}

func (c *TestClient) DeliverRawCallback(t *testing.T, body []byte) int {
	httpReq, _ := http.NewRequest("POST", c.baseURL+"/api/v1/payments/callback", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}

func (c *TestClient) GetStatus(t *testing.T, checkoutRequestID string) (*handlers.AttemptStatusResponse, error) {
	httpReq, _ := http.NewRequest("GET", c.baseURL+"/api/v1/payments/"+checkoutRequestID, nil)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		var errResp rest.ErrorResponse
		json.Unmarshal(bodyBytes, &errResp)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error.Message)
	}

	var statusResp handlers.AttemptStatusResponse
	require.NoError(t, json.Unmarshal(bodyBytes, &statusResp))
	return &statusResp, nil
}

// PollStatus polls the attempt the way the portal does until it reaches the
// wanted status. Confirmations settle detached from the webhook request, so
// even a locally delivered callback needs a polling window.
func (c *TestClient) PollStatus(t *testing.T, checkoutRequestID, want string, timeout time.Duration) *handlers.AttemptStatusResponse {
	deadline := time.Now().Add(timeout)

	for {
		statusResp, err := c.GetStatus(t, checkoutRequestID)
		require.NoError(t, err)

		if statusResp.Status == want {
			return statusResp
		}
		if time.Now().After(deadline) {
			t.Fatalf("attempt %s stuck at %s, wanted %s", checkoutRequestID, statusResp.Status, want)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (c *TestClient) CheckEntitlement(t *testing.T, phone string) (*handlers.EntitlementResponse, error) {
	httpReq, _ := http.NewRequest("GET", c.baseURL+"/api/v1/entitlements?phone="+url.QueryEscape(phone), nil)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		var errResp rest.ErrorResponse
		json.Unmarshal(bodyBytes, &errResp)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error.Message)
	}

	var ent handlers.EntitlementResponse
	require.NoError(t, json.Unmarshal(bodyBytes, &ent))
	return &ent, nil
}

func (c *TestClient) ListAttempts(t *testing.T, status, phone string, limit, offset int) (*handlers.ListAttemptsResponse, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if phone != "" {
		q.Set("phone", phone)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	httpReq, _ := http.NewRequest("GET", c.baseURL+"/api/v1/payments?"+q.Encode(), nil)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		var errResp rest.ErrorResponse
		json.Unmarshal(bodyBytes, &errResp)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error.Message)
	}

	var listResp handlers.ListAttemptsResponse
	require.NoError(t, json.Unmarshal(bodyBytes, &listResp))
	return &listResp, nil
}

// successEnvelope builds the confirmation the provider sends for a paid
// prompt, metadata included.
func successEnvelope(checkoutRequestID, receipt string, amount float64) daraja.CallbackEnvelope {
	return daraja.CallbackEnvelope{Body: daraja.CallbackBody{StkCallback: daraja.StkCallback{
		MerchantRequestID: "29115-34620561-1",
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
		CallbackMetadata: &daraja.CallbackMetadata{Item: []daraja.CallbackItem{
			{Name: "Amount", Value: amount},
			{Name: "MpesaReceiptNumber", Value: receipt},
			{Name: "TransactionDate", Value: 20191219102115},
			{Name: "PhoneNumber", Value: 254708374149},
		}},
	}}}
}

// verdictEnvelope builds a metadata-free confirmation for a failure-class
// result code.
func verdictEnvelope(checkoutRequestID string, resultCode int, resultDesc string) daraja.CallbackEnvelope {
	return daraja.CallbackEnvelope{Body: daraja.CallbackBody{StkCallback: daraja.StkCallback{
		MerchantRequestID: "29115-34620561-1",
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        resultCode,
		ResultDesc:        resultDesc,
	}}}
}
