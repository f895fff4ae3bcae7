// Package daraja is the HTTP client for the Safaricom Daraja API: OAuth
// credential issuance, STK push submission, and STK push status queries.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/config"
)

const (
	timestampLayout = "20060102150405"

	// Daraja field limits.
	maxAccountReferenceLen = 12
	maxTransactionDescLen  = 13

	// tokens are refreshed this long before the provider-reported expiry
	tokenRefreshWindow = 30 * time.Second
)

type HTTPClient struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passkey        string
	callbackURL    string
	httpClient     *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg config.DarajaConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortCode:      cfg.ShortCode,
		passkey:        cfg.Passkey,
		callbackURL:    cfg.CallbackURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

// Authenticate returns a bearer token, fetching a fresh one only when the
// cached token is missing or within the refresh window of its expiry. The
// lock is held across the fetch so concurrent callers don't stampede the
// credential endpoint.
func (c *HTTPClient) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenRefreshWindow)) {
		return c.accessToken, nil
	}

	url := fmt.Sprintf("%s/oauth/v1/generate?grant_type=client_credentials", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating credential request: %w", err)
	}
	httpReq.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error requesting credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("credential request returned status %d: %s", resp.StatusCode, string(body))
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("error decoding credential response: %w", err)
	}
	if auth.AccessToken == "" {
		return "", fmt.Errorf("credential response carried no access token")
	}

	// expires_in arrives as a string ("3599")
	ttl, err := strconv.Atoi(auth.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3600
	}

	c.accessToken = auth.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(ttl) * time.Second)
	return c.accessToken, nil
}

// StkPush submits a push request. A provider rejection, whether a non-2xx
// error envelope or a 200 with a non-"0" ResponseCode, surfaces as *APIError.
func (c *HTTPClient) StkPush(ctx context.Context, req application.StkPushRequest) (*application.StkPushResult, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	timestamp, password := c.credentials(time.Now())
	body := stkPushRequest{
		BusinessShortCode: c.shortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            c.shortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       c.callbackURL,
		AccountReference:  truncate(req.AccountReference, maxAccountReferenceLen),
		TransactionDesc:   truncate(req.Description, maxTransactionDescLen),
	}

	url := fmt.Sprintf("%s/mpesa/stkpush/v1/processrequest", c.baseURL)
	resp, err := sendRequest[stkPushRequest, stkPushResponse](c, ctx, url, token, &body)
	if err != nil {
		return nil, err
	}

	if resp.ResponseCode != "0" {
		return nil, &APIError{
			Code:       resp.ResponseCode,
			Message:    resp.ResponseDescription,
			StatusCode: http.StatusOK,
		}
	}

	return &application.StkPushResult{
		MerchantRequestID:   resp.MerchantRequestID,
		CheckoutRequestID:   resp.CheckoutRequestID,
		ResponseCode:        resp.ResponseCode,
		ResponseDescription: resp.ResponseDescription,
		CustomerMessage:     resp.CustomerMessage,
	}, nil
}

// StkQuery asks the provider for the current state of a push. Unlike the
// callback, a settled verdict comes back in ResultCode as a string.
func (c *HTTPClient) StkQuery(ctx context.Context, checkoutRequestID string) (*application.StkQueryResult, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	timestamp, password := c.credentials(time.Now())
	body := stkQueryRequest{
		BusinessShortCode: c.shortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	url := fmt.Sprintf("%s/mpesa/stkpushquery/v1/query", c.baseURL)
	resp, err := sendRequest[stkQueryRequest, stkQueryResponse](c, ctx, url, token, &body)
	if err != nil {
		return nil, err
	}

	return &application.StkQueryResult{
		MerchantRequestID:   resp.MerchantRequestID,
		CheckoutRequestID:   resp.CheckoutRequestID,
		ResponseCode:        resp.ResponseCode,
		ResponseDescription: resp.ResponseDescription,
		ResultCode:          resp.ResultCode,
		ResultDescription:   resp.ResultDesc,
	}, nil
}

// credentials derives the request timestamp and the Base64 password the
// provider requires: base64(shortcode + passkey + timestamp).
func (c *HTTPClient) credentials(at time.Time) (timestamp, password string) {
	timestamp = at.Format(timestampLayout)
	password = base64.StdEncoding.EncodeToString([]byte(c.shortCode + c.passkey + timestamp))
	return timestamp, password
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, url, token string, reqBody *Req) (*Resp, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.ErrorMessage == "" {
			return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &APIError{
			Code:       errResp.ErrorCode,
			Message:    errResp.ErrorMessage,
			StatusCode: resp.StatusCode,
		}
	}

	var apiResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &apiResp, nil
}
