package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mtandao-labs/hotspotpay/internal/api"
	"github.com/mtandao-labs/hotspotpay/internal/application/services"
	"github.com/mtandao-labs/hotspotpay/internal/application/services/testhelpers"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/daraja"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/persistence/postgres"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest/handlers"
	"github.com/mtandao-labs/hotspotpay/internal/interfaces/rest/middleware"
	"github.com/mtandao-labs/hotspotpay/internal/tests/e2e/testdata"
)

type E2ETestSuite struct {
	suite.Suite
	testDB   *testhelpers.TestDatabase
	provider *testhelpers.FakeDaraja
	server   *httptest.Server
	client   *TestClient
}

func TestE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e tests in short mode")
	}
	suite.Run(t, new(E2ETestSuite))
}

// SetupSuite boots the whole service in-process: real Postgres, a fake
// provider, and the full middleware chain behind a real listener.
func (suite *E2ETestSuite) SetupSuite() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.provider = testhelpers.NewFakeDaraja()

	repo := postgres.NewAttemptRepository(suite.testDB.DB.Pool)
	stkClient := daraja.NewClient(suite.provider.Config())

	initiateService := services.NewInitiateService(repo, stkClient, "HOTSPOT", logger)
	callbackService := services.NewCallbackService(repo, logger)
	entitlementService := services.NewEntitlementService(repo, logger)
	queryService := services.NewQueryService(repo)

	doc, err := api.Load(context.Background())
	require.NoError(suite.T(), err)
	openapiJSON, err := doc.MarshalJSON()
	require.NoError(suite.T(), err)

	em := rest.NewErrorMapper("test", logger)
	h := handlers.NewHandlers(initiateService, callbackService, entitlementService, queryService, suite.testDB.DB, em, logger, openapiJSON)

	handler := http.Handler(h.Routes())
	handler = middleware.Recovery(logger, em)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Metrics()(handler)
	handler = middleware.Timeout(15 * time.Second)(handler)

	suite.server = httptest.NewServer(handler)
	suite.client = NewTestClient(suite.server.URL)

	suite.waitForService()
}

func (suite *E2ETestSuite) TearDownSuite() {
	suite.server.Close()
	suite.provider.Close()
	suite.testDB.Cleanup(suite.T())
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	suite.testDB.CleanTables(suite.T())
	suite.provider.RejectNextPushes(false)
}

func (suite *E2ETestSuite) waitForService() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			suite.T().Fatal("Service not ready after 30s")
		case <-ticker.C:
			resp, err := suite.client.httpClient.Get(suite.server.URL + "/healthz")
			if err != nil {
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}

// ============================================================================
// HAPPY PATH: Initiate -> Confirm -> Entitle
// ============================================================================

func (suite *E2ETestSuite) TestHappyPath_PurchaseAndConfirm() {
	t := suite.T()

	initResp, err := suite.client.Initiate(t, handlers.InitiateRequest{
		Amount:          json.Number("20"),
		Phone:           testdata.PrimaryPhoneLocal,
		PlanDescription: testdata.ThreeHourPlan.Description,
	})
	require.NoError(t, err, "Initiation should succeed")

	assert.True(t, initResp.Success)
	assert.NotEmpty(t, initResp.CheckoutID)
	assert.NotEmpty(t, initResp.CustomerMessage)

	code := suite.client.DeliverCallback(t, successEnvelope(initResp.CheckoutID, "NLJ7RT61SV", 20))
	require.Equal(t, http.StatusOK, code, "Provider delivery should be acknowledged")

	statusResp := suite.client.PollStatus(t, initResp.CheckoutID, "COMPLETED", 5*time.Second)
	assert.Equal(t, "payment successful, awaiting fulfillment", statusResp.Message)

	// local-format purchase, international-format gateway check
	ent, err := suite.client.CheckEntitlement(t, testdata.PrimaryPhone)
	require.NoError(t, err)

	assert.True(t, ent.Paid)
	assert.Equal(t, testdata.ThreeHourPlan.Description, ent.Plan)
	assert.Equal(t, testdata.ThreeHourPlan.BandwidthClass, ent.BandwidthClass)
	assert.Equal(t, "NLJ7RT61SV", ent.Receipt)
	require.NotNil(t, ent.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(testdata.ThreeHourPlan.Duration), *ent.ExpiresAt, time.Minute)
}

func (suite *E2ETestSuite) TestHappyPath_CancelledPurchase() {
	t := suite.T()

	initResp, err := suite.client.Initiate(t, handlers.InitiateRequest{
		Amount:          json.Number("100"),
		Phone:           testdata.SecondPhone,
		PlanDescription: testdata.DayPassPlan.Description,
	})
	require.NoError(t, err)

	code := suite.client.DeliverCallback(t, verdictEnvelope(initResp.CheckoutID, 1032, "Request cancelled by user"))
	require.Equal(t, http.StatusOK, code)

	statusResp := suite.client.PollStatus(t, initResp.CheckoutID, "CANCELLED", 5*time.Second)
	assert.Equal(t, "payment cancelled by user", statusResp.Message)

	ent, err := suite.client.CheckEntitlement(t, testdata.SecondPhone)
	require.NoError(t, err)
	assert.False(t, ent.Paid)
	assert.Empty(t, ent.Receipt)
}

// ============================================================================
// FAILURE MODE: Provider rejects the push
// ============================================================================

func (suite *E2ETestSuite) TestFailure_ProviderRejectsPush() {
	t := suite.T()

	suite.provider.RejectNextPushes(true)
	defer suite.provider.RejectNextPushes(false)

	initResp, err := suite.client.Initiate(t, handlers.InitiateRequest{
		Amount:          json.Number("50"),
		Phone:           testdata.PrimaryPhone,
		PlanDescription: testdata.SevenHourPlan.Description,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient funds")
	assert.Nil(t, initResp)
}

// ============================================================================
// EDGE CASE: Duplicate and unsolicited confirmations
// ============================================================================

func (suite *E2ETestSuite) TestEdgeCase_DuplicateConfirmationSettlesOnce() {
	t := suite.T()

	initResp, err := suite.client.Initiate(t, handlers.InitiateRequest{
		Amount:          json.Number("20"),
		Phone:           testdata.ThirdPhone,
		PlanDescription: testdata.ThreeHourPlan.Description,
	})
	require.NoError(t, err)

	code := suite.client.DeliverCallback(t, successEnvelope(initResp.CheckoutID, "RCPT0001AA", 20))
	require.Equal(t, http.StatusOK, code)
	suite.client.PollStatus(t, initResp.CheckoutID, "COMPLETED", 5*time.Second)

	// the retry carries a different receipt; the settled verdict must hold
	code = suite.client.DeliverCallback(t, successEnvelope(initResp.CheckoutID, "RCPT0002BB", 20))
	require.Equal(t, http.StatusOK, code, "A duplicate delivery is still acknowledged")
	time.Sleep(200 * time.Millisecond)

	ent, err := suite.client.CheckEntitlement(t, testdata.ThirdPhone)
	require.NoError(t, err)
	assert.Equal(t, "RCPT0001AA", ent.Receipt)

	listResp, err := suite.client.ListAttempts(t, "COMPLETED", testdata.ThirdPhone, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, listResp.Count)
}

func (suite *E2ETestSuite) TestEdgeCase_MalformedCallbackRejected() {
	t := suite.T()

	code := suite.client.DeliverRawCallback(t, []byte(`{"Body": `))
	assert.Equal(t, http.StatusBadRequest, code)

	code = suite.client.DeliverRawCallback(t, []byte(`{"Body":{"stkCallback":{"ResultCode":0}}}`))
	assert.Equal(t, http.StatusBadRequest, code, "A callback without correlation IDs is rejected")
}

func (suite *E2ETestSuite) TestEdgeCase_UnsolicitedConfirmationAckedButIgnored() {
	t := suite.T()

	code := suite.client.DeliverCallback(t, successEnvelope("ws_CO_00000000000000000000", "RCPTGHOST1", 20))
	assert.Equal(t, http.StatusOK, code, "Unknown confirmations are still acknowledged")

	statusResp, err := suite.client.GetStatus(t, "ws_CO_00000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", statusResp.Status)
}

// ============================================================================
// SERVICE SURFACE: contract and metrics endpoints
// ============================================================================

func (suite *E2ETestSuite) TestSurface_OpenAPIDocumentServed() {
	t := suite.T()

	resp, err := suite.client.httpClient.Get(suite.server.URL + "/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "HotspotPay API")
}

func (suite *E2ETestSuite) TestSurface_MetricsExposed() {
	t := suite.T()

	// at least one counted request so the counters exist
	resp, err := suite.client.httpClient.Get(suite.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = suite.client.httpClient.Get(suite.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
}
