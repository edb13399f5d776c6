package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/krx-lab/meridian-trading/internal/broker"
	"github.com/krx-lab/meridian-trading/internal/types"
)

type MockServerTestSuite struct {
	suite.Suite
	server *MockBrokerageServer
}

func TestMockServerSuite(t *testing.T) {
	suite.Run(t, new(MockServerTestSuite))
}

func (suite *MockServerTestSuite) SetupTest() {
	suite.server = NewMockBrokerageServer(ServerConfig{
		AppKey:    "test-app-key",
		AppSecret: "test-app-secret",
	})
	err := suite.server.Start(":0")
	suite.Require().NoError(err)
}

func (suite *MockServerTestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Stop()
	}
}

// fetchToken grabs a bearer token with the given credentials and returns the
// raw response plus the decoded grant.
func (suite *MockServerTestSuite) fetchToken(appKey, appSecret string) (*http.Response, tokenGrant) {
	body, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"app_key":    appKey,
		"app_secret": appSecret,
	})
	suite.Require().NoError(err)

	resp, err := http.Post(suite.server.BaseURL()+"/oauth/token", "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)

	var grant tokenGrant
	if resp.StatusCode == http.StatusOK {
		suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&grant))
	}
	resp.Body.Close()

	return resp, grant
}

func (suite *MockServerTestSuite) submitOrder(token string, req broker.OrderRequest) *http.Response {
	body, err := json.Marshal(req)
	suite.Require().NoError(err)

	httpReq, err := http.NewRequest(http.MethodPost, suite.server.BaseURL()+"/order", bytes.NewReader(body))
	suite.Require().NoError(err)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(httpReq)
	suite.Require().NoError(err)

	return resp
}

func (suite *MockServerTestSuite) TestServerStartAndStop() {
	suite.Contains(suite.server.BaseURL(), "http://")
}

func (suite *MockServerTestSuite) TestTokenEndpoint() {
	resp, grant := suite.fetchToken("test-app-key", "test-app-secret")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("Bearer", grant.TokenType)
	suite.Equal(int64(86400), grant.ExpiresIn)
	suite.NotEmpty(grant.AccessToken)
	suite.Equal(1, suite.server.TokenIssueCount())
}

func (suite *MockServerTestSuite) TestTokenEndpointRejectsBadCredentials() {
	resp, _ := suite.fetchToken("test-app-key", "wrong-secret")
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	suite.Equal(0, suite.server.TokenIssueCount())
}

func (suite *MockServerTestSuite) TestQuoteEndpoint() {
	suite.server.SetPrice(types.RegionKR, "005930", decimal.NewFromInt(71300))
	_, grant := suite.fetchToken("test-app-key", "test-app-secret")

	req, err := http.NewRequest(http.MethodGet, suite.server.BaseURL()+"/quote/005930?region=KR", nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+grant.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	var quote broker.Quote
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&quote))
	suite.Equal("005930", quote.Ticker)
	suite.Equal(types.RegionKR, quote.Region)
	suite.True(quote.Price.Equal(decimal.NewFromInt(71300)))
	suite.Equal("KRW", quote.Currency)
}

func (suite *MockServerTestSuite) TestQuoteEndpointUnknownTicker() {
	_, grant := suite.fetchToken("test-app-key", "test-app-secret")

	req, err := http.NewRequest(http.MethodGet, suite.server.BaseURL()+"/quote/999999?region=KR", nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+grant.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *MockServerTestSuite) TestQuoteEndpointRequiresToken() {
	suite.server.SetPrice(types.RegionKR, "005930", decimal.NewFromInt(71300))

	resp, err := http.Get(suite.server.BaseURL() + "/quote/005930?region=KR")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *MockServerTestSuite) TestOrderEndpointFillsLimitOrder() {
	_, grant := suite.fetchToken("test-app-key", "test-app-secret")

	resp := suite.submitOrder(grant.AccessToken, broker.OrderRequest{
		ClientOrderID: "test-order-1",
		AccountNumber: "12345678-01",
		Ticker:        "005930",
		Region:        types.RegionKR,
		Side:          types.SideBuy,
		Style:         types.OrderStyleLimit,
		Quantity:      10,
		Price:         decimal.NewFromInt(49950),
	})
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	var order broker.OrderResponse
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&order))
	suite.True(order.Accepted)
	suite.NotEmpty(order.ExchangeOrderID)

	price, err := order.FilledPrice.Take()
	suite.Require().NoError(err)
	suite.True(price.Equal(decimal.NewFromInt(49950)))

	qty, err := order.FilledQuantity.Take()
	suite.Require().NoError(err)
	suite.Equal(int64(10), qty)

	suite.Len(suite.server.Orders(), 1)
}

func (suite *MockServerTestSuite) TestOrderEndpointFillsMarketOrderAtSeededPrice() {
	suite.server.SetPrice(types.RegionKR, "005930", decimal.NewFromInt(71300))
	_, grant := suite.fetchToken("test-app-key", "test-app-secret")

	resp := suite.submitOrder(grant.AccessToken, broker.OrderRequest{
		ClientOrderID: "test-order-2",
		AccountNumber: "12345678-01",
		Ticker:        "005930",
		Region:        types.RegionKR,
		Side:          types.SideBuy,
		Style:         types.OrderStyleMarket,
		Quantity:      5,
	})
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	var order broker.OrderResponse
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&order))

	price, err := order.FilledPrice.Take()
	suite.Require().NoError(err)
	suite.True(price.Equal(decimal.NewFromInt(71300)))
}

func (suite *MockServerTestSuite) TestOrderEndpointRejectsAboveQuantityLimit() {
	suite.server.RejectQuantityAbove(100)
	_, grant := suite.fetchToken("test-app-key", "test-app-secret")

	resp := suite.submitOrder(grant.AccessToken, broker.OrderRequest{
		ClientOrderID: "test-order-3",
		AccountNumber: "12345678-01",
		Ticker:        "005930",
		Region:        types.RegionKR,
		Side:          types.SideBuy,
		Style:         types.OrderStyleLimit,
		Quantity:      200,
		Price:         decimal.NewFromInt(49950),
	})
	defer resp.Body.Close()

	suite.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	var apiErr apiError
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&apiErr))
	suite.Contains(apiErr.Message, "exceeds account limit")

	// Rejected orders are still recorded.
	suite.Len(suite.server.Orders(), 1)
}

func (suite *MockServerTestSuite) TestOrderEndpointOutage() {
	suite.server.SetUnavailable(true)
	_, grant := suite.fetchToken("test-app-key", "test-app-secret")

	resp := suite.submitOrder(grant.AccessToken, broker.OrderRequest{
		ClientOrderID: "test-order-4",
		AccountNumber: "12345678-01",
		Ticker:        "005930",
		Region:        types.RegionKR,
		Side:          types.SideBuy,
		Style:         types.OrderStyleLimit,
		Quantity:      10,
		Price:         decimal.NewFromInt(49950),
	})
	defer resp.Body.Close()

	suite.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	suite.Empty(suite.server.Orders())

	suite.server.SetUnavailable(false)

	resp2 := suite.submitOrder(grant.AccessToken, broker.OrderRequest{
		ClientOrderID: "test-order-5",
		AccountNumber: "12345678-01",
		Ticker:        "005930",
		Region:        types.RegionKR,
		Side:          types.SideBuy,
		Style:         types.OrderStyleLimit,
		Quantity:      10,
		Price:         decimal.NewFromInt(49950),
	})
	defer resp2.Body.Close()

	suite.Equal(http.StatusOK, resp2.StatusCode)
}

func (suite *MockServerTestSuite) TestOrderEndpointRequiresToken() {
	resp := suite.submitOrder("not-a-real-token", broker.OrderRequest{
		Ticker:   "005930",
		Region:   types.RegionKR,
		Side:     types.SideBuy,
		Style:    types.OrderStyleLimit,
		Quantity: 10,
		Price:    decimal.NewFromInt(49950),
	})
	defer resp.Body.Close()

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}
