// Package mockserver provides a mock brokerage server for end-to-end tests.
// It implements the OAuth token, quote, and order endpoints the REST client
// talks to, with hooks to seed prices and force rejections or outages.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/broker"
	"github.com/krx-lab/meridian-trading/internal/types"
)

// ServerConfig holds the credentials the mock server accepts and the token
// lifetime it grants.
type ServerConfig struct {
	AppKey    string
	AppSecret string
	// TokenTTL is the expires_in granted on each token. Zero means 24h.
	TokenTTL time.Duration
}

// MockBrokerageServer is an in-process brokerage with just enough behavior
// for end-to-end tests: it validates app credentials, issues bearer tokens,
// serves seeded quotes, and fills orders at the submitted limit price or the
// seeded market price.
type MockBrokerageServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	cfg      ServerConfig
	tokenSeq int
	tokens   map[string]bool

	prices map[string]decimal.Decimal
	orders []broker.OrderRequest

	orderSeq int64

	// rejectAbove rejects any order whose quantity exceeds it, mimicking an
	// account-limit policy rejection. Zero disables the rule.
	rejectAbove int64
	// unavailable makes the order endpoint answer 503 until cleared.
	unavailable bool
}

type tokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMockBrokerageServer creates a mock brokerage with the given accepted
// credentials.
func NewMockBrokerageServer(cfg ServerConfig) *MockBrokerageServer {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return &MockBrokerageServer{
		cfg:      cfg,
		tokens:   make(map[string]bool),
		prices:   make(map[string]decimal.Decimal),
		orders:   make([]broker.OrderRequest, 0),
		orderSeq: 1000,
	}
}

// Start listens on the given address; empty or ":0" picks a free port.
func (s *MockBrokerageServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/oauth/token", s.handleToken).Methods("POST")
	router.HandleFunc("/quote/{ticker}", s.handleQuote).Methods("GET")
	router.HandleFunc("/order", s.handleOrder).Methods("POST")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("mock brokerage server error: %v\n", err)
		}
	}()

	return nil
}

// Stop shuts the server down.
func (s *MockBrokerageServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the http URL the server is listening on.
func (s *MockBrokerageServer) BaseURL() string {
	if s.listener == nil {
		return ""
	}

	return "http://" + s.listener.Addr().String()
}

// SetPrice seeds the market price for a ticker in a region.
func (s *MockBrokerageServer) SetPrice(region types.Region, ticker string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[priceKey(region, ticker)] = price
}

// RejectQuantityAbove makes the order endpoint reject any order whose
// quantity exceeds limit with a 422 policy rejection. Zero disables it.
func (s *MockBrokerageServer) RejectQuantityAbove(limit int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAbove = limit
}

// SetUnavailable toggles a simulated outage on the order endpoint.
func (s *MockBrokerageServer) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

// TokenIssueCount returns how many tokens the server has granted.
func (s *MockBrokerageServer) TokenIssueCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokenSeq
}

// Orders returns a copy of every order the server has received, accepted or
// not.
func (s *MockBrokerageServer) Orders() []broker.OrderRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]broker.OrderRequest, len(s.orders))
	copy(out, s.orders)

	return out
}

func (s *MockBrokerageServer) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GrantType string `json:"grant_type"`
		AppKey    string `json:"app_key"`
		AppSecret string `json:"app_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EGW00001", "malformed token request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.AppKey != s.cfg.AppKey || req.AppSecret != s.cfg.AppSecret {
		writeError(w, http.StatusUnauthorized, "EGW00101", "invalid app credentials")
		return
	}

	s.tokenSeq++
	token := fmt.Sprintf("mock-access-token-%08d", s.tokenSeq)
	s.tokens[token] = true

	writeJSON(w, http.StatusOK, tokenGrant{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.TokenTTL / time.Second),
	})
}

func (s *MockBrokerageServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "EGW00102", "invalid or expired token")
		return
	}

	ticker := mux.Vars(r)["ticker"]
	region := types.Region(r.URL.Query().Get("region"))

	s.mu.RLock()
	price, ok := s.prices[priceKey(region, ticker)]
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "EGW00404", fmt.Sprintf("no quote for %s.%s", ticker, region))
		return
	}

	writeJSON(w, http.StatusOK, broker.Quote{
		Ticker:   ticker,
		Region:   region,
		Price:    price,
		Currency: regionCurrency(region),
		AsOf:     time.Now(),
	})
}

func (s *MockBrokerageServer) handleOrder(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "EGW00102", "invalid or expired token")
		return
	}

	var req broker.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "EGW00002", "malformed order request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		writeError(w, http.StatusServiceUnavailable, "EGW00503", "order gateway unavailable")
		return
	}

	s.orders = append(s.orders, req)

	if s.rejectAbove > 0 && req.Quantity > s.rejectAbove {
		writeError(w, http.StatusUnprocessableEntity, "APBK0919",
			fmt.Sprintf("order quantity %d exceeds account limit %d", req.Quantity, s.rejectAbove))
		return
	}

	fillPrice := req.Price
	if req.Style == types.OrderStyleMarket {
		price, ok := s.prices[priceKey(req.Region, req.Ticker)]
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "APBK0920",
				fmt.Sprintf("no market price for %s.%s", req.Ticker, req.Region))
			return
		}
		fillPrice = price
	}

	s.orderSeq++

	// The wire shape mirrors broker.OrderResponse; optionals are spelled out
	// so the payload stays obvious.
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":        fmt.Sprintf("MOCK-%06d", s.orderSeq),
		"accepted":        true,
		"filled_price":    fillPrice,
		"filled_quantity": req.Quantity,
	})
}

func (s *MockBrokerageServer) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokens[token]
}

func priceKey(region types.Region, ticker string) string {
	return string(region) + ":" + ticker
}

func regionCurrency(region types.Region) string {
	switch region {
	case types.RegionKR:
		return "KRW"
	case types.RegionUS:
		return "USD"
	case types.RegionJP:
		return "JPY"
	case types.RegionHK:
		return "HKD"
	case types.RegionCN:
		return "CNY"
	case types.RegionVN:
		return "VND"
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Code: code, Message: message})
}
