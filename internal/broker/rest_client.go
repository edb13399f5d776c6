package broker

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/config"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// Compile-time interface check.
var _ API = (*RestClient)(nil)

// tokenResponse is the OAuth-style token grant payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// apiError is the brokerage's error envelope for non-2xx responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RestClient talks to the brokerage REST API. HTTP failures and 5xx
// responses surface as transport errors; policy rejections come back as a
// normal OrderResponse so callers never confuse the two.
type RestClient struct {
	client *resty.Client
	cfg    config.BrokerConfig
	clk    clock.Clock
	log    *logger.Logger
}

// NewRestClient creates a brokerage client from the broker configuration.
func NewRestClient(cfg config.BrokerConfig, clk clock.Clock, log *logger.Logger) *RestClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout()).
		SetHeader("Content-Type", "application/json")

	return &RestClient{
		client: client,
		cfg:    cfg,
		clk:    clk,
		log:    log,
	}
}

// Name returns "rest".
func (c *RestClient) Name() string {
	return "rest"
}

// FetchToken exchanges the app key and secret for an access token.
func (c *RestClient) FetchToken(ctx context.Context) (types.Credential, error) {
	var (
		grant  tokenResponse
		apiErr apiError
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"grant_type": "client_credentials",
			"app_key":    c.cfg.AppKey,
			"app_secret": c.cfg.AppSecret,
		}).
		SetResult(&grant).
		SetError(&apiErr).
		Post("/oauth/token")
	if err != nil {
		return types.Credential{}, c.transportError(err, "token fetch failed")
	}

	if resp.IsError() {
		return types.Credential{}, errors.Newf(errors.ErrCodeCredentialFetchFailed,
			"token endpoint returned %d: %s", resp.StatusCode(), apiErr.Message)
	}

	now := c.clk.Now()

	cred := types.Credential{
		Token:     grant.AccessToken,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(grant.ExpiresIn) * time.Second),
		PID:       os.Getpid(),
	}
	if !cred.StructurallyValid() {
		return types.Credential{}, errors.New(errors.ErrCodeCredentialFetchFailed,
			"token endpoint returned an implausible credential")
	}

	return cred, nil
}

// GetQuote returns the latest traded price for a ticker.
func (c *RestClient) GetQuote(ctx context.Context, token string, region types.Region, ticker string) (Quote, error) {
	var (
		quote  Quote
		apiErr apiError
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("region", string(region)).
		SetResult(&quote).
		SetError(&apiErr).
		Get(fmt.Sprintf("/quote/%s", ticker))
	if err != nil {
		return Quote{}, c.transportError(err, "quote fetch failed")
	}

	if resp.StatusCode() == http.StatusNotFound {
		return Quote{}, errors.Newf(errors.ErrCodePriceUnavailable,
			"no quote for %s.%s: %s", ticker, region, apiErr.Message)
	}

	if resp.IsError() {
		return Quote{}, errors.Newf(errors.ErrCodeTransportFailure,
			"quote endpoint returned %d: %s", resp.StatusCode(), apiErr.Message)
	}

	return quote, nil
}

// SubmitOrder sends an order to the brokerage. A rejection is returned as a
// response with Accepted=false, never as an error.
func (c *RestClient) SubmitOrder(ctx context.Context, token string, req OrderRequest) (OrderResponse, error) {
	var (
		result OrderResponse
		apiErr apiError
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post("/order")
	if err != nil {
		return OrderResponse{}, c.transportError(err, "order submission failed")
	}

	// The brokerage reports policy rejections as 422 with a reason. They are
	// terminal and must reach the caller verbatim.
	if resp.StatusCode() == http.StatusUnprocessableEntity {
		return OrderResponse{
			Accepted: false,
			Reason:   apiErr.Message,
		}, nil
	}

	if resp.IsError() {
		return OrderResponse{}, errors.Newf(errors.ErrCodeTransportFailure,
			"order endpoint returned %d: %s", resp.StatusCode(), apiErr.Message)
	}

	return result, nil
}

func (c *RestClient) transportError(err error, msg string) error {
	if ctxErr := contextCause(err); ctxErr != nil {
		return errors.Wrap(errors.ErrCodeRequestTimeout, msg, ctxErr)
	}

	return errors.Wrap(errors.ErrCodeTransportFailure, msg, err)
}

func contextCause(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return context.Canceled
	default:
		return nil
	}
}
