package issuance

import (
	"context"
	"net/http"

	"github.com/holiman/uint256"
	"github.com/sony/gobreaker"

	baseclient "github.com/babylonchain/asset-staking-service/internal/clients/base"
	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

type IssuanceClient struct {
	config         *config.CollaboratorConfig
	defaultHeaders map[string]string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker
}

type IssueRequest struct {
	To string `json:"to"`
	// Decimal string
	Amount string `json:"amount"`
}

type TransferControlRequest struct {
	NewController string `json:"new_controller"`
}

type emptyResponse struct{}

func NewIssuanceClient(config *config.CollaboratorConfig) *IssuanceClient {
	headers := map[string]string{
		"Accept": "application/json",
	}
	return &IssuanceClient{
		config,
		headers,
		&http.Client{},
		baseclient.NewCircuitBreaker("issuance"),
	}
}

// Necessary for the BaseClient interface
func (c *IssuanceClient) GetBaseURL() string {
	return c.config.Host
}

func (c *IssuanceClient) GetDefaultRequestTimeout() int {
	return c.config.Timeout
}

func (c *IssuanceClient) GetHttpClient() *http.Client {
	return c.httpClient
}

func (c *IssuanceClient) GetCircuitBreaker() *gobreaker.CircuitBreaker {
	return c.breaker
}

func (c *IssuanceClient) GetName() string {
	return "issuance"
}

func (c *IssuanceClient) Issue(ctx context.Context, to types.Identity, amount *uint256.Int) error {
	if to.IsZero() {
		return types.NewValidationError("cannot issue rewards to the zero address")
	}
	if amount == nil || amount.IsZero() {
		return types.NewValidationError("cannot issue a zero amount")
	}
	opts := &baseclient.BaseClientOptions{
		Path:    "/v1/issue",
		Headers: c.defaultHeaders,
	}
	payload := &IssueRequest{To: to.String(), Amount: amount.Dec()}
	_, err := baseclient.SendRequest[IssueRequest, emptyResponse](
		ctx, c, http.MethodPost, opts, payload,
	)
	if err != nil {
		return err
	}
	return nil
}

func (c *IssuanceClient) TransferControl(ctx context.Context, newController types.Identity) error {
	opts := &baseclient.BaseClientOptions{
		Path:    "/v1/control/transfer",
		Headers: c.defaultHeaders,
	}
	payload := &TransferControlRequest{NewController: newController.String()}
	_, err := baseclient.SendRequest[TransferControlRequest, emptyResponse](
		ctx, c, http.MethodPost, opts, payload,
	)
	if err != nil {
		return err
	}
	return nil
}
