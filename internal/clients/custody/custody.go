package custody

import (
	"context"
	"net/http"

	"github.com/sony/gobreaker"

	baseclient "github.com/babylonchain/asset-staking-service/internal/clients/base"
	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

type CustodyClient struct {
	config         *config.CollaboratorConfig
	defaultHeaders map[string]string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker
}

type AssetTransferRequest struct {
	Collection string `json:"collection"`
	AssetId    uint64 `json:"asset_id"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
}

type TransferControlRequest struct {
	NewController string `json:"new_controller"`
}

type emptyResponse struct{}

func NewCustodyClient(config *config.CollaboratorConfig) *CustodyClient {
	headers := map[string]string{
		"Accept": "application/json",
	}
	return &CustodyClient{
		config,
		headers,
		&http.Client{},
		baseclient.NewCircuitBreaker("custody"),
	}
}

// Necessary for the BaseClient interface
func (c *CustodyClient) GetBaseURL() string {
	return c.config.Host
}

func (c *CustodyClient) GetDefaultRequestTimeout() int {
	return c.config.Timeout
}

func (c *CustodyClient) GetHttpClient() *http.Client {
	return c.httpClient
}

func (c *CustodyClient) GetCircuitBreaker() *gobreaker.CircuitBreaker {
	return c.breaker
}

func (c *CustodyClient) GetName() string {
	return "custody"
}

func (c *CustodyClient) TakeCustody(
	ctx context.Context, collection types.Identity, assetId uint64, from types.Identity,
) error {
	opts := &baseclient.BaseClientOptions{
		Path:    "/v1/custody/take",
		Headers: c.defaultHeaders,
	}
	payload := &AssetTransferRequest{
		Collection: collection.String(),
		AssetId:    assetId,
		From:       from.String(),
	}
	_, err := baseclient.SendRequest[AssetTransferRequest, emptyResponse](
		ctx, c, http.MethodPost, opts, payload,
	)
	if err != nil {
		return err
	}
	return nil
}

func (c *CustodyClient) Release(
	ctx context.Context, collection types.Identity, assetId uint64, to types.Identity,
) error {
	opts := &baseclient.BaseClientOptions{
		Path:    "/v1/custody/release",
		Headers: c.defaultHeaders,
	}
	payload := &AssetTransferRequest{
		Collection: collection.String(),
		AssetId:    assetId,
		To:         to.String(),
	}
	_, err := baseclient.SendRequest[AssetTransferRequest, emptyResponse](
		ctx, c, http.MethodPost, opts, payload,
	)
	if err != nil {
		return err
	}
	return nil
}

func (c *CustodyClient) TransferControl(ctx context.Context, newController types.Identity) error {
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
