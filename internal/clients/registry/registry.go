package registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	baseclient "github.com/babylonchain/asset-staking-service/internal/clients/base"
	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

type RegistryClient struct {
	config         *config.CollaboratorConfig
	defaultHeaders map[string]string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker
}

type OwnerOfResponse struct {
	Owner string `json:"owner"`
}

func NewRegistryClient(config *config.CollaboratorConfig) *RegistryClient {
	headers := map[string]string{
		"Accept": "application/json",
	}
	return &RegistryClient{
		config,
		headers,
		&http.Client{},
		baseclient.NewCircuitBreaker("registry"),
	}
}

// Necessary for the BaseClient interface
func (c *RegistryClient) GetBaseURL() string {
	return c.config.Host
}

func (c *RegistryClient) GetDefaultRequestTimeout() int {
	return c.config.Timeout
}

func (c *RegistryClient) GetHttpClient() *http.Client {
	return c.httpClient
}

func (c *RegistryClient) GetCircuitBreaker() *gobreaker.CircuitBreaker {
	return c.breaker
}

func (c *RegistryClient) GetName() string {
	return "registry"
}

func (c *RegistryClient) OwnerOf(
	ctx context.Context, collection types.Identity, assetId uint64,
) (types.Identity, error) {
	opts := &baseclient.BaseClientOptions{
		Path:    fmt.Sprintf("/v1/collections/%s/assets/%d/owner", collection, assetId),
		Headers: c.defaultHeaders,
	}
	resp, err := baseclient.SendRequest[any, OwnerOfResponse](
		ctx, c, http.MethodGet, opts, nil,
	)
	if err != nil {
		return "", err
	}
	owner, parseErr := types.NewIdentity(resp.Owner)
	if parseErr != nil {
		return "", types.NewInternalServiceError(fmt.Errorf("registry returned an invalid owner: %w", parseErr))
	}
	return owner, nil
}
