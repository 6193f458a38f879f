package clients

import (
	"github.com/babylonchain/asset-staking-service/internal/clients/custody"
	"github.com/babylonchain/asset-staking-service/internal/clients/issuance"
	"github.com/babylonchain/asset-staking-service/internal/clients/registry"
	"github.com/babylonchain/asset-staking-service/internal/config"
)

type Clients struct {
	Custody  custody.Custody
	Registry registry.AssetRegistry
	Issuance issuance.Issuer
}

func New(cfg *config.Config) *Clients {
	return &Clients{
		Custody:  custody.NewCustodyClient(cfg.Clients.Custody),
		Registry: registry.NewRegistryClient(cfg.Clients.Registry),
		Issuance: issuance.NewIssuanceClient(cfg.Clients.Issuance),
	}
}
