package services

import (
	"context"

	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/engine"
)

// Service layer translates between the public API and the staking engine.
type Services struct {
	DbClient db.DBClient
	Engine   *engine.Engine
	cfg      *config.Config
}

func New(ctx context.Context, cfg *config.Config, dbClient db.DBClient, stakingEngine *engine.Engine) (*Services, error) {
	return &Services{
		DbClient: dbClient,
		Engine:   stakingEngine,
		cfg:      cfg,
	}, nil
}

// DoHealthCheck checks the health of the services by ping the database.
func (s *Services) DoHealthCheck(ctx context.Context) error {
	return s.DbClient.Ping(ctx)
}
