package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/babylonchain/asset-staking-service/cmd/asset-staking-service/cli"
	"github.com/babylonchain/asset-staking-service/cmd/asset-staking-service/scripts"
	"github.com/babylonchain/asset-staking-service/internal/api"
	"github.com/babylonchain/asset-staking-service/internal/clients"
	"github.com/babylonchain/asset-staking-service/internal/config"
	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/db/model"
	"github.com/babylonchain/asset-staking-service/internal/engine"
	"github.com/babylonchain/asset-staking-service/internal/observability/healthcheck"
	"github.com/babylonchain/asset-staking-service/internal/observability/metrics"
	"github.com/babylonchain/asset-staking-service/internal/queue"
	"github.com/babylonchain/asset-staking-service/internal/services"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("failed to load .env file")
	}
}

func main() {
	ctx := context.Background()

	// setup cli commands and flags
	if err := cli.Setup(); err != nil {
		log.Fatal().Err(err).Msg("error while setting up cli")
	}

	// load config
	cfgPath := cli.GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	paramsPath := cli.GetStakeParamsPath()
	params, err := types.NewStakeParams(paramsPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading stake params file: %s", paramsPath))
	}

	metrics.Init(cfg.Metrics.GetMetricsAddress())

	if cfg.Db.Type == config.MongoDbType {
		err = model.Setup(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("error while setting up staking db model")
		}
	}
	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	defer dbClient.Close(ctx) // nolint:errcheck

	queues, err := queue.New(&cfg.Queue, dbClient)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up event queues")
	}
	defer queues.Stop()

	// Check if the replay flag is set
	if cli.GetReplayFlag() {
		log.Info().Msg("Replay flag is set. Starting replay of unprocessable messages.")
		err := scripts.ReplayUnprocessableMessages(ctx, queues, dbClient)
		if err != nil {
			log.Fatal().Err(err).Msg("error while replaying unprocessable messages")
		}
		return
	}

	collaborators := clients.New(cfg)
	stakingEngine := engine.New(dbClient, engine.Collaborators{
		Custody:  collaborators.Custody,
		Registry: collaborators.Registry,
		Issuer:   collaborators.Issuance,
	}, queues)

	services, err := services.New(ctx, cfg, dbClient, stakingEngine)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up staking services layer")
	}
	if err := services.InitializeEngine(ctx, params); err != nil {
		log.Fatal().Err(err).Msg("error while initializing the staking engine")
	}

	if err := healthcheck.StartHealthCheckCron(ctx, queues, cfg.Queue.HealthCheckInterval); err != nil {
		log.Fatal().Err(err).Msg("error while starting queue health check")
	}

	apiServer, err := api.New(ctx, cfg, services)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up staking api service")
	}
	if err = apiServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("error while starting staking api service")
	}
}
