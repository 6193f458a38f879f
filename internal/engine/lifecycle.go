package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	baseclient "github.com/babylonchain/asset-staking-service/internal/clients/base"
	"github.com/babylonchain/asset-staking-service/internal/db/model"
	queueclient "github.com/babylonchain/asset-staking-service/internal/queue/client"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

// Initialize writes the first configuration of the ledger. It succeeds once,
// every later call fails with a state conflict.
func (e *Engine) Initialize(
	ctx context.Context, owner, controller types.Identity, params *types.StakeParams, logicVersion uint32,
) *types.Error {
	_, err := e.execute(ctx, "initialize", func(ctx context.Context, env *Env) (*Call, *types.Error) {
		if env.Tx.Initialized() {
			return nil, types.NewStateConflictError("staking engine is already initialized")
		}
		if owner.IsZero() {
			return nil, types.NewInvalidConfigurationError("owner cannot be the zero address")
		}
		if controller.IsZero() {
			return nil, types.NewInvalidConfigurationError("controller cannot be the zero address")
		}
		if params == nil {
			return nil, types.NewInvalidConfigurationError("missing stake params")
		}
		if err := params.Validate(); err != nil {
			return nil, types.NewInvalidConfigurationError(err.Error())
		}
		if _, ok := e.logics[logicVersion]; !ok {
			return nil, types.NewInvalidConfigurationError(
				fmt.Sprintf("logic version %d is not supported by this engine", logicVersion),
			)
		}
		rate, _ := params.RewardRate()

		cfg := model.StakeConfigDocument{
			LogicVersion:           logicVersion,
			Owner:                  owner.String(),
			Controller:             controller.String(),
			RewardRatePerTimeUnit:  rate.Dec(),
			MinClaimInterval:       params.MinClaimInterval,
			UnbondingPeriod:        params.UnbondingPeriod,
			MinStakeToUnstakeDelay: params.MinStakeToUnstakeDelay,
			InitializedAt:          env.Now,
		}
		if err := env.Tx.CreateConfig(cfg); err != nil {
			return nil, storageError(err)
		}
		return &Call{}, nil
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("owner", owner.String()).Uint32("logicVersion", logicVersion).
		Msg("staking engine initialized")
	return nil
}

func (e *Engine) Pause(ctx context.Context, caller types.Identity) *types.Error {
	return e.setPaused(ctx, caller, true)
}

func (e *Engine) Unpause(ctx context.Context, caller types.Identity) *types.Error {
	return e.setPaused(ctx, caller, false)
}

func (e *Engine) setPaused(ctx context.Context, caller types.Identity, paused bool) *types.Error {
	operation, eventType := "unpause", queueclient.EngineUnpausedEventType
	if paused {
		operation, eventType = "pause", queueclient.EnginePausedEventType
	}
	_, err := e.execute(ctx, operation, func(ctx context.Context, env *Env) (*Call, *types.Error) {
		cfg, err := env.Tx.Config()
		if err != nil {
			return nil, storageError(err)
		}
		if caller != types.Identity(cfg.Owner) {
			return nil, types.NewUnauthorizedError("caller is not the owner")
		}
		if cfg.Paused == paused {
			if paused {
				return nil, types.NewStateConflictError("staking engine is already paused")
			}
			return nil, types.NewStateConflictError("staking engine is not paused")
		}
		cfg.Paused = paused
		return &Call{
			Events: []queueclient.Event{
				&queueclient.LifecycleEvent{
					EventHeader: queueclient.NewEventHeader(eventType, env.Now),
					Paused:      paused,
				},
			},
		}, nil
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Bool("paused", paused).Msg("staking engine availability changed")
	return nil
}

// AuthorizeUpgrade switches the engine to another logic version and hands the
// control of the custody and issuance services to newController. The engine
// must be paused. Control is handed over before the new logic is used, and
// taken back from the custody service if the issuance service refuses it.
func (e *Engine) AuthorizeUpgrade(
	ctx context.Context, caller types.Identity, logicVersion uint32, newController types.Identity,
) *types.Error {
	_, err := e.execute(ctx, "authorize_upgrade", func(ctx context.Context, env *Env) (*Call, *types.Error) {
		cfg, err := env.Tx.Config()
		if err != nil {
			return nil, storageError(err)
		}
		if caller != types.Identity(cfg.Owner) {
			return nil, types.NewUnauthorizedError("caller is not the owner")
		}
		if !cfg.Paused {
			return nil, types.NewStateConflictError("staking engine must be paused to be upgraded")
		}
		if newController.IsZero() {
			return nil, types.NewInvalidConfigurationError("new controller cannot be the zero address")
		}
		if _, ok := e.logics[logicVersion]; !ok {
			return nil, types.NewInvalidConfigurationError(
				fmt.Sprintf("logic version %d is not supported by this engine", logicVersion),
			)
		}

		previousController := types.Identity(cfg.Controller)
		cfg.LogicVersion = logicVersion
		cfg.Controller = newController.String()

		custodian := env.Collaborators.Custody
		issuer := env.Collaborators.Issuer
		return &Call{
			Interactions: []Interaction{
				func(ctx context.Context) error {
					return custodian.TransferControl(ctx, newController)
				},
				func(ctx context.Context) error {
					if err := issuer.TransferControl(ctx, newController); err != nil {
						// custody already answers to the new controller
						backCtx := baseclient.WithController(ctx, newController)
						if backErr := custodian.TransferControl(backCtx, previousController); backErr != nil {
							log.Ctx(ctx).Error().Err(backErr).
								Msg("failed to hand custody control back to the previous controller")
						}
						return err
					}
					return nil
				},
			},
			Events: []queueclient.Event{
				&queueclient.EngineUpgradedEvent{
					EventHeader:   queueclient.NewEventHeader(queueclient.EngineUpgradedEventType, env.Now),
					LogicVersion:  logicVersion,
					NewController: newController.String(),
				},
			},
		}, nil
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Uint32("logicVersion", logicVersion).Str("controller", newController.String()).
		Msg("staking engine upgraded")
	return nil
}
