package engine

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/babylonchain/asset-staking-service/internal/db"
	"github.com/babylonchain/asset-staking-service/internal/db/model"
	"github.com/babylonchain/asset-staking-service/internal/observability/metrics"
	queueclient "github.com/babylonchain/asset-staking-service/internal/queue/client"
	"github.com/babylonchain/asset-staking-service/internal/types"
	"github.com/babylonchain/asset-staking-service/internal/utils"
)

const LogicV1Version uint32 = 1

type LogicV1 struct{}

func NewLogicV1() *LogicV1 {
	return &LogicV1{}
}

func (l *LogicV1) Version() uint32 {
	return LogicV1Version
}

func (l *LogicV1) Stake(
	ctx context.Context, env *Env, caller, collection types.Identity, assetId uint64,
) (*Call, *types.Error) {
	cfg, err := env.Tx.Config()
	if err != nil {
		return nil, storageError(err)
	}
	if caller.IsZero() {
		return nil, types.NewInvalidConfigurationError("caller cannot be the zero address")
	}
	if collection.IsZero() {
		return nil, types.NewInvalidConfigurationError("asset collection cannot be the zero address")
	}
	if cfg.Paused {
		return nil, errPaused()
	}

	owner, ownerErr := env.Collaborators.Registry.OwnerOf(ctx, collection, assetId)
	if ownerErr != nil {
		return nil, collaboratorError(ownerErr)
	}
	if owner != caller {
		return nil, types.NewUnauthorizedError("caller does not own the asset")
	}

	depositId := cfg.NextDepositId
	cfg.NextDepositId++
	deposit := model.DepositDocument{
		DepositId:           depositId,
		AssetCollection:     collection.String(),
		AssetId:             assetId,
		Depositor:           caller.String(),
		LastRewardTimestamp: env.Now,
		StakeTimestamp:      env.Now,
		Status:              types.Staked,
	}
	if err := env.Tx.InsertDeposit(deposit); err != nil {
		return nil, types.NewInternalServiceError(err)
	}

	custodian := env.Collaborators.Custody
	return &Call{
		DepositId: depositId,
		Interactions: []Interaction{
			func(ctx context.Context) error {
				return custodian.TakeCustody(ctx, collection, assetId, caller)
			},
		},
		Events: []queueclient.Event{
			&queueclient.DepositCreatedEvent{
				EventHeader:     queueclient.NewEventHeader(queueclient.DepositCreatedEventType, env.Now),
				DepositId:       depositId,
				Depositor:       deposit.Depositor,
				AssetCollection: deposit.AssetCollection,
				AssetId:         assetId,
				StakeTimestamp:  env.Now,
			},
		},
	}, nil
}

func (l *LogicV1) Unstake(
	ctx context.Context, env *Env, caller types.Identity, depositId uint64,
) (*Call, *types.Error) {
	cfg, deposit, opErr := l.depositOf(ctx, env, caller, depositId)
	if opErr != nil {
		return nil, opErr
	}
	if cfg.Paused {
		return nil, errPaused()
	}
	if !utils.IsForwardTransition(deposit.Status, types.Unstaked) {
		return nil, errStatus(deposit.Status)
	}
	if env.Now < deposit.StakeTimestamp || env.Now-deposit.StakeTimestamp < cfg.MinStakeToUnstakeDelay {
		return nil, types.NewTooEarlyError("minimum stake to unstake delay has not elapsed")
	}

	deposit.Status = types.Unstaked
	deposit.UnstakeTimestamp = env.Now

	return &Call{
		DepositId: depositId,
		Events: []queueclient.Event{
			&queueclient.DepositUnstakedEvent{
				EventHeader:      queueclient.NewEventHeader(queueclient.DepositUnstakedEventType, env.Now),
				DepositId:        depositId,
				Depositor:        deposit.Depositor,
				UnstakeTimestamp: env.Now,
			},
		},
	}, nil
}

func (l *LogicV1) ClaimRewards(
	ctx context.Context, env *Env, caller types.Identity, depositId uint64,
) (*Call, *types.Error) {
	cfg, deposit, opErr := l.depositOf(ctx, env, caller, depositId)
	if opErr != nil {
		return nil, opErr
	}
	if cfg.Paused {
		return nil, errPaused()
	}
	if env.Now < deposit.LastRewardTimestamp {
		return nil, types.NewStateConflictError("rewards are already settled beyond the current time")
	}

	s, settleErr := l.settle(cfg, deposit, env.Now)
	if settleErr != nil {
		return nil, settleErr
	}
	// Nothing can accrue anymore, the claim is a no-op
	if s.final && s.reward.IsZero() {
		return &Call{DepositId: depositId, Reward: s.reward}, nil
	}
	if env.Now-deposit.LastRewardTimestamp < cfg.MinClaimInterval {
		return nil, types.NewTooEarlyError("minimum claim interval has not elapsed")
	}

	deposit.LastRewardTimestamp = s.watermark
	call := &Call{DepositId: depositId, Reward: s.reward}
	if s.reward.IsZero() {
		return call, nil
	}

	issuer := env.Collaborators.Issuer
	reward := s.reward.Clone()
	call.Interactions = []Interaction{
		func(ctx context.Context) error {
			if err := issuer.Issue(ctx, caller, reward); err != nil {
				return err
			}
			metrics.RecordRewardsIssued()
			return nil
		},
	}
	call.Events = []queueclient.Event{
		&queueclient.RewardsClaimedEvent{
			EventHeader:         queueclient.NewEventHeader(queueclient.RewardsClaimedEventType, env.Now),
			DepositId:           depositId,
			Depositor:           deposit.Depositor,
			Amount:              reward.Dec(),
			LastRewardTimestamp: s.watermark,
		},
	}
	return call, nil
}

func (l *LogicV1) Withdraw(
	ctx context.Context, env *Env, caller types.Identity, depositId uint64,
) (*Call, *types.Error) {
	cfg, deposit, opErr := l.depositOf(ctx, env, caller, depositId)
	if opErr != nil {
		return nil, opErr
	}
	// Withdrawals stay available while paused
	if !utils.IsForwardTransition(deposit.Status, types.Withdrawn) {
		return nil, errStatus(deposit.Status)
	}
	if env.Now < deposit.UnstakeTimestamp || env.Now-deposit.UnstakeTimestamp < cfg.UnbondingPeriod {
		return nil, types.NewTooEarlyError("unbonding period has not elapsed")
	}

	deposit.Status = types.Withdrawn

	collection := types.Identity(deposit.AssetCollection)
	assetId := deposit.AssetId
	custodian := env.Collaborators.Custody
	return &Call{
		DepositId: depositId,
		Interactions: []Interaction{
			func(ctx context.Context) error {
				return custodian.Release(ctx, collection, assetId, caller)
			},
		},
		Events: []queueclient.Event{
			&queueclient.DepositWithdrawnEvent{
				EventHeader:     queueclient.NewEventHeader(queueclient.DepositWithdrawnEventType, env.Now),
				DepositId:       depositId,
				Depositor:       deposit.Depositor,
				AssetCollection: deposit.AssetCollection,
				AssetId:         assetId,
			},
		},
	}, nil
}

func (l *LogicV1) SetParameter(
	ctx context.Context, env *Env, caller types.Identity, knob Knob, value *uint256.Int,
) (*Call, *types.Error) {
	cfg, err := env.Tx.Config()
	if err != nil {
		return nil, storageError(err)
	}
	if caller != types.Identity(cfg.Owner) {
		return nil, types.NewUnauthorizedError("caller is not the owner")
	}
	if cfg.Paused {
		return nil, errPaused()
	}
	if value == nil {
		return nil, types.NewInvalidConfigurationError(fmt.Sprintf("missing value for %s", knob))
	}

	if knob == RewardRatePerTimeUnitKnob {
		rate, rateErr := types.ParseRewardRate(value.Dec())
		if rateErr != nil {
			return nil, types.NewInvalidConfigurationError(rateErr.Error())
		}
		cfg.RewardRatePerTimeUnit = rate.Dec()
	} else {
		if !value.IsUint64() {
			return nil, types.NewInvalidConfigurationError(fmt.Sprintf("%s is out of range", knob))
		}
		v := value.Uint64()
		var validationErr error
		switch knob {
		case MinClaimIntervalKnob:
			if validationErr = types.ValidateMinClaimInterval(v); validationErr == nil {
				cfg.MinClaimInterval = v
			}
		case UnbondingPeriodKnob:
			if validationErr = types.ValidateUnbondingPeriod(v); validationErr == nil {
				cfg.UnbondingPeriod = v
			}
		case MinStakeToUnstakeDelayKnob:
			if validationErr = types.ValidateMinStakeToUnstakeDelay(v); validationErr == nil {
				cfg.MinStakeToUnstakeDelay = v
			}
		default:
			validationErr = fmt.Errorf("unknown configuration knob %s", knob)
		}
		if validationErr != nil {
			return nil, types.NewInvalidConfigurationError(validationErr.Error())
		}
	}

	log.Ctx(ctx).Info().Str("knob", string(knob)).Str("value", value.Dec()).Msg("configuration updated")
	return &Call{
		Events: []queueclient.Event{
			&queueclient.ConfigUpdatedEvent{
				EventHeader: queueclient.NewEventHeader(queueclient.ConfigUpdatedEventType, env.Now),
				Knob:        string(knob),
				Value:       value.Dec(),
			},
		},
	}, nil
}

func (l *LogicV1) PreviewRewards(ctx context.Context, env *Env, depositId uint64) (*uint256.Int, *types.Error) {
	cfg, err := env.Tx.Config()
	if err != nil {
		return nil, storageError(err)
	}
	deposit, opErr := l.loadDeposit(ctx, env, cfg, depositId)
	if opErr != nil {
		return nil, opErr
	}
	s, settleErr := l.settle(cfg, deposit, env.Now)
	if settleErr != nil {
		return nil, settleErr
	}
	return s.reward, nil
}

// depositOf loads a deposit for an operation of its depositor. The ownership
// check comes before anything that reveals the deposit's state.
func (l *LogicV1) depositOf(
	ctx context.Context, env *Env, caller types.Identity, depositId uint64,
) (*model.StakeConfigDocument, *model.DepositDocument, *types.Error) {
	cfg, err := env.Tx.Config()
	if err != nil {
		return nil, nil, storageError(err)
	}
	deposit, opErr := l.loadDeposit(ctx, env, cfg, depositId)
	if opErr != nil {
		return nil, nil, opErr
	}
	if types.Identity(deposit.Depositor) != caller {
		return nil, nil, types.NewUnauthorizedError("caller is not the depositor")
	}
	return cfg, deposit, nil
}

func (l *LogicV1) loadDeposit(
	ctx context.Context, env *Env, cfg *model.StakeConfigDocument, depositId uint64,
) (*model.DepositDocument, *types.Error) {
	if depositId >= cfg.NextDepositId {
		return nil, types.NewValidationError(fmt.Sprintf("invalid deposit id %d", depositId))
	}
	deposit, err := env.Tx.Deposit(ctx, depositId)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewInternalServiceError(
				fmt.Errorf("deposit %d is missing from the ledger", depositId),
			)
		}
		return nil, types.NewInternalServiceError(err)
	}
	return deposit, nil
}

func (l *LogicV1) settle(
	cfg *model.StakeConfigDocument, deposit *model.DepositDocument, now uint64,
) (*settlement, *types.Error) {
	rate, err := uint256.FromDecimal(cfg.RewardRatePerTimeUnit)
	if err != nil {
		return nil, types.NewInternalServiceError(fmt.Errorf("stored reward rate is invalid: %w", err))
	}
	s, err := settle(deposit, rate, cfg.UnbondingPeriod, now)
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}
	return s, nil
}

func errPaused() *types.Error {
	return types.NewServiceUnavailableError("staking engine is paused")
}

func errStatus(status types.DepositStatus) *types.Error {
	switch status {
	case types.Staked:
		return types.NewStateConflictError("deposit is still staked")
	case types.Unstaked:
		return types.NewStateConflictError("deposit is already unstaked")
	case types.Withdrawn:
		return types.NewStateConflictError("deposit is already withdrawn")
	default:
		return types.NewInternalServiceError(fmt.Errorf("unknown deposit status %q", status))
	}
}
