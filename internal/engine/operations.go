package engine

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/babylonchain/asset-staking-service/internal/types"
)

// withLogic runs an operation through the logic version the configuration
// currently points at.
func (e *Engine) withLogic(
	ctx context.Context, operation string,
	fn func(ctx context.Context, logic Logic, env *Env) (*Call, *types.Error),
) (*Call, *types.Error) {
	return e.execute(ctx, operation, func(ctx context.Context, env *Env) (*Call, *types.Error) {
		cfg, err := env.Tx.Config()
		if err != nil {
			return nil, storageError(err)
		}
		logic, logicErr := e.logicFor(cfg.LogicVersion)
		if logicErr != nil {
			return nil, logicErr
		}
		return fn(ctx, logic, env)
	})
}

// Stake deposits an asset owned by caller and returns the new deposit id.
func (e *Engine) Stake(
	ctx context.Context, caller, collection types.Identity, assetId uint64,
) (uint64, *types.Error) {
	call, err := e.withLogic(ctx, "stake", func(ctx context.Context, logic Logic, env *Env) (*Call, *types.Error) {
		return logic.Stake(ctx, env, caller, collection, assetId)
	})
	if err != nil {
		return 0, err
	}
	log.Ctx(ctx).Info().Uint64("depositId", call.DepositId).Str("depositor", caller.String()).
		Msg("asset staked")
	return call.DepositId, nil
}

func (e *Engine) Unstake(ctx context.Context, caller types.Identity, depositId uint64) *types.Error {
	_, err := e.withLogic(ctx, "unstake", func(ctx context.Context, logic Logic, env *Env) (*Call, *types.Error) {
		return logic.Unstake(ctx, env, caller, depositId)
	})
	return err
}

// ClaimRewards settles the rewards of a deposit and returns the amount issued
// to the depositor. A deposit with nothing left to settle returns zero.
func (e *Engine) ClaimRewards(
	ctx context.Context, caller types.Identity, depositId uint64,
) (*uint256.Int, *types.Error) {
	call, err := e.withLogic(ctx, "claim_rewards", func(ctx context.Context, logic Logic, env *Env) (*Call, *types.Error) {
		return logic.ClaimRewards(ctx, env, caller, depositId)
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Uint64("depositId", depositId).Str("reward", call.Reward.Dec()).
		Msg("rewards claimed")
	return call.Reward, nil
}

func (e *Engine) Withdraw(ctx context.Context, caller types.Identity, depositId uint64) *types.Error {
	_, err := e.withLogic(ctx, "withdraw", func(ctx context.Context, logic Logic, env *Env) (*Call, *types.Error) {
		return logic.Withdraw(ctx, env, caller, depositId)
	})
	return err
}

func (e *Engine) SetRewardRatePerTimeUnit(ctx context.Context, caller types.Identity, rate *uint256.Int) *types.Error {
	return e.setParameter(ctx, caller, RewardRatePerTimeUnitKnob, rate)
}

func (e *Engine) SetMinClaimInterval(ctx context.Context, caller types.Identity, interval uint64) *types.Error {
	return e.setParameter(ctx, caller, MinClaimIntervalKnob, uint256.NewInt(interval))
}

func (e *Engine) SetUnbondingPeriod(ctx context.Context, caller types.Identity, period uint64) *types.Error {
	return e.setParameter(ctx, caller, UnbondingPeriodKnob, uint256.NewInt(period))
}

func (e *Engine) SetMinStakeToUnstakeDelay(ctx context.Context, caller types.Identity, delay uint64) *types.Error {
	return e.setParameter(ctx, caller, MinStakeToUnstakeDelayKnob, uint256.NewInt(delay))
}

// SetParameter updates the configuration value named by knob.
func (e *Engine) SetParameter(ctx context.Context, caller types.Identity, knob Knob, value *uint256.Int) *types.Error {
	return e.setParameter(ctx, caller, knob, value)
}

func (e *Engine) setParameter(ctx context.Context, caller types.Identity, knob Knob, value *uint256.Int) *types.Error {
	_, err := e.withLogic(ctx, "set_"+string(knob), func(ctx context.Context, logic Logic, env *Env) (*Call, *types.Error) {
		return logic.SetParameter(ctx, env, caller, knob, value)
	})
	return err
}
