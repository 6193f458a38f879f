package services

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/babylonchain/asset-staking-service/internal/engine"
	"github.com/babylonchain/asset-staking-service/internal/observability/tracing"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

type StakeConfigPublic struct {
	Owner                  string `json:"owner"`
	Controller             string `json:"controller"`
	LogicVersion           uint32 `json:"logic_version"`
	Paused                 bool   `json:"paused"`
	RewardRatePerTimeUnit  string `json:"reward_rate_per_time_unit"`
	NextDepositId          uint64 `json:"next_deposit_id"`
	MinClaimInterval       uint64 `json:"min_claim_interval"`
	UnbondingPeriod        uint64 `json:"unbonding_period"`
	MinStakeToUnstakeDelay uint64 `json:"min_stake_to_unstake_delay"`
	Version                uint64 `json:"version"`
}

func (s *Services) GetStakeConfig(ctx context.Context) (*StakeConfigPublic, *types.Error) {
	cfg, err := s.Engine.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &StakeConfigPublic{
		Owner:                  cfg.Owner,
		Controller:             cfg.Controller,
		LogicVersion:           cfg.LogicVersion,
		Paused:                 cfg.Paused,
		RewardRatePerTimeUnit:  cfg.RewardRatePerTimeUnit,
		NextDepositId:          cfg.NextDepositId,
		MinClaimInterval:       cfg.MinClaimInterval,
		UnbondingPeriod:        cfg.UnbondingPeriod,
		MinStakeToUnstakeDelay: cfg.MinStakeToUnstakeDelay,
		Version:                cfg.Version,
	}, nil
}

// SetStakeConfig updates one configuration knob. value is a decimal string.
func (s *Services) SetStakeConfig(
	ctx context.Context, caller types.Identity, knobName, value string,
) (*StakeConfigPublic, *types.Error) {
	defer tracing.StartSpan(ctx, "engine.set_parameter")()
	knob, ok := engine.ParseKnob(knobName)
	if !ok {
		return nil, types.NewValidationError(fmt.Sprintf("unknown configuration knob: %s", knobName))
	}
	parsed, parseErr := uint256.FromDecimal(value)
	if parseErr != nil {
		return nil, types.NewValidationError(fmt.Sprintf("invalid value for %s: %s", knobName, value))
	}
	if err := s.Engine.SetParameter(ctx, caller, knob, parsed); err != nil {
		return nil, err
	}
	return s.GetStakeConfig(ctx)
}

func (s *Services) Pause(ctx context.Context, caller types.Identity) (*StakeConfigPublic, *types.Error) {
	if err := s.Engine.Pause(ctx, caller); err != nil {
		return nil, err
	}
	return s.GetStakeConfig(ctx)
}

func (s *Services) Unpause(ctx context.Context, caller types.Identity) (*StakeConfigPublic, *types.Error) {
	if err := s.Engine.Unpause(ctx, caller); err != nil {
		return nil, err
	}
	return s.GetStakeConfig(ctx)
}

func (s *Services) AuthorizeUpgrade(
	ctx context.Context, caller types.Identity, logicVersion uint32, newController types.Identity,
) (*StakeConfigPublic, *types.Error) {
	defer tracing.StartSpan(ctx, "engine.authorize_upgrade")()
	if err := s.Engine.AuthorizeUpgrade(ctx, caller, logicVersion, newController); err != nil {
		return nil, err
	}
	return s.GetStakeConfig(ctx)
}

// InitializeEngine writes the initial configuration on first start. An engine
// that is already initialized is left untouched.
func (s *Services) InitializeEngine(ctx context.Context, params *types.StakeParams) error {
	owner, err := types.NewIdentity(s.cfg.Engine.Owner)
	if err != nil {
		return err
	}
	controller, err := types.NewIdentity(s.cfg.Engine.Controller)
	if err != nil {
		return err
	}
	initErr := s.Engine.Initialize(ctx, owner, controller, params, s.cfg.Engine.LogicVersion)
	if initErr != nil && initErr.ErrorCode != types.StateConflict {
		return initErr
	}
	return nil
}
