package engine

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/babylonchain/asset-staking-service/internal/ledger"
	queueclient "github.com/babylonchain/asset-staking-service/internal/queue/client"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

// Knob names an owner-tunable configuration value.
type Knob string

const (
	RewardRatePerTimeUnitKnob  Knob = "reward_rate_per_time_unit"
	MinClaimIntervalKnob       Knob = "min_claim_interval"
	UnbondingPeriodKnob        Knob = "unbonding_period"
	MinStakeToUnstakeDelayKnob Knob = "min_stake_to_unstake_delay"
)

func ParseKnob(s string) (Knob, bool) {
	switch k := Knob(s); k {
	case RewardRatePerTimeUnitKnob, MinClaimIntervalKnob, UnbondingPeriodKnob, MinStakeToUnstakeDelayKnob:
		return k, true
	default:
		return "", false
	}
}

// Env is what a logic operation works with: the open ledger transaction, the
// collaborators it may query before committing, and the operation time.
type Env struct {
	Tx            *ledger.Tx
	Collaborators Collaborators
	// Now is read once per operation, every time gate uses it
	Now uint64
}

// Interaction is a collaborator call made after the ledger changes of the
// operation are committed.
type Interaction func(ctx context.Context) error

// Call is the result of a validated operation.
type Call struct {
	DepositId    uint64
	Reward       *uint256.Int
	Interactions []Interaction
	Events       []queueclient.Event
}

// Logic is the replaceable behaviour of the engine. Every version reads and
// writes the same ledger layout, an upgrade only changes which Logic the
// configuration points at.
type Logic interface {
	Version() uint32
	Stake(ctx context.Context, env *Env, caller, collection types.Identity, assetId uint64) (*Call, *types.Error)
	Unstake(ctx context.Context, env *Env, caller types.Identity, depositId uint64) (*Call, *types.Error)
	ClaimRewards(ctx context.Context, env *Env, caller types.Identity, depositId uint64) (*Call, *types.Error)
	Withdraw(ctx context.Context, env *Env, caller types.Identity, depositId uint64) (*Call, *types.Error)
	SetParameter(ctx context.Context, env *Env, caller types.Identity, knob Knob, value *uint256.Int) (*Call, *types.Error)
	PreviewRewards(ctx context.Context, env *Env, depositId uint64) (*uint256.Int, *types.Error)
}
