package engine

import (
	"errors"
	"math"

	"github.com/holiman/uint256"

	"github.com/babylonchain/asset-staking-service/internal/db/model"
	"github.com/babylonchain/asset-staking-service/internal/types"
)

var errRewardOverflow = errors.New("reward amount overflows 256 bits")

// settlement is the outcome of settling a deposit's rewards at a given time.
type settlement struct {
	reward *uint256.Int
	// watermark is the new lastRewardTimestamp
	watermark uint64
	// final is set when no reward can ever accrue again
	final bool
}

// effectiveEnd is the time an unstaked deposit stops accruing rewards.
func effectiveEnd(deposit *model.DepositDocument, unbondingPeriod uint64) uint64 {
	if deposit.UnstakeTimestamp > math.MaxUint64-unbondingPeriod {
		return math.MaxUint64
	}
	return deposit.UnstakeTimestamp + unbondingPeriod
}

// settle computes the rewards of a deposit between its watermark and now.
// A staked deposit accrues up to now. Once unstaked, accrual stops at the end
// of the unbonding period however late the settlement happens.
func settle(deposit *model.DepositDocument, rate *uint256.Int, unbondingPeriod, now uint64) (*settlement, error) {
	end := now
	final := false
	if deposit.Status != types.Staked {
		limit := effectiveEnd(deposit, unbondingPeriod)
		if now >= limit {
			end = limit
			final = true
		}
	}
	if end <= deposit.LastRewardTimestamp {
		return &settlement{
			reward:    new(uint256.Int),
			watermark: deposit.LastRewardTimestamp,
			final:     final,
		}, nil
	}

	elapsed := uint256.NewInt(end - deposit.LastRewardTimestamp)
	reward, overflow := new(uint256.Int).MulOverflow(elapsed, rate)
	if overflow {
		return nil, errRewardOverflow
	}
	return &settlement{reward: reward, watermark: end, final: final}, nil
}
